package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buildsignals/buildsignals/app/database"
	"github.com/buildsignals/buildsignals/app/source"
)

type FetchSourceTask struct {
	Task
	SourceConfig *source.Config
	fetcher      source.Fetcher
	signalRepo   database.SignalRepository
}

func NewFetchSourceTask(sourceName string, sourceConfig *source.Config, fetcher source.Fetcher,
	signalRepo database.SignalRepository) *FetchSourceTask {
	return &FetchSourceTask{
		Task:         NewTask(TaskTypeFetchSource, sourceName),
		SourceConfig: sourceConfig,
		fetcher:      fetcher,
		signalRepo:   signalRepo,
	}
}

func (t *FetchSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	signals, err := t.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch source %s: %w", t.SourceName, err)
	}

	written, err := t.signalRepo.UpsertSignals(signals)
	if err != nil {
		return fmt.Errorf("failed to store signals for %s: %w", t.SourceName, err)
	}

	slog.Info("Task completed", "type", string(t.Type), "source", t.SourceName,
		"fetched", len(signals), "written", written, "duration", t.GetDuration().String())

	return nil
}
