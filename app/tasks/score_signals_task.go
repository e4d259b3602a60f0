package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buildsignals/buildsignals/app/database"
	"github.com/buildsignals/buildsignals/app/llm"
)

// ScoreSignalsTask rates freshly fetched signals so the validator has
// a ranked pool to draw from. Signals keep their scores once rated,
// so every run only touches the new ones.
type ScoreSignalsTask struct {
	Task
	signalRepo database.SignalRepository
	scorer     *llm.Scorer
	limit      int
}

func NewScoreSignalsTask(signalRepo database.SignalRepository, scorer *llm.Scorer, limit int) *ScoreSignalsTask {
	return &ScoreSignalsTask{
		Task:       NewTask(TaskTypeScoreSignals, ""),
		signalRepo: signalRepo,
		scorer:     scorer,
		limit:      limit,
	}
}

func (t *ScoreSignalsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	signals, err := t.signalRepo.ListUnscoredSignals(t.limit)
	if err != nil {
		return fmt.Errorf("failed to load unscored signals: %w", err)
	}
	if len(signals) == 0 {
		slog.Debug("No unscored signals")
		return nil
	}

	scored := t.scorer.Score(ctx, signals)
	if len(scored) == 0 {
		return fmt.Errorf("scoring produced no results for %d signals", len(signals))
	}

	written, err := t.signalRepo.UpsertSignals(scored)
	if err != nil {
		return fmt.Errorf("failed to store scored signals: %w", err)
	}

	slog.Info("Task completed", "type", string(t.Type),
		"scored", len(scored), "written", written, "duration", t.GetDuration().String())

	return nil
}
