package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/buildsignals/buildsignals/app/database"
	"github.com/buildsignals/buildsignals/app/jsonl"
	"github.com/buildsignals/buildsignals/app/llm"
	"github.com/buildsignals/buildsignals/app/signal"
)

// How many stored signals to pull before the in-memory top-N cut.
const draftPoolLimit = 200

// DraftContentTask generates tweet drafts for the top scored signals
// and writes them as a JSONL file for operator review. Unlike
// validation there is no qualification floor: the best available
// signals get drafted even in a thin week.
type DraftContentTask struct {
	Task
	signalRepo database.SignalRepository
	drafter    *llm.Drafter
	topN       int
	dataDir    string
}

func NewDraftContentTask(signalRepo database.SignalRepository, drafter *llm.Drafter,
	topN int, dataDir string) *DraftContentTask {
	return &DraftContentTask{
		Task:       NewTask(TaskTypeDraftContent, ""),
		signalRepo: signalRepo,
		drafter:    drafter,
		topN:       topN,
		dataDir:    dataDir,
	}
}

func (t *DraftContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	pool, err := t.signalRepo.ListSignals("", draftPoolLimit)
	if err != nil {
		return fmt.Errorf("failed to load signals: %w", err)
	}

	scored := make([]signal.Signal, 0, len(pool))
	for _, s := range pool {
		if s.CombinedScore() > 0 {
			scored = append(scored, s)
		}
	}
	if len(scored) == 0 {
		slog.Info("No scored signals to draft from")
		return nil
	}

	top := llm.TopN(scored, t.topN)

	drafts := make([]signal.ContentDraft, 0, len(top))
	failed := 0
	for _, s := range top {
		draft, err := t.drafter.Draft(ctx, s)
		if err != nil {
			slog.Warn("Draft generation failed, skipping signal", "signal", s.ID, "error", err)
			failed++
			continue
		}
		drafts = append(drafts, *draft)
	}

	if len(drafts) == 0 {
		return fmt.Errorf("draft generation produced nothing for %d signals", len(top))
	}

	outPath := filepath.Join(t.dataDir, "tweet_drafts.jsonl")
	if err := jsonl.WriteDrafts(outPath, drafts); err != nil {
		return fmt.Errorf("failed to write drafts: %w", err)
	}

	slog.Info("Task completed", "type", string(t.Type),
		"drafts", len(drafts), "failed", failed, "output", outPath, "duration", t.GetDuration().String())

	return nil
}
