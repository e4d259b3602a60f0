package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/buildsignals/buildsignals/app/database"
	"github.com/buildsignals/buildsignals/app/jsonl"
	"github.com/buildsignals/buildsignals/app/llm"
	"github.com/buildsignals/buildsignals/app/validator"
)

// ValidateSignalsTask runs the cross-referencing pipeline over the top
// scored signals and persists the resulting opportunities. A JSONL
// snapshot of the run is written alongside when a data directory is
// configured.
type ValidateSignalsTask struct {
	Task
	signalRepo database.SignalRepository
	oppRepo    database.OpportunityRepository
	validator  *validator.Validator
	topN       int
	dataDir    string
}

func NewValidateSignalsTask(signalRepo database.SignalRepository, oppRepo database.OpportunityRepository,
	v *validator.Validator, topN int, dataDir string) *ValidateSignalsTask {
	return &ValidateSignalsTask{
		Task:       NewTask(TaskTypeValidateSignals, ""),
		signalRepo: signalRepo,
		oppRepo:    oppRepo,
		validator:  v,
		topN:       topN,
		dataDir:    dataDir,
	}
}

func (t *ValidateSignalsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	signals, err := t.signalRepo.TopScoredSignals(llm.MinRelevance, llm.MinContentPotential, t.topN)
	if err != nil {
		return fmt.Errorf("failed to load top signals: %w", err)
	}
	if len(signals) == 0 {
		slog.Info("No qualifying signals to validate")
		return nil
	}

	validated := t.validator.Validate(ctx, signals)

	// A rejected batch is a hard failure; silent data loss is worse
	// than a visible failed run.
	written, err := t.oppRepo.UpsertOpportunities(validated)
	if err != nil {
		return fmt.Errorf("failed to store validated opportunities: %w", err)
	}

	if t.dataDir != "" {
		outPath := filepath.Join(t.dataDir, "validated_opportunities.jsonl")
		if err := jsonl.WriteOpportunities(outPath, validated); err != nil {
			slog.Warn("Failed to write validation snapshot", "path", outPath, "error", err)
		}
	}

	slog.Info("Task completed", "type", string(t.Type),
		"validated", len(validated), "written", written, "duration", t.GetDuration().String())

	return nil
}
