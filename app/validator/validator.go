package validator

import (
	"context"
	"log/slog"
	"time"

	"github.com/buildsignals/buildsignals/app/evidence"
	"github.com/buildsignals/buildsignals/app/llm"
	"github.com/buildsignals/buildsignals/app/signal"
)

// Collectors groups the three evidence sources. A nil entry means the
// source is disabled; its evidence then reads no_queries, which the
// reducer treats as not confirming.
type Collectors struct {
	Trends      evidence.Collector
	ProductHunt evidence.Collector
	Github      evidence.Collector
}

// Validator runs the per-signal validation pipeline: classify, gather
// evidence, reduce to a confidence label, synthesize a narrative.
// Every input signal yields exactly one ValidatedOpportunity; degraded
// stages fall back instead of dropping records.
type Validator struct {
	classifier  *llm.Classifier
	synthesizer *llm.Synthesizer
	enricher    *ContextEnricher
	summarizer  *evidence.Summarizer
	reducer     *signal.Reducer
	collectors  Collectors
	model       string
	now         func() time.Time
}

func New(classifier *llm.Classifier, synthesizer *llm.Synthesizer, enricher *ContextEnricher,
	reducer *signal.Reducer, collectors Collectors, model string) *Validator {
	return &Validator{
		classifier:  classifier,
		synthesizer: synthesizer,
		enricher:    enricher,
		summarizer:  evidence.NewSummarizer(),
		reducer:     reducer,
		collectors:  collectors,
		model:       model,
		now:         time.Now,
	}
}

func (v *Validator) Validate(ctx context.Context, signals []signal.Signal) []signal.ValidatedOpportunity {
	if len(signals) == 0 {
		return nil
	}

	enriched := make([]signal.Signal, len(signals))
	copy(enriched, signals)
	if v.enricher != nil {
		for i := range enriched {
			enriched[i] = v.enricher.Enrich(ctx, enriched[i])
		}
	}

	classifications := v.classifier.Classify(ctx, enriched)

	validated := make([]signal.ValidatedOpportunity, 0, len(enriched))
	fallbacks := 0
	byConfidence := map[signal.Confidence]int{}

	for i, sig := range enriched {
		cls := classifications[i]

		slog.Info("Validating signal", "id", sig.ID, "title", sig.Title,
			"types", cls.OpportunityTypes)

		trendsEv := v.summarizer.Trends(v.collect(ctx, v.collectors.Trends, cls.Queries.Trends))
		productsEv := v.summarizer.Products(v.collect(ctx, v.collectors.ProductHunt, cls.Queries.ProductHunt))
		githubEv := v.summarizer.Github(v.collect(ctx, v.collectors.Github, cls.Queries.Github))

		confirming, confidence := v.reducer.Reduce(sig, trendsEv, productsEv, githubEv)

		draft := signal.ValidatedOpportunity{
			ID:             "val:" + sig.ID,
			SignalID:       sig.ID,
			Title:          cls.Title,
			SignalTitle:    sig.Title,
			SignalURL:      sig.URL,
			SignalSource:   sig.Source,
			SignalScore:    sig.Score,
			SignalComments: sig.Comments,

			OpportunityTypes: cls.OpportunityTypes,
			Queries:          cls.Queries,

			TrendsEvidence:      trendsEv,
			ProductHuntEvidence: productsEv,
			GithubEvidence:      githubEv,

			SourcesConfirming: confirming,
			Confidence:        confidence,

			OneLineHook: sig.OneLineHook,
			KeyInsight:  sig.KeyInsight,

			ValidatedAt: v.now().UTC(),
			Model:       v.model,
		}

		narrative := v.synthesizer.Synthesize(ctx, draft)
		draft.Narrative = narrative.Narrative
		draft.OneLineHook = narrative.OneLineHook
		draft.KeyInsight = narrative.KeyInsight
		draft.BuildStarter = narrative.BuildStarter
		if narrative.Fallback {
			fallbacks++
		}

		byConfidence[confidence]++
		validated = append(validated, draft)
	}

	slog.Info("Validation run completed",
		"validated", len(validated),
		"high", byConfidence[signal.ConfidenceHigh],
		"medium", byConfidence[signal.ConfidenceMedium],
		"low", byConfidence[signal.ConfidenceLow],
		"fallback_narratives", fallbacks)

	return validated
}

func (v *Validator) collect(ctx context.Context, collector evidence.Collector, queries []string) signal.EvidenceSummary {
	if collector == nil {
		return signal.EvidenceSummary{
			Status: signal.EvidenceNoQueries,
			Items:  []signal.EvidenceItem{},
		}
	}
	return collector.Collect(ctx, queries)
}
