package evidence

import (
	"context"

	"github.com/buildsignals/buildsignals/app/signal"
)

// maxItems caps how many matched items a collector keeps per run.
const maxItems = 5

// Collector executes derived search queries against one external
// read-only service. Implementations never return an error: failures
// degrade to an EvidenceSummary with status "error" so a single broken
// source cannot abort a validation batch.
type Collector interface {
	Collect(ctx context.Context, queries []string) signal.EvidenceSummary
}

func noQueries() signal.EvidenceSummary {
	return signal.EvidenceSummary{Status: signal.EvidenceNoQueries, Items: []signal.EvidenceItem{}}
}

func collectorError() signal.EvidenceSummary {
	return signal.EvidenceSummary{Status: signal.EvidenceError, Items: []signal.EvidenceItem{}}
}

func noData() signal.EvidenceSummary {
	return signal.EvidenceSummary{Status: signal.EvidenceNoData, Items: []signal.EvidenceItem{}}
}

func capQueries(queries []string) []string {
	if len(queries) > maxItems {
		return queries[:maxItems]
	}
	return queries
}
