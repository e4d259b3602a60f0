package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/buildsignals/buildsignals/app/signal"
)

const scoringPrompt = `You are a skeptical signal analyst for a content engine that discovers what people are building, what problems exist, and what tools are trending.

Score each signal on TWO dimensions (1-10 scale):

1. **relevance_score**: How relevant is this to builders, indie hackers, and vibe coders?
   - 1-3: Generic tech news, company announcements, no actionable insight
   - 4-6: Somewhat interesting but common knowledge or vague
   - 7-8: Clear signal of unmet need, growing trend, or validated opportunity
   - 9-10: Exceptional, a specific gap in the market with evidence of demand

2. **content_potential**: How good would this be as the basis for a tweet/thread?
   - 1-3: Boring, already well-covered, no hook
   - 4-6: Could be interesting but needs heavy lifting to make compelling
   - 7-8: Strong hook, specific data points, natural story arc
   - 9-10: Irresistible, the kind of thing people screenshot and share

BE SKEPTICAL. Most signals are 4-6. Only genuinely interesting ones score 7+. I'd rather have 3 great signals than 20 mediocre ones.

For each signal, also provide:
- **category**: One of: market-gap, trending-tool, exit-story, emerging-trend, pain-point, vibe-coding-opportunity
- **one_line_hook**: A compelling one-line hook for content (lowercase, conversational, specific)
- **key_insight**: 2-3 sentences on why this matters for builders

Respond with a JSON array. Each element must have:
{
  "signal_index": 0,
  "relevance_score": 7,
  "content_potential": 8,
  "category": "market-gap",
  "one_line_hook": "47 people asked for invoice automation this month. nobody's built it.",
  "key_insight": "2-3 sentence explanation..."
}

ONLY output the JSON array, no other text.`

// Signals below these minimums on either dimension are scored and
// stored but never validated.
const (
	MinRelevance        = 7
	MinContentPotential = 7
)

// Scorer rates raw signals on relevance and content potential.
type Scorer struct {
	client    Client
	batchSize int
}

// Qualifies reports whether a scored signal clears both minimums and
// may enter the validation pipeline.
func Qualifies(s signal.Signal) bool {
	return s.RelevanceScore >= MinRelevance && s.ContentPotential >= MinContentPotential
}

type scoreResult struct {
	SignalIndex      int    `json:"signal_index"`
	RelevanceScore   int    `json:"relevance_score"`
	ContentPotential int    `json:"content_potential"`
	Category         string `json:"category"`
	OneLineHook      string `json:"one_line_hook"`
	KeyInsight       string `json:"key_insight"`
}

func NewScorer(client Client, batchSize int) *Scorer {
	if batchSize <= 0 {
		batchSize = 5
	}

	return &Scorer{
		client:    client,
		batchSize: batchSize,
	}
}

// Score enriches signals batch by batch and returns every signal the
// model rated, qualifying or not, so the scores can be persisted. A
// failed batch is logged and skipped so one bad response cannot sink
// the whole run.
func (s *Scorer) Score(ctx context.Context, signals []signal.Signal) []signal.Signal {
	var scored []signal.Signal
	qualifying := 0

	for start := 0; start < len(signals); start += s.batchSize {
		end := min(start+s.batchSize, len(signals))
		batch := signals[start:end]

		results, err := completeArray[scoreResult](ctx, s.client, s.buildPrompt(batch))
		if err != nil {
			slog.Warn("Scoring batch failed", "from", start, "to", end-1, "error", err)
			continue
		}

		for _, r := range results {
			idx := start + r.SignalIndex
			if idx < start || idx >= end {
				continue
			}

			sig := signals[idx]
			sig.RelevanceScore = r.RelevanceScore
			sig.ContentPotential = r.ContentPotential
			sig.Category = strings.TrimSpace(r.Category)
			sig.OneLineHook = strings.TrimSpace(r.OneLineHook)
			sig.KeyInsight = strings.TrimSpace(r.KeyInsight)
			scored = append(scored, sig)

			if Qualifies(sig) {
				qualifying++
			}
		}
	}

	slog.Info("Scoring completed", "scored", len(scored), "qualifying", qualifying, "input", len(signals))

	return scored
}

func (s *Scorer) buildPrompt(batch []signal.Signal) string {
	texts := make([]string, 0, len(batch))
	for i, sig := range batch {
		texts = append(texts, formatSignalForScoring(sig, i))
	}

	return scoringPrompt + "\n\nScore the following signals:\n\n" + strings.Join(texts, "\n---\n")
}

func formatSignalForScoring(sig signal.Signal, index int) string {
	return fmt.Sprintf(
		"[Signal %d]\nSource: %s\nTitle: %s\nScore/Votes: %d\nAuthor: %s\nURL: %s\nDescription: %s\n",
		index, sig.Source, sig.Title, sig.Score, sig.Author, sig.URL, truncate(sig.Text, 500),
	)
}

// TopN orders scored signals by combined score, highest first, and
// returns at most n of them.
func TopN(signals []signal.Signal, n int) []signal.Signal {
	sorted := make([]signal.Signal, len(signals))
	copy(sorted, signals)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CombinedScore() > sorted[j].CombinedScore()
	})

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
