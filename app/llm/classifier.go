package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buildsignals/buildsignals/app/signal"
)

const classifyPrompt = `You are a signal analyst classifying startup/builder opportunities and generating buyer-intent search queries.

For each signal, provide:
1. **opportunity_types**: A list with 1-2 items chosen from:
   - developer-tooling
   - demographic-market-gap
   - infrastructure-need
   - workflow-inefficiency
   - emerging-category
2. **opportunity_title**: A short 4-8 word title describing the opportunity (NOT the original post title).
3. **queries**: An object with three keys, each containing a list of 3-5 search query strings:
   - **google_trends**: buyer intent keyword phrases (2-6 words, no special chars)
   - **producthunt**: product search queries (what someone would search on Product Hunt)
   - **github**: GitHub repository search queries (technical terms, tool categories)

Be specific and varied. Each query should probe a different angle of the opportunity.

Input signals:

%s

Respond with a JSON array. Each element:
{
  "signal_index": 0,
  "opportunity_types": ["developer-tooling", "infrastructure-need"],
  "opportunity_title": "Secure AI coding environments",
  "queries": {
    "google_trends": ["query1", "query2", "query3", "query4"],
    "producthunt": ["query1", "query2", "query3"],
    "github": ["query1", "query2", "query3", "query4", "query5"]
  }
}

ONLY output the JSON array.`

const maxQueriesPerSource = 5

// Classification is what the classifier produces per signal: type tags
// from the closed vocabulary, a short opportunity title and the search
// queries for the three evidence sources.
type Classification struct {
	OpportunityTypes []string
	Title            string
	Queries          signal.QuerySet
}

type Classifier struct {
	client    Client
	batchSize int
}

type classifyResult struct {
	SignalIndex      int                    `json:"signal_index"`
	OpportunityTypes interface{}            `json:"opportunity_types"`
	OpportunityType  interface{}            `json:"opportunity_type"`
	OpportunityTitle string                 `json:"opportunity_title"`
	Queries          map[string]interface{} `json:"queries"`
}

func NewClassifier(client Client, batchSize int) *Classifier {
	if batchSize <= 0 {
		batchSize = 5
	}

	return &Classifier{client: client, batchSize: batchSize}
}

// Classify returns one Classification per input signal, in input
// order. Signals a batch failed to cover still get a usable entry: the
// default opportunity type, a title derived from the signal, and no
// queries, which downstream collectors report as no_queries.
func (c *Classifier) Classify(ctx context.Context, signals []signal.Signal) []Classification {
	classifications := make([]Classification, len(signals))
	covered := make([]bool, len(signals))

	for start := 0; start < len(signals); start += c.batchSize {
		end := min(start+c.batchSize, len(signals))
		batch := signals[start:end]

		results, err := completeArray[classifyResult](ctx, c.client, c.buildPrompt(batch))
		if err != nil {
			slog.Warn("Classification batch failed", "from", start, "to", end-1, "error", err)
			continue
		}

		for _, r := range results {
			idx := start + r.SignalIndex
			if idx < start || idx >= end {
				continue
			}

			rawTypes := r.OpportunityTypes
			if rawTypes == nil {
				rawTypes = r.OpportunityType
			}

			classifications[idx] = Classification{
				OpportunityTypes: normalizeOpportunityTypes(rawTypes),
				Title:            strings.TrimSpace(r.OpportunityTitle),
				Queries:          normalizeQueries(r.Queries),
			}
			covered[idx] = true
		}
	}

	for i := range classifications {
		if !covered[i] {
			slog.Warn("Signal not classified, using defaults", "id", signals[i].ID)
		}
		if len(classifications[i].OpportunityTypes) == 0 {
			classifications[i].OpportunityTypes = []string{signal.DefaultOpportunityType}
		}
		if classifications[i].Title == "" {
			classifications[i].Title = fallbackOpportunityTitle(signals[i])
		}
	}

	return classifications
}

func (c *Classifier) buildPrompt(batch []signal.Signal) string {
	texts := make([]string, 0, len(batch))
	for i, sig := range batch {
		texts = append(texts, formatSignalForClassify(sig, i))
	}

	return fmt.Sprintf(classifyPrompt, strings.Join(texts, "\n---\n"))
}

func formatSignalForClassify(sig signal.Signal, index int) string {
	return fmt.Sprintf(
		"[Signal %d]\nSource: %s\nTitle: %s\nScore: %d\nComments: %d\nCategory: %s\nHook: %s\nInsight: %s\nDescription: %s\n",
		index, sig.Source, sig.Title, sig.Score, sig.Comments,
		sig.Category, sig.OneLineHook, sig.KeyInsight, truncate(sig.Text, 400),
	)
}

// normalizeOpportunityTypes keeps at most two distinct tags from the
// closed vocabulary, dropping anything the model invented.
func normalizeOpportunityTypes(raw interface{}) []string {
	var normalized []string

	for _, t := range coerceList(raw) {
		t = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(t)), "_", "-")

		known := false
		for _, vocab := range signal.OpportunityTypes {
			if t == vocab {
				known = true
				break
			}
		}
		if !known {
			continue
		}

		duplicate := false
		for _, existing := range normalized {
			if existing == t {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		normalized = append(normalized, t)
		if len(normalized) == 2 {
			break
		}
	}

	return normalized
}

func normalizeQueries(raw map[string]interface{}) signal.QuerySet {
	return signal.QuerySet{
		Trends:      dedupeQueries(coerceList(raw["google_trends"])),
		ProductHunt: dedupeQueries(coerceList(raw["producthunt"])),
		Github:      dedupeQueries(coerceList(raw["github"])),
	}
}

func dedupeQueries(queries []string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == maxQueriesPerSource {
			break
		}
	}

	return out
}

func fallbackOpportunityTitle(sig signal.Signal) string {
	hook := strings.Trim(strings.TrimSpace(sig.OneLineHook), `"`)
	if hook != "" {
		return truncateRunes(hook, 80)
	}
	if title := strings.TrimSpace(sig.Title); title != "" {
		return truncateRunes(title, 80)
	}
	return "Untitled opportunity"
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
