package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/buildsignals/buildsignals/app/signal"
)

const synthesizePrompt = `You are writing validation narratives for builder opportunities. You've been given a signal and evidence summaries from Google Trends, Product Hunt, and GitHub.

Write:
1. **narrative**: 3-5 sentences summarizing the validation evidence. Be specific about what was found. If evidence is weak or missing, say so honestly. Reference actual numbers or product names when provided. End with an explicit assessment sentence using the provided confidence label, e.g. "Assessment: Open market with validated demand. High confidence opportunity."
2. **one_line_hook**: A compelling one-line hook for content (lowercase, conversational, specific).
3. **key_insight**: 2-3 sentences on why this matters for builders.
4. **build_starter** (only when the evidence supports a concrete product): an object with problem, target_user, minimal_scope, stack and instructions strings a builder could start from.

Use the provided confidence label and source count. Do NOT change them.

Input:

%s

Respond with a single JSON object:
{
  "narrative": "3-5 sentence validation narrative...",
  "one_line_hook": "...",
  "key_insight": "...",
  "build_starter": {
    "problem": "...",
    "target_user": "...",
    "minimal_scope": "...",
    "stack": "...",
    "instructions": "..."
  }
}

ONLY output the JSON object.`

// Narrative is the synthesizer's output for one opportunity. Every
// field is filled, either from the model or from a deterministic
// fallback, except BuildStarter which stays nil when the model offered
// none.
type Narrative struct {
	Narrative    string
	OneLineHook  string
	KeyInsight   string
	BuildStarter *signal.BuildStarter
	Fallback     bool
}

type Synthesizer struct {
	client Client
}

type synthesizeResult struct {
	Narrative    string `json:"narrative"`
	OneLineHook  string `json:"one_line_hook"`
	KeyInsight   string `json:"key_insight"`
	BuildStarter *struct {
		Problem      string `json:"problem"`
		TargetUser   string `json:"target_user"`
		MinimalScope string `json:"minimal_scope"`
		Stack        string `json:"stack"`
		Instructions string `json:"instructions"`
	} `json:"build_starter"`
}

func NewSynthesizer(client Client) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize produces the narrative block for one validated draft. It
// never fails: any field the model did not deliver is filled from the
// draft itself, and confidence is read, never written.
func (s *Synthesizer) Synthesize(ctx context.Context, draft signal.ValidatedOpportunity) Narrative {
	out := Narrative{
		OneLineHook: draft.OneLineHook,
		KeyInsight:  draft.KeyInsight,
	}

	result, err := completeObject[synthesizeResult](ctx, s.client, s.buildPrompt(draft))
	if err != nil {
		slog.Warn("Narrative synthesis failed, using fallback", "id", draft.ID, "error", err)
		out.Narrative = FallbackNarrative(draft)
		out.Fallback = true
		return out
	}

	if narrative := strings.TrimSpace(result.Narrative); narrative != "" {
		out.Narrative = narrative
	} else {
		out.Narrative = FallbackNarrative(draft)
		out.Fallback = true
	}
	if hook := strings.TrimSpace(result.OneLineHook); hook != "" {
		out.OneLineHook = hook
	}
	if insight := strings.TrimSpace(result.KeyInsight); insight != "" {
		out.KeyInsight = insight
	}
	if bs := result.BuildStarter; bs != nil && strings.TrimSpace(bs.Problem) != "" {
		out.BuildStarter = &signal.BuildStarter{
			Problem:      strings.TrimSpace(bs.Problem),
			TargetUser:   strings.TrimSpace(bs.TargetUser),
			MinimalScope: strings.TrimSpace(bs.MinimalScope),
			Stack:        strings.TrimSpace(bs.Stack),
			Instructions: strings.TrimSpace(bs.Instructions),
		}
	}

	return out
}

func (s *Synthesizer) buildPrompt(draft signal.ValidatedOpportunity) string {
	text := fmt.Sprintf(
		"Title: %s\nSource: %s\nHook: %s\nOpportunity Title: %s\nTypes: %s\nConfidence: %s (%d sources confirming)\n\n"+
			"Trends Summary: %s\nProducts Summary: %s\nGitHub Summary: %s\n\n"+
			"Trends Evidence (short): %s\n\nProduct Hunt Evidence (short): %s\n\nGitHub Evidence (short): %s\n",
		draft.SignalTitle, draft.SignalSource, draft.OneLineHook,
		draft.Title, strings.Join(draft.OpportunityTypes, " / "),
		strings.ToUpper(string(draft.Confidence)), draft.SourcesConfirming,
		draft.TrendsEvidence.Summary, draft.ProductHuntEvidence.Summary, draft.GithubEvidence.Summary,
		evidenceExcerpt(draft.TrendsEvidence),
		evidenceExcerpt(draft.ProductHuntEvidence),
		evidenceExcerpt(draft.GithubEvidence),
	)

	return fmt.Sprintf(synthesizePrompt, text)
}

func evidenceExcerpt(ev signal.EvidenceSummary) string {
	data, err := json.Marshal(ev)
	if err != nil {
		return ""
	}
	return truncate(string(data), 400)
}

// FallbackNarrative assembles a deterministic narrative from the
// evidence summaries and the computed assessment. It is used whenever
// the model's narrative is missing or unparseable.
func FallbackNarrative(draft signal.ValidatedOpportunity) string {
	parts := make([]string, 0, 5)

	if hook := strings.TrimSpace(draft.OneLineHook); hook != "" {
		parts = append(parts, fmt.Sprintf("Signal highlights: %s", hook))
	} else {
		parts = append(parts, fmt.Sprintf("Signal shows interest (%d upvotes, %d comments).",
			draft.SignalScore, draft.SignalComments))
	}

	parts = append(parts,
		summaryOrDefault(draft.TrendsEvidence.Summary, "No search trend data available."),
		summaryOrDefault(draft.ProductHuntEvidence.Summary, "No product directory data available."),
		summaryOrDefault(draft.GithubEvidence.Summary, "No code-hosting data available."),
	)

	label := cases.Title(language.English).String(string(draft.Confidence))
	parts = append(parts, fmt.Sprintf("Assessment: %d sources confirming, %s confidence opportunity.",
		draft.SourcesConfirming, label))

	return strings.Join(parts, " ")
}

func summaryOrDefault(summary, fallback string) string {
	if summary = strings.TrimSpace(summary); summary != "" {
		return summary
	}
	return fallback
}
