package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

const draftPrompt = `You are writing a tweet draft (200-280 words) based on a signal about what people are building, what problems exist, or what tools are trending.

VOICE RULES (follow these exactly):
- lowercase throughout
- contractions always (don't, can't, won't, you're, i'm)
- mix sentence lengths. short. then longer flowing ones. fragments.
- specific numbers, not vague claims
- second person where natural
- personality: parenthetical asides, "look," "yeah," starting paragraphs with "and" or "but"
- position yourself as peer sharing discoveries, not expert lecturing

FORBIDDEN WORDS (never use these):
delve, landscape, realm, utilize, moreover, furthermore, additionally, "it's worth noting", "in today's digital age", navigate, tapestry, multifaceted, cornerstone, robust, paradigm, synergy, leverage

STRUCTURE:
- Open with a hook that makes someone stop scrolling
- Build with specific details, numbers, examples
- Close with insight or provocation, not a call to action
- 200-280 words total

Output ONLY a JSON object:
{
  "hook": "the opening line that makes people stop scrolling",
  "full_draft": "the complete 200-280 word tweet text including the hook as the first line"
}`

const (
	minDraftWords = 200
	maxDraftWords = 280
)

type draftResult struct {
	Hook      string `json:"hook"`
	FullDraft string `json:"full_draft"`
}

// Drafter turns one scored signal into a publishable tweet draft. A
// failed draft skips the signal rather than degrading to boilerplate:
// drafts are content, not pipeline records, and a filler draft is
// worthless.
type Drafter struct {
	client Client
	now    func() time.Time
}

func NewDrafter(client Client) *Drafter {
	return &Drafter{
		client: client,
		now:    time.Now,
	}
}

// Draft generates a draft for one signal. A draft whose word count
// falls outside the target range is regenerated once; the second
// attempt is accepted as-is.
func (d *Drafter) Draft(ctx context.Context, sig signal.Signal) (*signal.ContentDraft, error) {
	prompt := d.buildPrompt(sig)

	result, err := completeObject[draftResult](ctx, d.client, prompt)
	if err != nil {
		return nil, err
	}

	words := wordCount(result.FullDraft)
	if words < minDraftWords || words > maxDraftWords {
		slog.Warn("Draft word count out of range, regenerating", "signal", sig.ID, "words", words)
		if retry, retryErr := completeObject[draftResult](ctx, d.client, prompt); retryErr == nil {
			result = retry
			words = wordCount(result.FullDraft)
		}
	}

	if result.FullDraft == "" {
		return nil, fmt.Errorf("model returned an empty draft for %s", sig.ID)
	}

	return &signal.ContentDraft{
		SignalID:         sig.ID,
		Source:           sig.Source,
		Category:         sig.Category,
		Hook:             strings.TrimSpace(result.Hook),
		FullDraft:        strings.TrimSpace(result.FullDraft),
		WordCount:        words,
		GeneratedAt:      d.now().UTC(),
		Status:           "draft",
		Model:            d.client.Model(),
		SignalTitle:      sig.Title,
		SignalURL:        sig.URL,
		RelevanceScore:   sig.RelevanceScore,
		ContentPotential: sig.ContentPotential,
	}, nil
}

func (d *Drafter) buildPrompt(sig signal.Signal) string {
	return fmt.Sprintf(
		"%s\n\nWrite a tweet draft based on this signal:\n\n"+
			"Source: %s\nTitle: %s\nScore/Votes: %d\nURL: %s\nCategory: %s\n"+
			"Hook idea: %s\nKey insight: %s\nDescription: %s\n",
		draftPrompt, sig.Source, sig.Title, sig.Score, sig.URL, sig.Category,
		sig.OneLineHook, sig.KeyInsight, truncate(sig.Text, 800),
	)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
