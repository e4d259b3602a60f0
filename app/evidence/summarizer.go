package evidence

import (
	"fmt"
	"strings"

	"github.com/buildsignals/buildsignals/app/signal"
)

// Summarizer condenses collector output into display-ready sentences
// and marks each summary as supporting or not. The supporting flag is
// derived with the same rule the confidence reducer applies, so the
// dashboard and the reducer never disagree.
type Summarizer struct{}

func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

func (s *Summarizer) Trends(ev signal.EvidenceSummary) signal.EvidenceSummary {
	ev.Supporting = signal.Confirms(ev, true)

	switch {
	case ev.Status == signal.EvidenceNoQueries:
		ev.Summary = "No trend queries generated."
	case ev.Status != signal.EvidenceOK:
		ev.Summary = "No search trend data available."
	case len(ev.Items) == 0:
		ev.Summary = "Search demand weak or flat across all queries."
	default:
		top := ev.Items[0]
		if ev.Supporting {
			ev.Summary = fmt.Sprintf("Search demand present. Top query '%s' shows interest %d (%s, %s).",
				top.Label, top.Score, top.Detail, ev.Direction)
		} else {
			ev.Summary = fmt.Sprintf("Search demand declining. Top query '%s' has interest %d (%s).",
				top.Label, top.Score, top.Detail)
		}
	}

	return ev
}

func (s *Summarizer) Products(ev signal.EvidenceSummary) signal.EvidenceSummary {
	ev.Supporting = signal.Confirms(ev, false)

	switch {
	case ev.Status == signal.EvidenceNoQueries:
		ev.Summary = "No product queries generated."
	case ev.Status != signal.EvidenceOK:
		ev.Summary = "No product directory data available."
	case len(ev.Items) == 0:
		ev.Summary = "No relevant products found in the launch directory."
	default:
		top := ev.Items[0]
		ev.Summary = fmt.Sprintf("Found %d related products. Top: %s (%d votes).",
			len(ev.Items), top.Label, top.Score)
	}

	return ev
}

func (s *Summarizer) Github(ev signal.EvidenceSummary) signal.EvidenceSummary {
	ev.Supporting = signal.Confirms(ev, false)

	switch {
	case ev.Status == signal.EvidenceNoQueries:
		ev.Summary = "No repository queries generated."
	case ev.Status != signal.EvidenceOK:
		ev.Summary = "No code-hosting data available."
	case len(ev.Items) == 0:
		ev.Summary = "No relevant repos found on GitHub search."
	default:
		parts := []string{fmt.Sprintf("Found %d unique repos.", len(ev.Items))}
		limit := 3
		if len(ev.Items) < limit {
			limit = len(ev.Items)
		}
		for _, item := range ev.Items[:limit] {
			detail := fmt.Sprintf("%s (%d stars)", item.Label, item.Score)
			if item.Detail != "" {
				detail += " - " + item.Detail
			}
			parts = append(parts, detail)
		}
		ev.Summary = strings.Join(parts, " | ")
	}

	return ev
}
