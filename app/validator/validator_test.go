package validator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/buildsignals/buildsignals/app/llm"
	"github.com/buildsignals/buildsignals/app/signal"
)

type scriptedClient struct {
	responses []string
	err       error
}

func (c *scriptedClient) Complete(_ context.Context, _ string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func (c *scriptedClient) Model() string {
	return "test-model"
}

type fakeCollector struct {
	ev      signal.EvidenceSummary
	queries [][]string
}

func (f *fakeCollector) Collect(_ context.Context, queries []string) signal.EvidenceSummary {
	f.queries = append(f.queries, queries)
	if len(queries) == 0 {
		return signal.EvidenceSummary{Status: signal.EvidenceNoQueries, Items: []signal.EvidenceItem{}}
	}
	return f.ev
}

func okEvidence(label string, score int) signal.EvidenceSummary {
	return signal.EvidenceSummary{
		Status: signal.EvidenceOK,
		Items:  []signal.EvidenceItem{{Label: label, Score: score}},
	}
}

func newValidator(client llm.Client, collectors Collectors) *Validator {
	return New(
		llm.NewClassifier(client, 5),
		llm.NewSynthesizer(client),
		nil,
		signal.NewReducer(nil),
		collectors,
		"test-model",
	)
}

func TestValidator_FullPipeline(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`[{
			"signal_index": 0,
			"opportunity_types": ["workflow-inefficiency"],
			"opportunity_title": "Invoice automation for freelancers",
			"queries": {
				"google_trends": ["invoice automation"],
				"producthunt": ["invoice tool"],
				"github": ["invoice generator"]
			}
		}]`,
		`{"narrative": "Demand confirmed across sources. Assessment: validated. High confidence opportunity.", "one_line_hook": "invoicing is still broken"}`,
	}}

	trends := &fakeCollector{ev: signal.EvidenceSummary{
		Status:    signal.EvidenceOK,
		Direction: signal.DirectionRising,
		Items:     []signal.EvidenceItem{{Label: "invoice automation", Score: 40}},
	}}
	products := &fakeCollector{ev: signal.EvidenceSummary{Status: signal.EvidenceNoData, Items: []signal.EvidenceItem{}}}
	github := &fakeCollector{ev: okEvidence("acme/invoicer", 420)}

	v := newValidator(client, Collectors{Trends: trends, ProductHunt: products, Github: github})

	out := v.Validate(context.Background(), []signal.Signal{{
		ID:       "ask_hn:1",
		Source:   signal.SourceAskHN,
		Title:    "Ask HN: Why is invoicing still manual?",
		URL:      "https://news.ycombinator.com/item?id=1",
		Score:    500,
		Comments: 120,
	}})

	if len(out) != 1 {
		t.Fatalf("Expected 1 validated opportunity, got %d", len(out))
	}
	opp := out[0]

	if opp.ID != "val:ask_hn:1" || opp.SignalID != "ask_hn:1" {
		t.Errorf("Unexpected identifiers: %s / %s", opp.ID, opp.SignalID)
	}
	if opp.Title != "Invoice automation for freelancers" {
		t.Errorf("Unexpected opportunity title: %q", opp.Title)
	}
	// Trends and GitHub confirm, Product Hunt does not: two sources.
	if opp.SourcesConfirming != 2 || opp.Confidence != signal.ConfidenceHigh {
		t.Errorf("Expected 2 sources / high, got %d / %s", opp.SourcesConfirming, opp.Confidence)
	}
	if !strings.Contains(opp.Narrative, "High confidence") {
		t.Errorf("Unexpected narrative: %q", opp.Narrative)
	}
	if opp.OneLineHook != "invoicing is still broken" {
		t.Errorf("Unexpected hook: %q", opp.OneLineHook)
	}
	if opp.Model != "test-model" || opp.ValidatedAt.IsZero() {
		t.Errorf("Missing provenance fields: %+v", opp)
	}

	if len(trends.queries) != 1 || trends.queries[0][0] != "invoice automation" {
		t.Errorf("Trends collector got wrong queries: %v", trends.queries)
	}
}

func TestValidator_LLMFailureStillYieldsOneRecordPerSignal(t *testing.T) {
	client := &scriptedClient{err: fmt.Errorf("api down")}

	v := newValidator(client, Collectors{})

	signals := make([]signal.Signal, 5)
	for i := range signals {
		signals[i] = signal.Signal{
			ID:     fmt.Sprintf("ask_hn:%d", i+1),
			Source: signal.SourceAskHN,
			Title:  fmt.Sprintf("Problem %d", i+1),
		}
	}

	out := v.Validate(context.Background(), signals)

	if len(out) != 5 {
		t.Fatalf("Expected 5 records despite LLM failure, got %d", len(out))
	}
	for _, opp := range out {
		if len(opp.OpportunityTypes) != 1 || opp.OpportunityTypes[0] != signal.DefaultOpportunityType {
			t.Errorf("Expected default opportunity type, got %v", opp.OpportunityTypes)
		}
		if opp.Narrative == "" {
			t.Error("Expected a fallback narrative, got empty string")
		}
		if !strings.Contains(opp.Narrative, "Assessment:") {
			t.Errorf("Fallback narrative missing assessment: %q", opp.Narrative)
		}
	}
}

func TestValidator_DisabledSourcesReadNoQueries(t *testing.T) {
	client := &scriptedClient{err: fmt.Errorf("api down")}

	v := newValidator(client, Collectors{})

	out := v.Validate(context.Background(), []signal.Signal{{ID: "ask_hn:1", Source: signal.SourceAskHN}})

	opp := out[0]
	for name, ev := range map[string]signal.EvidenceSummary{
		"trends": opp.TrendsEvidence,
		"ph":     opp.ProductHuntEvidence,
		"github": opp.GithubEvidence,
	} {
		if ev.Status != signal.EvidenceNoQueries {
			t.Errorf("Expected %s evidence to be no_queries, got %s", name, ev.Status)
		}
		if ev.Supporting {
			t.Errorf("Disabled %s source must not support", name)
		}
		if ev.Items == nil || len(ev.Items) != 0 {
			t.Errorf("Expected empty item list for %s, got %v", name, ev.Items)
		}
	}
	if opp.SourcesConfirming != 0 || opp.Confidence != signal.ConfidenceLow {
		t.Errorf("Expected 0 sources / low for weak signal, got %d / %s",
			opp.SourcesConfirming, opp.Confidence)
	}
}

func TestValidator_SynthesisFailureDoesNotChangeConfidence(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`[{
			"signal_index": 0,
			"opportunity_types": ["developer-tooling"],
			"opportunity_title": "Some tool",
			"queries": {"google_trends": ["q"], "producthunt": ["q"], "github": ["q"]}
		}]`,
		"not json", "still not json",
	}}

	trends := &fakeCollector{ev: signal.EvidenceSummary{
		Status:    signal.EvidenceOK,
		Direction: signal.DirectionRising,
		Items:     []signal.EvidenceItem{{Label: "q", Score: 30}},
	}}
	github := &fakeCollector{ev: okEvidence("a/b", 100)}

	v := newValidator(client, Collectors{Trends: trends, Github: github})

	out := v.Validate(context.Background(), []signal.Signal{{
		ID: "ask_hn:1", Source: signal.SourceAskHN, Score: 5, Comments: 1,
	}})

	opp := out[0]
	if opp.SourcesConfirming != 2 || opp.Confidence != signal.ConfidenceHigh {
		t.Errorf("Confidence must come from the reducer alone, got %d / %s",
			opp.SourcesConfirming, opp.Confidence)
	}
	if !strings.HasSuffix(opp.Narrative, "Assessment: 2 sources confirming, High confidence opportunity.") {
		t.Errorf("Expected deterministic fallback narrative, got %q", opp.Narrative)
	}
}

func TestValidator_EmptyInput(t *testing.T) {
	v := newValidator(&scriptedClient{}, Collectors{})

	if out := v.Validate(context.Background(), nil); len(out) != 0 {
		t.Errorf("Expected no output for no input, got %d", len(out))
	}
}
