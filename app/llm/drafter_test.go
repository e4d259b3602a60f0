package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/buildsignals/buildsignals/app/signal"
)

func draftWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func draftResponse(hook string, wordTotal int) string {
	return fmt.Sprintf(`{"hook": %q, "full_draft": %q}`, hook, draftWords(wordTotal))
}

func scoredSignal() signal.Signal {
	return signal.Signal{
		ID:               "ask_hn:1",
		Source:           signal.SourceAskHN,
		Title:            "Ask HN: Why is invoicing still manual?",
		URL:              "https://news.ycombinator.com/item?id=1",
		Score:            120,
		Category:         "pain-point",
		OneLineHook:      "invoicing is still broken",
		KeyInsight:       "Lots of demand, no product.",
		RelevanceScore:   8,
		ContentPotential: 9,
	}
}

func TestDrafter_GeneratesDraft(t *testing.T) {
	client := &fakeClient{responses: []string{draftResponse("nobody automates invoices", 240)}}
	drafter := NewDrafter(client)

	draft, err := drafter.Draft(context.Background(), scoredSignal())
	if err != nil {
		t.Fatalf("Expected draft, got error: %v", err)
	}

	if draft.Hook != "nobody automates invoices" {
		t.Errorf("Unexpected hook: %q", draft.Hook)
	}
	if draft.WordCount != 240 {
		t.Errorf("Expected word count 240, got %d", draft.WordCount)
	}
	if draft.SignalID != "ask_hn:1" || draft.Status != "draft" || draft.Model != "test-model" {
		t.Errorf("Provenance fields wrong: %+v", draft)
	}
	if draft.RelevanceScore != 8 || draft.ContentPotential != 9 {
		t.Errorf("Scores not carried over: %+v", draft)
	}
	if draft.GeneratedAt.IsZero() {
		t.Error("Expected generated_at to be set")
	}
	if client.calls != 1 {
		t.Errorf("Expected 1 call, got %d", client.calls)
	}
}

func TestDrafter_RegeneratesWhenWordCountOutOfRange(t *testing.T) {
	client := &fakeClient{responses: []string{
		draftResponse("too short", 40),
		draftResponse("proper length", 220),
	}}
	drafter := NewDrafter(client)

	draft, err := drafter.Draft(context.Background(), scoredSignal())
	if err != nil {
		t.Fatalf("Expected draft, got error: %v", err)
	}

	if client.calls != 2 {
		t.Errorf("Expected a regeneration call, got %d calls", client.calls)
	}
	if draft.Hook != "proper length" || draft.WordCount != 220 {
		t.Errorf("Expected the regenerated draft, got %+v", draft)
	}
}

func TestDrafter_SecondAttemptAcceptedAsIs(t *testing.T) {
	client := &fakeClient{responses: []string{
		draftResponse("short one", 40),
		draftResponse("still short", 50),
	}}
	drafter := NewDrafter(client)

	draft, err := drafter.Draft(context.Background(), scoredSignal())
	if err != nil {
		t.Fatalf("Expected draft, got error: %v", err)
	}
	if draft.WordCount != 50 {
		t.Errorf("Expected second attempt kept regardless of length, got %d words", draft.WordCount)
	}
}

func TestDrafter_APIErrorFails(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("rate limited")}
	drafter := NewDrafter(client)

	if _, err := drafter.Draft(context.Background(), scoredSignal()); err == nil {
		t.Error("Expected error when the API call fails")
	}
	if client.calls != 1 {
		t.Errorf("API errors must not be retried, got %d calls", client.calls)
	}
}

func TestDrafter_EmptyDraftFails(t *testing.T) {
	client := &fakeClient{responses: []string{`{"hook": "x", "full_draft": ""}`}}
	drafter := NewDrafter(client)

	if _, err := drafter.Draft(context.Background(), scoredSignal()); err == nil {
		t.Error("Expected error for an empty draft")
	}
}
