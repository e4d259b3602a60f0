package signal

import (
	"testing"
)

func TestExtractKeywords_PrefersBigrams(t *testing.T) {
	signals := []Signal{
		{Title: "Invoice automation for freelancers"},
		{Title: "Why invoice automation is still broken"},
		{Title: "Invoice automation SaaS ideas"},
	}

	keywords := ExtractKeywords(signals, 5)

	if len(keywords) == 0 {
		t.Fatalf("Expected keywords, got none")
	}
	if keywords[0] != "invoice automation" {
		t.Errorf("Expected top keyword 'invoice automation', got %q", keywords[0])
	}

	for _, kw := range keywords {
		if kw == "invoice" || kw == "automation" {
			t.Errorf("Single word %q should be covered by its bigram", kw)
		}
	}
}

func TestExtractKeywords_DropsStopWordsAndSingletons(t *testing.T) {
	signals := []Signal{
		{Title: "The best way to make things"},
		{Title: "Ask HN: what should I build"},
	}

	keywords := ExtractKeywords(signals, 10)

	// Nothing appears twice once stop words are removed.
	if len(keywords) != 0 {
		t.Errorf("Expected no keywords from non-repeating titles, got %v", keywords)
	}
}

func TestExtractKeywords_CaseInsensitive(t *testing.T) {
	signals := []Signal{
		{Title: "Postgres backups"},
		{Title: "POSTGRES backups are hard"},
	}

	keywords := ExtractKeywords(signals, 3)

	found := false
	for _, kw := range keywords {
		if kw == "postgres backups" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected case-folded bigram 'postgres backups', got %v", keywords)
	}
}

func TestExtractKeywords_RespectsLimit(t *testing.T) {
	signals := []Signal{
		{Title: "alpha beta gamma delta"},
		{Title: "alpha beta gamma delta"},
		{Title: "epsilon zeta alpha beta"},
		{Title: "epsilon zeta gamma delta"},
	}

	keywords := ExtractKeywords(signals, 2)
	if len(keywords) > 2 {
		t.Errorf("Expected at most 2 keywords, got %d", len(keywords))
	}
}
