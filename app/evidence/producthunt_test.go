package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

func TestProductHuntCollector_NoQueries(t *testing.T) {
	c := NewProductHuntCollector(nil, "token", "test-agent", 5*time.Second, "")

	ev := c.Collect(context.Background(), []string{})

	if ev.Status != signal.EvidenceNoQueries {
		t.Errorf("Expected no_queries, got %s", ev.Status)
	}
	if len(ev.Items) != 0 {
		t.Errorf("Expected empty items, got %d", len(ev.Items))
	}
}

func TestProductHuntCollector_APISearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Expected bearer token header, got %q", r.Header.Get("Authorization"))
		}
		fmt.Fprint(w, `{"data":{"posts":{"edges":[
			{"node":{"name":"InvoiceBot","tagline":"Invoices on autopilot","votesCount":312,"url":"https://producthunt.com/posts/invoicebot"}},
			{"node":{"name":"BillFlow","tagline":"Billing for agencies","votesCount":95,"url":"https://producthunt.com/posts/billflow"}}
		]}}}`)
	}))
	defer server.Close()

	c := NewProductHuntCollector(server.Client(), "test-token", "test-agent", 5*time.Second, "")
	c.apiURL = server.URL

	ev := c.Collect(context.Background(), []string{"invoice automation"})

	if ev.Status != signal.EvidenceOK {
		t.Fatalf("Expected ok status, got %s", ev.Status)
	}
	if len(ev.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(ev.Items))
	}
	if ev.Items[0].Label != "InvoiceBot" || ev.Items[0].Score != 312 {
		t.Errorf("Expected InvoiceBot with 312 votes first, got %+v", ev.Items[0])
	}
}

func TestProductHuntCollector_LocalFallback(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "product_hunt.jsonl")
	lines := `{"title":"InvoiceBot","tagline":"Invoices on autopilot","votes":312,"url":"https://producthunt.com/posts/invoicebot"}
{"title":"Unrelated Game","tagline":"A game about frogs","votes":40}
not json at all
`
	if err := os.WriteFile(fallback, []byte(lines), 0644); err != nil {
		t.Fatalf("Failed to write fallback file: %v", err)
	}

	c := NewProductHuntCollector(nil, "", "test-agent", 5*time.Second, fallback)

	ev := c.Collect(context.Background(), []string{"invoice automation"})

	if ev.Status != signal.EvidenceOK {
		t.Fatalf("Expected ok status from fallback, got %s", ev.Status)
	}
	if len(ev.Items) != 1 {
		t.Fatalf("Expected 1 keyword match, got %d", len(ev.Items))
	}
	if ev.Items[0].Label != "InvoiceBot" {
		t.Errorf("Expected InvoiceBot, got %q", ev.Items[0].Label)
	}
}

func TestProductHuntCollector_NoTokenNoFallbackIsError(t *testing.T) {
	c := NewProductHuntCollector(nil, "", "test-agent", 5*time.Second, "")

	ev := c.Collect(context.Background(), []string{"anything"})

	if ev.Status != signal.EvidenceError {
		t.Errorf("Expected error status, got %s", ev.Status)
	}
}

func TestProductHuntCollector_EmptyAPIFallsBackToLocal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"posts":{"edges":[]}}}`)
	}))
	defer server.Close()

	dir := t.TempDir()
	fallback := filepath.Join(dir, "product_hunt.jsonl")
	line := `{"title":"InvoiceBot","tagline":"Invoices on autopilot","votes":312}` + "\n"
	if err := os.WriteFile(fallback, []byte(line), 0644); err != nil {
		t.Fatalf("Failed to write fallback file: %v", err)
	}

	c := NewProductHuntCollector(server.Client(), "test-token", "test-agent", 5*time.Second, fallback)
	c.apiURL = server.URL

	ev := c.Collect(context.Background(), []string{"invoice"})

	if ev.Status != signal.EvidenceOK {
		t.Errorf("Expected fallback to rescue empty API result, got %s", ev.Status)
	}
}
