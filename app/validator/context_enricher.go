package validator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability"

	"github.com/buildsignals/buildsignals/app/signal"
)

const maxContextChars = 1200

// ContextEnricher fills in descriptive text for signals that point at
// an external page but carry no text of their own, typically Show HN
// launches. The page is reduced to readable prose so the classifier
// has something to work with beyond the title.
type ContextEnricher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewContextEnricher(httpClient *http.Client, userAgent string, timeout time.Duration) *ContextEnricher {
	return &ContextEnricher{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Enrich returns the signal with Text populated from its external URL
// when possible. Fetch or extraction failures leave the signal as-is.
func (e *ContextEnricher) Enrich(ctx context.Context, s signal.Signal) signal.Signal {
	if s.Text != "" || s.ExternalURL == "" {
		return s
	}

	text, err := e.extract(ctx, s.ExternalURL)
	if err != nil {
		slog.Debug("Context extraction skipped", "id", s.ID, "url", s.ExternalURL, "error", err)
		return s
	}

	s.Text = text
	return s
}

func (e *ContextEnricher) extract(ctx context.Context, pageURL string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	article, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		text = strings.TrimSpace(article.Excerpt)
	}
	if text == "" {
		return "", fmt.Errorf("no readable content at %s", pageURL)
	}

	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > maxContextChars {
		text = string(runes[:maxContextChars]) + "..."
	}

	return text, nil
}
