package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

const hackerNewsBaseURL = "https://hacker-news.firebaseio.com/v0"

// HackerNewsFetcher pulls Ask HN or Show HN stories from the Firebase
// API, one item request per story ID.
type HackerNewsFetcher struct {
	config     *Config
	httpClient *http.Client
	userAgent  string
	baseURL    string
}

func NewHackerNewsFetcher(config *Config, httpClient *http.Client, userAgent string) *HackerNewsFetcher {
	return &HackerNewsFetcher{
		config:     config,
		httpClient: httpClient,
		userAgent:  userAgent,
		baseURL:    hackerNewsBaseURL,
	}
}

type hnItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	By          string `json:"by"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Text        string `json:"text"`
	Time        int64  `json:"time"`
	Type        string `json:"type"`
	Dead        bool   `json:"dead"`
	Deleted     bool   `json:"deleted"`
}

func (f *HackerNewsFetcher) Fetch(ctx context.Context) ([]signal.Signal, error) {
	storyType := "ask"
	if f.config.Type == signal.SourceShowHN {
		storyType = "show"
	}

	var ids []int
	if err := f.getJSON(ctx, fmt.Sprintf("%s/%sstories.json", f.baseURL, storyType), &ids); err != nil {
		return nil, fmt.Errorf("failed to fetch %s story IDs: %w", storyType, err)
	}

	if len(ids) > f.config.Settings.MaxItems {
		ids = ids[:f.config.Settings.MaxItems]
	}

	signals := make([]signal.Signal, 0, len(ids))
	for _, id := range ids {
		var item hnItem
		if err := f.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", f.baseURL, id), &item); err != nil {
			slog.Warn("Failed to fetch HN item, skipping", "id", id, "error", err)
			continue
		}
		if item.Deleted || item.Dead || item.Title == "" {
			continue
		}
		if item.Score < f.config.Settings.MinVotes {
			continue
		}
		signals = append(signals, f.toSignal(item))
	}

	return signals, nil
}

func (f *HackerNewsFetcher) toSignal(item hnItem) signal.Signal {
	return signal.Signal{
		ID:          fmt.Sprintf("%s:%d", f.config.Type, item.ID),
		Source:      f.config.Type,
		Title:       item.Title,
		URL:         fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID),
		ExternalURL: item.URL,
		Author:      item.By,
		Text:        item.Text,
		Score:       item.Score,
		Comments:    item.Descendants,
		CreatedAt:   time.Unix(item.Time, 0).UTC(),
	}
}

func (f *HackerNewsFetcher) getJSON(ctx context.Context, url string, out interface{}) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(f.config.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
