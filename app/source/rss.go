package source

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/buildsignals/buildsignals/app/signal"
)

// RSSFetcher turns an arbitrary RSS/Atom feed into signals, for
// operator-added sources beyond the built-in ones. Feed items carry no
// engagement metrics, so the reducer treats them as weak by default.
type RSSFetcher struct {
	config       *Config
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
}

func NewRSSFetcher(config *Config, httpClient *http.Client, userAgent string) *RSSFetcher {
	return &RSSFetcher{
		config:       config,
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
	}
}

func (f *RSSFetcher) Fetch(ctx context.Context) ([]signal.Signal, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(f.config.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", f.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return f.parse(data)
}

func (f *RSSFetcher) parse(data []byte) ([]signal.Signal, error) {
	feed, err := f.gofeedParser.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	signals := make([]signal.Signal, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(signals) >= f.config.Settings.MaxItems {
			break
		}

		createdAt := time.Now().UTC()
		if item.PublishedParsed != nil {
			createdAt = item.PublishedParsed.UTC()
		}

		var author string
		if item.Author != nil {
			author = item.Author.Name
		}

		signals = append(signals, signal.Signal{
			ID:        fmt.Sprintf("%s:%s:%s", signal.SourceRSS, f.config.Name, cmp.Or(item.GUID, item.Link)),
			Source:    signal.SourceRSS,
			Title:     item.Title,
			URL:       item.Link,
			Author:    author,
			Text:      cmp.Or(item.Description, item.Content),
			CreatedAt: createdAt,
		})
	}

	return signals, nil
}
