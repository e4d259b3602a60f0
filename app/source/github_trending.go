package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/buildsignals/buildsignals/app/signal"
)

const githubTrendingURL = "https://github.com/trending"

// GithubTrendingFetcher scrapes the GitHub trending page. There is no
// official API for it; the selectors follow the page markup.
type GithubTrendingFetcher struct {
	config     *Config
	httpClient *http.Client
	userAgent  string
	baseURL    string
}

func NewGithubTrendingFetcher(config *Config, httpClient *http.Client, userAgent string) *GithubTrendingFetcher {
	return &GithubTrendingFetcher{
		config:     config,
		httpClient: httpClient,
		userAgent:  userAgent,
		baseURL:    githubTrendingURL,
	}
}

func (f *GithubTrendingFetcher) Fetch(ctx context.Context) ([]signal.Signal, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(f.config.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", f.baseURL+"?since=daily", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trending page: %w", err)
	}

	return f.parseDocument(doc), nil
}

func (f *GithubTrendingFetcher) parseDocument(doc *goquery.Document) []signal.Signal {
	now := time.Now().UTC()
	signals := make([]signal.Signal, 0)

	doc.Find("article.Box-row").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(signals) >= f.config.Settings.MaxItems {
			return false
		}

		href, ok := s.Find("h2 a").Attr("href")
		if !ok {
			return true
		}
		parts := strings.Split(strings.Trim(href, "/"), "/")
		if len(parts) != 2 {
			return true
		}
		fullName := parts[0] + "/" + parts[1]

		description := strings.TrimSpace(s.Find("p").First().Text())
		language := strings.TrimSpace(s.Find("[itemprop='programmingLanguage']").First().Text())

		stars := 0
		s.Find("a.Link--muted").Each(func(_ int, link *goquery.Selection) {
			linkHref, _ := link.Attr("href")
			if strings.Contains(linkHref, "/stargazers") {
				stars = parseCount(link.Text())
			}
		})

		starsToday := 0
		todayText := s.Find("span.d-inline-block.float-sm-right").First().Text()
		if idx := strings.Index(todayText, " star"); idx > 0 {
			starsToday = parseCount(todayText[:idx])
		}

		text := description
		if language != "" {
			text = fmt.Sprintf("%s (%s, %d stars)", description, language, stars)
		}

		signals = append(signals, signal.Signal{
			ID:        fmt.Sprintf("%s:%s", signal.SourceGithubTrending, fullName),
			Source:    signal.SourceGithubTrending,
			Title:     fullName,
			URL:       "https://github.com/" + fullName,
			Author:    parts[0],
			Text:      text,
			Score:     starsToday,
			Comments:  0,
			CreatedAt: now,
		})
		return true
	})

	return signals
}

// parseCount parses "1,200" or "350" style counters from the page.
func parseCount(text string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}
