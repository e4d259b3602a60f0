package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

const githubSearchURL = "https://api.github.com/search/repositories"

// GithubCollector searches repositories matching the generated queries,
// ordered by stars. A populated result suggests builders are already
// working in the space.
type GithubCollector struct {
	httpClient *http.Client
	token      string
	userAgent  string
	timeout    time.Duration
	baseURL    string
}

func NewGithubCollector(httpClient *http.Client, token, userAgent string, timeout time.Duration) *GithubCollector {
	return &GithubCollector{
		httpClient: httpClient,
		token:      token,
		userAgent:  userAgent,
		timeout:    timeout,
		baseURL:    githubSearchURL,
	}
}

type githubSearchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		FullName        string `json:"full_name"`
		StargazersCount int    `json:"stargazers_count"`
		Description     string `json:"description"`
		HTMLURL         string `json:"html_url"`
		Language        string `json:"language"`
	} `json:"items"`
}

func (c *GithubCollector) Collect(ctx context.Context, queries []string) signal.EvidenceSummary {
	if len(queries) == 0 {
		return noQueries()
	}

	seen := make(map[string]bool)
	var items []signal.EvidenceItem
	failed := 0

	for _, q := range capQueries(queries) {
		result, err := c.search(ctx, q)
		if err != nil {
			slog.Warn("GitHub search failed", "query", q, "error", err)
			failed++
			continue
		}

		for _, repo := range result.Items {
			if repo.FullName == "" || seen[repo.FullName] {
				continue
			}
			seen[repo.FullName] = true

			detail := repo.Description
			if repo.Language != "" {
				detail = fmt.Sprintf("%s (%s)", repo.Description, repo.Language)
			}
			items = append(items, signal.EvidenceItem{
				Label:  repo.FullName,
				Score:  repo.StargazersCount,
				URL:    repo.HTMLURL,
				Detail: detail,
			})
		}
	}

	if failed == len(capQueries(queries)) {
		return collectorError()
	}
	if len(items) == 0 {
		return noData()
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return signal.EvidenceSummary{Status: signal.EvidenceOK, Items: items}
}

func (c *GithubCollector) search(ctx context.Context, query string) (*githubSearchResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("per_page", "5")

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var parsed githubSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &parsed, nil
}
