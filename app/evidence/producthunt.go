package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

const productHuntAPIURL = "https://api.producthunt.com/v2/api/graphql"

const productHuntSearchQuery = `
query SearchPosts($query: String!) {
  posts(order: VOTES, search: $query, first: 5) {
    edges {
      node {
        name
        tagline
        votesCount
        url
      }
    }
  }
}`

// ProductHuntCollector searches the launch directory for products in
// the opportunity's space. Without a token it falls back to keyword
// matching against a previously fetched local JSONL snapshot.
type ProductHuntCollector struct {
	httpClient   *http.Client
	token        string
	userAgent    string
	timeout      time.Duration
	apiURL       string
	fallbackPath string
}

func NewProductHuntCollector(httpClient *http.Client, token, userAgent string, timeout time.Duration, fallbackPath string) *ProductHuntCollector {
	return &ProductHuntCollector{
		httpClient:   httpClient,
		token:        token,
		userAgent:    userAgent,
		timeout:      timeout,
		apiURL:       productHuntAPIURL,
		fallbackPath: fallbackPath,
	}
}

type phSearchResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node struct {
					Name       string `json:"name"`
					Tagline    string `json:"tagline"`
					VotesCount int    `json:"votesCount"`
					URL        string `json:"url"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
}

func (c *ProductHuntCollector) Collect(ctx context.Context, queries []string) signal.EvidenceSummary {
	if len(queries) == 0 {
		return noQueries()
	}

	if c.token != "" {
		summary := c.collectAPI(ctx, queries)
		if summary.Status == signal.EvidenceOK {
			return summary
		}
		// API reachable but empty, or all calls failed: try the local
		// snapshot before reporting the degraded status.
		if fallback := c.collectFallback(queries); fallback.Status == signal.EvidenceOK {
			return fallback
		}
		return summary
	}

	if c.fallbackPath != "" {
		return c.collectFallback(queries)
	}

	return collectorError()
}

func (c *ProductHuntCollector) collectAPI(ctx context.Context, queries []string) signal.EvidenceSummary {
	var items []signal.EvidenceItem
	seen := make(map[string]bool)
	failed := 0

	for _, q := range capQueries(queries) {
		edges, err := c.search(ctx, q)
		if err != nil {
			slog.Warn("Product Hunt search failed", "query", q, "error", err)
			failed++
			continue
		}

		for _, edge := range edges.Data.Posts.Edges {
			node := edge.Node
			if node.Name == "" || seen[node.Name] {
				continue
			}
			seen[node.Name] = true
			items = append(items, signal.EvidenceItem{
				Label:  node.Name,
				Score:  node.VotesCount,
				URL:    node.URL,
				Detail: node.Tagline,
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

func (c *ProductHuntCollector) search(ctx context.Context, query string) (*phSearchResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]interface{}{
		"query":     productHuntSearchQuery,
		"variables": map[string]string{"query": query},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var parsed phSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &parsed, nil
}

type phLocalProduct struct {
	Title   string `json:"title"`
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
	Votes   int    `json:"votes"`
	Score   int    `json:"score"`
	URL     string `json:"url"`
}

// collectFallback keyword-matches queries against a local product
// snapshot written by the product_hunt fetcher.
func (c *ProductHuntCollector) collectFallback(queries []string) signal.EvidenceSummary {
	data, err := os.ReadFile(c.fallbackPath)
	if err != nil {
		slog.Warn("Product Hunt fallback file unavailable", "path", c.fallbackPath, "error", err)
		return collectorError()
	}

	var products []phLocalProduct
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var p phLocalProduct
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			continue
		}
		products = append(products, p)
	}

	var items []signal.EvidenceItem
	seen := make(map[string]bool)

	for _, q := range capQueries(queries) {
		words := strings.Fields(strings.ToLower(q))
		for _, p := range products {
			name := p.Title
			if name == "" {
				name = p.Name
			}
			if name == "" || seen[name] {
				continue
			}

			haystack := strings.ToLower(name + " " + p.Tagline)
			matched := false
			for _, w := range words {
				if strings.Contains(haystack, w) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}

			seen[name] = true
			votes := p.Votes
			if votes == 0 {
				votes = p.Score
			}
			items = append(items, signal.EvidenceItem{
				Label:  name,
				Score:  votes,
				URL:    p.URL,
				Detail: p.Tagline,
			})
		}
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
