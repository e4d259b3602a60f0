package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

const productHuntAPIURL = "https://api.producthunt.com/v2/api/graphql"

const productHuntPostsQuery = `
query GetPosts($first: Int!, $postedAfter: DateTime) {
  posts(first: $first, postedAfter: $postedAfter, order: VOTES) {
    edges {
      node {
        id
        name
        tagline
        description
        url
        votesCount
        commentsCount
        createdAt
      }
    }
  }
}`

// ProductHuntFetcher pulls recent launches ordered by votes from the
// Product Hunt GraphQL API.
type ProductHuntFetcher struct {
	config     *Config
	httpClient *http.Client
	token      string
	userAgent  string
	apiURL     string
}

func NewProductHuntFetcher(config *Config, httpClient *http.Client, token, userAgent string) *ProductHuntFetcher {
	return &ProductHuntFetcher{
		config:     config,
		httpClient: httpClient,
		token:      token,
		userAgent:  userAgent,
		apiURL:     productHuntAPIURL,
	}
}

type phPostsResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node struct {
					ID            string `json:"id"`
					Name          string `json:"name"`
					Tagline       string `json:"tagline"`
					Description   string `json:"description"`
					URL           string `json:"url"`
					VotesCount    int    `json:"votesCount"`
					CommentsCount int    `json:"commentsCount"`
					CreatedAt     string `json:"createdAt"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (f *ProductHuntFetcher) Fetch(ctx context.Context) ([]signal.Signal, error) {
	if f.token == "" {
		return nil, fmt.Errorf("product hunt token not configured")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(f.config.Settings.Timeout)*time.Second)
	defer cancel()

	postedAfter := time.Now().UTC().AddDate(0, 0, -f.config.Settings.LookbackDays).Format("2006-01-02")

	first := f.config.Settings.MaxItems
	if first > 100 {
		first = 100 // API page limit
	}

	body, err := json.Marshal(map[string]interface{}{
		"query": productHuntPostsQuery,
		"variables": map[string]interface{}{
			"first":       first,
			"postedAfter": postedAfter,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", f.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var parsed phPostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL error: %s", parsed.Errors[0].Message)
	}

	signals := make([]signal.Signal, 0, len(parsed.Data.Posts.Edges))
	for _, edge := range parsed.Data.Posts.Edges {
		node := edge.Node
		if node.VotesCount < f.config.Settings.MinVotes {
			continue
		}

		createdAt := time.Now().UTC()
		if ts, err := time.Parse(time.RFC3339, node.CreatedAt); err == nil {
			createdAt = ts.UTC()
		}

		signals = append(signals, signal.Signal{
			ID:        fmt.Sprintf("%s:%s", signal.SourceProductHunt, node.ID),
			Source:    signal.SourceProductHunt,
			Title:     node.Name + " - " + node.Tagline,
			URL:       node.URL,
			Text:      node.Description,
			Score:     node.VotesCount,
			Comments:  node.CommentsCount,
			CreatedAt: createdAt,
		})
	}

	return signals, nil
}
