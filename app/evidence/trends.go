package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

const trendsBaseURL = "https://trends.google.com/trends/api"

// TrendsCollector reads search-interest time series from the unofficial
// Google Trends endpoints: an explore call yields a widget token, a
// widgetdata call yields the interest-over-time series for up to five
// keywords at once.
type TrendsCollector struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	baseURL    string
}

func NewTrendsCollector(httpClient *http.Client, userAgent string, timeout time.Duration) *TrendsCollector {
	return &TrendsCollector{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
		baseURL:    trendsBaseURL,
	}
}

type trendsExploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type trendsMultilineResponse struct {
	Default struct {
		TimelineData []struct {
			Value []int `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

type trendPoint struct {
	query    string
	interest int
	yoy      float64
}

func (c *TrendsCollector) Collect(ctx context.Context, queries []string) signal.EvidenceSummary {
	if len(queries) == 0 {
		return noQueries()
	}

	points, err := c.interestOverTime(ctx, capQueries(queries))
	if err != nil {
		slog.Warn("Google Trends lookup failed", "error", err)
		return collectorError()
	}

	// Keep queries with real search demand: moderate interest that is
	// growing, or strong interest outright.
	var items []signal.EvidenceItem
	var top *trendPoint
	for i := range points {
		p := points[i]
		if top == nil || p.interest > top.interest || (p.interest == top.interest && p.yoy > top.yoy) {
			top = &points[i]
		}
		if (p.interest >= 10 && p.yoy > 0) || p.interest >= 20 {
			items = append(items, signal.EvidenceItem{
				Label:  p.query,
				Score:  p.interest,
				Detail: fmt.Sprintf("YoY %+.0f%%", p.yoy),
			})
		}
	}

	if len(items) == 0 {
		return noData()
	}

	direction := signal.DirectionFlat
	if top != nil {
		if top.yoy > 0 {
			direction = signal.DirectionRising
		} else if top.yoy < 0 {
			direction = signal.DirectionFalling
		}
	}

	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return signal.EvidenceSummary{
		Status:    signal.EvidenceOK,
		Items:     items,
		Direction: direction,
	}
}

func (c *TrendsCollector) interestOverTime(ctx context.Context, queries []string) ([]trendPoint, error) {
	comparisonItems := make([]map[string]string, 0, len(queries))
	for _, q := range queries {
		comparisonItems = append(comparisonItems, map[string]string{
			"keyword": q,
			"geo":     "",
			"time":    "today 12-m",
		})
	}

	exploreReq, err := json.Marshal(map[string]interface{}{
		"comparisonItem": comparisonItems,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal explore request: %w", err)
	}

	var explore trendsExploreResponse
	params := url.Values{"hl": {"en-US"}, "tz": {"360"}, "req": {string(exploreReq)}}
	if err := c.getJSON(ctx, c.baseURL+"/explore?"+params.Encode(), &explore); err != nil {
		return nil, fmt.Errorf("explore call failed: %w", err)
	}

	var token string
	var widgetReq json.RawMessage
	for _, w := range explore.Widgets {
		if w.ID == "TIMESERIES" {
			token = w.Token
			widgetReq = w.Request
			break
		}
	}
	if token == "" {
		return nil, fmt.Errorf("no timeseries widget in explore response")
	}

	var multiline trendsMultilineResponse
	params = url.Values{"hl": {"en-US"}, "tz": {"360"}, "req": {string(widgetReq)}, "token": {token}}
	if err := c.getJSON(ctx, c.baseURL+"/widgetdata/multiline?"+params.Encode(), &multiline); err != nil {
		return nil, fmt.Errorf("widgetdata call failed: %w", err)
	}

	timeline := multiline.Default.TimelineData
	points := make([]trendPoint, 0, len(queries))
	for i, q := range queries {
		current, yearAgo := 0, 0
		if len(timeline) > 0 {
			if vals := timeline[len(timeline)-1].Value; i < len(vals) {
				current = vals[i]
			}
			if vals := timeline[0].Value; i < len(vals) {
				yearAgo = vals[i]
			}
		}

		var yoy float64
		if yearAgo > 0 {
			yoy = float64(current-yearAgo) / float64(yearAgo) * 100
		} else if current > 0 {
			yoy = 100
		}

		points = append(points, trendPoint{query: q, interest: current, yoy: yoy})
	}

	return points, nil
}

// getJSON fetches a trends endpoint and strips the ")]}'" anti-JSON
// prefix Google prepends to these responses.
func (c *TrendsCollector) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if idx := strings.IndexAny(string(data), "{["); idx > 0 {
		data = data[idx:]
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
