package source

import (
	"fmt"
	"net/http"

	"github.com/buildsignals/buildsignals/app/signal"
)

// Credentials carries the optional upstream API tokens.
type Credentials struct {
	ProductHuntToken string
}

// NewFetcher builds the fetcher matching a source config's type.
func NewFetcher(config *Config, httpClient *http.Client, creds Credentials, userAgent string) (Fetcher, error) {
	switch config.Type {
	case signal.SourceAskHN, signal.SourceShowHN:
		return NewHackerNewsFetcher(config, httpClient, userAgent), nil
	case signal.SourceProductHunt:
		return NewProductHuntFetcher(config, httpClient, creds.ProductHuntToken, userAgent), nil
	case signal.SourceGithubTrending:
		return NewGithubTrendingFetcher(config, httpClient, userAgent), nil
	case signal.SourceRSS:
		return NewRSSFetcher(config, httpClient, userAgent), nil
	default:
		return nil, fmt.Errorf("no fetcher for source type %q", config.Type)
	}
}
