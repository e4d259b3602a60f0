package source

import (
	"context"

	"github.com/buildsignals/buildsignals/app/signal"
)

// Config is one source configuration file under the sources directory.
// The source name is derived from the filename (without .yml extension).
type Config struct {
	Name       string                      // derived from filename
	Type       signal.Source               `yaml:"type"`
	URL        string                      `yaml:"url"` // rss sources only
	Settings   ConfigSettings              `yaml:"settings"`
	Validation signal.EngagementThresholds `yaml:"validation"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`
	Timeout         int  `yaml:"timeout"` // seconds
	MinVotes        int  `yaml:"min_votes"`
	LookbackDays    int  `yaml:"lookback_days"` // product_hunt only
}

// Fetcher produces normalized signals from one upstream feed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]signal.Signal, error)
}
