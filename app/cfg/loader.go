package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./buildsignals.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	DataDir           string `long:"data-dir" env:"DATA_DIR" default:"./runs" description:"Directory for JSONL input/output files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for pipeline tasks"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Validation pipeline
	ImportSignals       string `long:"import-signals" env:"IMPORT_SIGNALS" description:"JSONL file of previously scored signals to import at startup"`
	TopN                int    `long:"top-n" env:"TOP_N" default:"15" description:"Number of top scored signals to validate per run"`
	BatchSize           int    `long:"batch-size" env:"BATCH_SIZE" default:"5" description:"Signals per LLM API call"`
	DraftTopN           int    `long:"draft-top-n" env:"DRAFT_TOP_N" default:"5" description:"Number of top scored signals to draft tweets for per run"`
	TrendsDisabled      bool   `long:"no-trends" env:"NO_TRENDS" description:"Disable the search-trend evidence source"`
	ProductHuntDisabled bool   `long:"no-producthunt" env:"NO_PRODUCTHUNT" description:"Disable the product directory evidence source"`
	GithubDisabled      bool   `long:"no-github" env:"NO_GITHUB" description:"Disable the code-hosting evidence source"`

	// Credentials
	AnthropicAPIKey  string `long:"anthropic-api-key" env:"ANTHROPIC_API_KEY" description:"Anthropic API key (required)"`
	GithubToken      string `long:"github-token" env:"GITHUB_TOKEN" description:"GitHub token for repository search (optional)"`
	ProductHuntToken string `long:"ph-token" env:"PH_TOKEN" description:"Product Hunt API token (optional, falls back to local data)"`

	// LLM
	Model      string `long:"model" env:"LLM_MODEL" default:"claude-sonnet-4-20250514" description:"Model used for scoring, classification and synthesis"`
	LLMTimeout int    `long:"llm-timeout" env:"LLM_TIMEOUT" default:"60" description:"Per-call LLM timeout in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Build Signals/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		SourcesDir:         raw.SourcesDir,
		DataDir:            raw.DataDir,
		Port:               raw.Port,
		WorkerCount:        raw.WorkerCount,
		SchedulerInterval:  raw.SchedulerInterval,
		APIAccessKey:       raw.APIAccessKey,
		ImportSignals:      raw.ImportSignals,
		TopN:               raw.TopN,
		BatchSize:          raw.BatchSize,
		DraftTopN:          raw.DraftTopN,
		TrendsEnabled:      !raw.TrendsDisabled,
		ProductHuntEnabled: !raw.ProductHuntDisabled,
		GithubEnabled:      !raw.GithubDisabled,
		AnthropicAPIKey:    raw.AnthropicAPIKey,
		GithubToken:        raw.GithubToken,
		ProductHuntToken:   raw.ProductHuntToken,
		Model:              raw.Model,
		LLMTimeout:         raw.LLMTimeout,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// validate fails fast on missing mandatory credentials. Evidence-source
// tokens are optional (collectors degrade), the LLM key is not.
func validate(cfg *Cfg) error {
	if cfg.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required for scoring and validation")
	}
	if cfg.TopN <= 0 {
		return fmt.Errorf("top-n must be positive")
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be positive")
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
