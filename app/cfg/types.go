package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Application
	SourcesDir        string
	DataDir           string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Validation pipeline
	ImportSignals      string
	TopN               int
	BatchSize          int
	DraftTopN          int
	TrendsEnabled      bool
	ProductHuntEnabled bool
	GithubEnabled      bool

	// Credentials
	AnthropicAPIKey  string
	GithubToken      string
	ProductHuntToken string

	// LLM
	Model      string
	LLMTimeout int // seconds

	// Metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
