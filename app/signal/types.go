package signal

import (
	"time"
)

// Source identifies the upstream feed a signal was fetched from.
type Source string

const (
	SourceAskHN          Source = "ask_hn"
	SourceShowHN         Source = "show_hn"
	SourceProductHunt    Source = "product_hunt"
	SourceGithubTrending Source = "github_trending"
	SourceRSS            Source = "rss"
)

// EvidenceStatus describes the outcome of one collector run.
type EvidenceStatus string

const (
	EvidenceOK        EvidenceStatus = "ok"
	EvidenceNoData    EvidenceStatus = "no_data"
	EvidenceNoQueries EvidenceStatus = "no_queries"
	EvidenceError     EvidenceStatus = "error"
)

// Direction is the trend indicator derived from interest-over-time data.
type Direction string

const (
	DirectionRising  Direction = "rising"
	DirectionFlat    Direction = "flat"
	DirectionFalling Direction = "falling"
	DirectionNone    Direction = ""
)

// Confidence is the discrete label produced by the reducer.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// OpportunityTypes is the closed vocabulary used by the classifier.
var OpportunityTypes = []string{
	"developer-tooling",
	"demographic-market-gap",
	"infrastructure-need",
	"workflow-inefficiency",
	"emerging-category",
}

// DefaultOpportunityType is used when classification fails entirely.
const DefaultOpportunityType = "workflow-inefficiency"

type Signal struct {
	ID          string    `json:"id"` // "<source>:<source-local id>"
	Source      Source    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	ExternalURL string    `json:"external_url,omitempty"`
	Author      string    `json:"author,omitempty"`
	Text        string    `json:"text,omitempty"`
	Score       int       `json:"score"`
	Comments    int       `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`

	// Scoring enrichment, populated by the scorer stage.
	RelevanceScore   int    `json:"relevance_score,omitempty"`
	ContentPotential int    `json:"content_potential,omitempty"`
	Category         string `json:"category,omitempty"`
	OneLineHook      string `json:"one_line_hook,omitempty"`
	KeyInsight       string `json:"key_insight,omitempty"`
}

// CombinedScore orders signals for top-N selection before validation.
func (s Signal) CombinedScore() int {
	return s.RelevanceScore + s.ContentPotential
}

type EvidenceItem struct {
	Label  string `json:"label"`
	Score  int    `json:"score"` // stars, votes or interest, per source
	URL    string `json:"url,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type EvidenceSummary struct {
	Status     EvidenceStatus `json:"status"`
	Items      []EvidenceItem `json:"items"`
	Direction  Direction      `json:"direction,omitempty"`
	Summary    string         `json:"summary"`
	Supporting bool           `json:"supporting"`
}

// QuerySet holds the buyer-intent queries generated per evidence source.
type QuerySet struct {
	Trends      []string `json:"trends"`
	ProductHunt []string `json:"product_hunt"`
	Github      []string `json:"github"`
}

// BuildStarter is the optional structured block produced by the synthesizer.
type BuildStarter struct {
	Problem      string `json:"problem,omitempty"`
	TargetUser   string `json:"target_user,omitempty"`
	MinimalScope string `json:"minimal_scope,omitempty"`
	Stack        string `json:"stack,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// ContentDraft is one generated tweet draft for a scored signal.
type ContentDraft struct {
	SignalID         string    `json:"signal_id"`
	Source           Source    `json:"source"`
	Category         string    `json:"category,omitempty"`
	Hook             string    `json:"hook"`
	FullDraft        string    `json:"full_draft"`
	WordCount        int       `json:"word_count"`
	GeneratedAt      time.Time `json:"generated_at"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes,omitempty"`
	Model            string    `json:"model_used"`
	SignalTitle      string    `json:"signal_title"`
	SignalURL        string    `json:"signal_url"`
	RelevanceScore   int       `json:"relevance_score"`
	ContentPotential int       `json:"content_potential"`
}

type ValidatedOpportunity struct {
	ID             string `json:"id"` // "val:<signal id>"
	SignalID       string `json:"signal_id"`
	Title          string `json:"title"` // opportunity title, not the signal title
	SignalTitle    string `json:"signal_title"`
	SignalURL      string `json:"signal_url"`
	SignalSource   Source `json:"signal_source"`
	SignalScore    int    `json:"signal_score"`
	SignalComments int    `json:"signal_comments"`

	OpportunityTypes []string `json:"opportunity_types"`
	Queries          QuerySet `json:"queries"`

	TrendsEvidence      EvidenceSummary `json:"evidence_trends"`
	ProductHuntEvidence EvidenceSummary `json:"evidence_product_hunt"`
	GithubEvidence      EvidenceSummary `json:"evidence_github"`

	SourcesConfirming int        `json:"sources_confirming"`
	Confidence        Confidence `json:"confidence"`

	Narrative    string        `json:"narrative"`
	OneLineHook  string        `json:"one_line_hook,omitempty"`
	KeyInsight   string        `json:"key_insight,omitempty"`
	BuildStarter *BuildStarter `json:"build_starter,omitempty"`

	ValidatedAt time.Time `json:"validated_at"`
	Model       string    `json:"model"`
}
