package database

import (
	"github.com/buildsignals/buildsignals/app/signal"
)

// SourceStats is one row of the per-source dashboard breakdown.
type SourceStats struct {
	Source signal.Source `json:"source"`
	Count  int           `json:"count"`
	Scored int           `json:"scored"`
}

// OpportunityStats summarizes the opportunities table for the dashboard.
type OpportunityStats struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type SignalRepository interface {
	UpsertSignals(signals []signal.Signal) (int, error)
	GetSignal(id string) (*signal.Signal, error)
	ListSignals(source signal.Source, limit int) ([]signal.Signal, error)
	ListUnscoredSignals(limit int) ([]signal.Signal, error)
	TopScoredSignals(minRelevance, minContent, limit int) ([]signal.Signal, error)
	GetSignalCount() (int, error)
	GetSourceStats() ([]SourceStats, error)
}

type OpportunityRepository interface {
	UpsertOpportunities(opportunities []signal.ValidatedOpportunity) (int, error)
	GetOpportunity(id string) (*signal.ValidatedOpportunity, error)
	ListOpportunities(confidence signal.Confidence, limit int) ([]signal.ValidatedOpportunity, error)
	GetOpportunityStats() (OpportunityStats, error)
}
