package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/buildsignals/buildsignals/app/signal"
)

type opportunityRepository struct {
	db *DB
}

func NewOpportunityRepository(db *DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

// UpsertOpportunities writes a batch of validated opportunities,
// re-validation overwriting earlier results for the same signal.
// Duplicate IDs within the batch collapse to the last occurrence.
func (r *opportunityRepository) UpsertOpportunities(opportunities []signal.ValidatedOpportunity) (int, error) {
	collapsed := collapseOpportunities(opportunities)
	if len(collapsed) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO opportunities (
			id, signal_id, title, signal_title, signal_url, signal_source,
			signal_score, signal_comments,
			opportunity_types, queries,
			evidence_trends, evidence_product_hunt, evidence_github,
			sources_confirming, confidence,
			narrative, one_line_hook, key_insight, build_starter,
			validated_at, model
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			signal_title = excluded.signal_title,
			signal_url = excluded.signal_url,
			signal_score = excluded.signal_score,
			signal_comments = excluded.signal_comments,
			opportunity_types = excluded.opportunity_types,
			queries = excluded.queries,
			evidence_trends = excluded.evidence_trends,
			evidence_product_hunt = excluded.evidence_product_hunt,
			evidence_github = excluded.evidence_github,
			sources_confirming = excluded.sources_confirming,
			confidence = excluded.confidence,
			narrative = excluded.narrative,
			one_line_hook = excluded.one_line_hook,
			key_insight = excluded.key_insight,
			build_starter = excluded.build_starter,
			validated_at = excluded.validated_at,
			model = excluded.model
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, o := range collapsed {
		types, err := json.Marshal(o.OpportunityTypes)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal opportunity types: %w", err)
		}
		queries, err := json.Marshal(o.Queries)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal queries: %w", err)
		}
		trendsEv, err := json.Marshal(o.TrendsEvidence)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal trends evidence: %w", err)
		}
		phEv, err := json.Marshal(o.ProductHuntEvidence)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal product hunt evidence: %w", err)
		}
		ghEv, err := json.Marshal(o.GithubEvidence)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal github evidence: %w", err)
		}

		var buildStarter interface{}
		if o.BuildStarter != nil {
			data, err := json.Marshal(o.BuildStarter)
			if err != nil {
				return 0, fmt.Errorf("failed to marshal build starter: %w", err)
			}
			buildStarter = string(data)
		}

		_, err = stmt.Exec(
			o.ID, o.SignalID, o.Title, o.SignalTitle, o.SignalURL, o.SignalSource,
			o.SignalScore, o.SignalComments,
			string(types), string(queries),
			string(trendsEv), string(phEv), string(ghEv),
			o.SourcesConfirming, o.Confidence,
			o.Narrative, o.OneLineHook, o.KeyInsight, buildStarter,
			o.ValidatedAt, o.Model,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert opportunity %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit opportunities: %w", err)
	}

	return len(collapsed), nil
}

func (r *opportunityRepository) GetOpportunity(id string) (*signal.ValidatedOpportunity, error) {
	row := r.db.QueryRow(opportunitySelect+` WHERE id = ?`, id)

	o, err := scanOpportunity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	return &o, nil
}

func (r *opportunityRepository) ListOpportunities(confidence signal.Confidence, limit int) ([]signal.ValidatedOpportunity, error) {
	query := opportunitySelect
	args := []interface{}{}

	if confidence != "" {
		query += ` WHERE confidence = ?`
		args = append(args, confidence)
	}
	query += `
		ORDER BY CASE confidence WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
		         sources_confirming DESC, validated_at DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []signal.ValidatedOpportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opportunities = append(opportunities, o)
	}

	return opportunities, rows.Err()
}

func (r *opportunityRepository) GetOpportunityStats() (OpportunityStats, error) {
	var stats OpportunityStats

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN confidence = 'high' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN confidence = 'medium' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN confidence = 'low' THEN 1 ELSE 0 END), 0)
		FROM opportunities
	`).Scan(&stats.Total, &stats.High, &stats.Medium, &stats.Low)
	if err != nil {
		return stats, fmt.Errorf("failed to query opportunity stats: %w", err)
	}

	return stats, nil
}

const opportunitySelect = `
	SELECT id, signal_id, title, signal_title, signal_url, signal_source,
	       signal_score, signal_comments,
	       opportunity_types, queries,
	       evidence_trends, evidence_product_hunt, evidence_github,
	       sources_confirming, confidence,
	       narrative, one_line_hook, key_insight, build_starter,
	       validated_at, model
	FROM opportunities`

func scanOpportunity(row rowScanner) (signal.ValidatedOpportunity, error) {
	var o signal.ValidatedOpportunity
	var types, queries, trendsEv, phEv, ghEv string
	var buildStarter sql.NullString
	var validatedAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.SignalID, &o.Title, &o.SignalTitle, &o.SignalURL, &o.SignalSource,
		&o.SignalScore, &o.SignalComments,
		&types, &queries,
		&trendsEv, &phEv, &ghEv,
		&o.SourcesConfirming, &o.Confidence,
		&o.Narrative, &o.OneLineHook, &o.KeyInsight, &buildStarter,
		&validatedAt, &o.Model,
	)
	if err != nil {
		return o, err
	}

	if err := json.Unmarshal([]byte(types), &o.OpportunityTypes); err != nil {
		return o, fmt.Errorf("failed to unmarshal opportunity types: %w", err)
	}
	if err := json.Unmarshal([]byte(queries), &o.Queries); err != nil {
		return o, fmt.Errorf("failed to unmarshal queries: %w", err)
	}
	if err := json.Unmarshal([]byte(trendsEv), &o.TrendsEvidence); err != nil {
		return o, fmt.Errorf("failed to unmarshal trends evidence: %w", err)
	}
	if err := json.Unmarshal([]byte(phEv), &o.ProductHuntEvidence); err != nil {
		return o, fmt.Errorf("failed to unmarshal product hunt evidence: %w", err)
	}
	if err := json.Unmarshal([]byte(ghEv), &o.GithubEvidence); err != nil {
		return o, fmt.Errorf("failed to unmarshal github evidence: %w", err)
	}
	if buildStarter.Valid && buildStarter.String != "" {
		o.BuildStarter = &signal.BuildStarter{}
		if err := json.Unmarshal([]byte(buildStarter.String), o.BuildStarter); err != nil {
			return o, fmt.Errorf("failed to unmarshal build starter: %w", err)
		}
	}
	if validatedAt.Valid {
		o.ValidatedAt = validatedAt.Time
	}

	return o, nil
}

func collapseOpportunities(opportunities []signal.ValidatedOpportunity) []signal.ValidatedOpportunity {
	index := make(map[string]int, len(opportunities))
	var collapsed []signal.ValidatedOpportunity

	for _, o := range opportunities {
		if i, ok := index[o.ID]; ok {
			collapsed[i] = o
			continue
		}
		index[o.ID] = len(collapsed)
		collapsed = append(collapsed, o)
	}

	return collapsed
}
