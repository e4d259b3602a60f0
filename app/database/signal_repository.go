package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

type signalRepository struct {
	db *DB
}

func NewSignalRepository(db *DB) SignalRepository {
	return &signalRepository{db: db}
}

// UpsertSignals writes a batch of signals, inserting new rows and
// refreshing existing ones. Duplicate IDs within the batch collapse to
// the last occurrence before anything touches the database. Returns
// the number of rows written.
func (r *signalRepository) UpsertSignals(signals []signal.Signal) (int, error) {
	collapsed := collapseSignals(signals)
	if len(collapsed) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO signals (
			id, source, title, url, external_url, author, text,
			score, comments, created_at,
			relevance_score, content_potential, category, one_line_hook, key_insight,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			external_url = excluded.external_url,
			author = excluded.author,
			text = excluded.text,
			score = excluded.score,
			comments = excluded.comments,
			relevance_score = excluded.relevance_score,
			content_potential = excluded.content_potential,
			category = excluded.category,
			one_line_hook = excluded.one_line_hook,
			key_insight = excluded.key_insight,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, s := range collapsed {
		_, err := stmt.Exec(
			s.ID, s.Source, s.Title, s.URL, s.ExternalURL, s.Author, s.Text,
			s.Score, s.Comments, s.CreatedAt,
			s.RelevanceScore, s.ContentPotential, s.Category, s.OneLineHook, s.KeyInsight,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert signal %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit signals: %w", err)
	}

	return len(collapsed), nil
}

func (r *signalRepository) GetSignal(id string) (*signal.Signal, error) {
	row := r.db.QueryRow(signalSelect+` WHERE id = ?`, id)

	s, err := scanSignal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}

	return &s, nil
}

func (r *signalRepository) ListSignals(source signal.Source, limit int) ([]signal.Signal, error) {
	query := signalSelect
	args := []interface{}{}

	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY score DESC, id LIMIT ?`
	args = append(args, limit)

	return r.querySignals(query, args...)
}

// ListUnscoredSignals returns signals the scorer has not rated yet.
func (r *signalRepository) ListUnscoredSignals(limit int) ([]signal.Signal, error) {
	return r.querySignals(signalSelect+`
		WHERE relevance_score = 0 AND content_potential = 0
		ORDER BY score DESC, id
		LIMIT ?`, limit)
}

// TopScoredSignals returns signals clearing both score minimums,
// ordered by combined score. This is the selection the validator
// works from.
func (r *signalRepository) TopScoredSignals(minRelevance, minContent, limit int) ([]signal.Signal, error) {
	return r.querySignals(signalSelect+`
		WHERE relevance_score >= ? AND content_potential >= ?
		ORDER BY relevance_score + content_potential DESC, id
		LIMIT ?`, minRelevance, minContent, limit)
}

func (r *signalRepository) GetSignalCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return count, nil
}

func (r *signalRepository) GetSourceStats() ([]SourceStats, error) {
	rows, err := r.db.Query(`
		SELECT source, COUNT(*),
		       SUM(CASE WHEN relevance_score > 0 OR content_potential > 0 THEN 1 ELSE 0 END)
		FROM signals
		GROUP BY source
		ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query source stats: %w", err)
	}
	defer rows.Close()

	var stats []SourceStats
	for rows.Next() {
		var s SourceStats
		if err := rows.Scan(&s.Source, &s.Count, &s.Scored); err != nil {
			return nil, fmt.Errorf("failed to scan source stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

const signalSelect = `
	SELECT id, source, title, url, external_url, author, text,
	       score, comments, created_at,
	       relevance_score, content_potential, category, one_line_hook, key_insight
	FROM signals`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(row rowScanner) (signal.Signal, error) {
	var s signal.Signal
	var createdAt sql.NullTime

	err := row.Scan(
		&s.ID, &s.Source, &s.Title, &s.URL, &s.ExternalURL, &s.Author, &s.Text,
		&s.Score, &s.Comments, &createdAt,
		&s.RelevanceScore, &s.ContentPotential, &s.Category, &s.OneLineHook, &s.KeyInsight,
	)
	if err != nil {
		return s, err
	}

	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	}

	return s, nil
}

func (r *signalRepository) querySignals(query string, args ...interface{}) ([]signal.Signal, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []signal.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}

	return signals, rows.Err()
}

// collapseSignals deduplicates a batch by ID, last write wins, while
// preserving the order of first appearance.
func collapseSignals(signals []signal.Signal) []signal.Signal {
	index := make(map[string]int, len(signals))
	var collapsed []signal.Signal

	for _, s := range signals {
		if i, ok := index[s.ID]; ok {
			collapsed[i] = s
			continue
		}
		index[s.ID] = len(collapsed)
		collapsed = append(collapsed, s)
	}

	return collapsed
}
