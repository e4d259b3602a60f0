package database

import (
	"testing"
	"time"

	"github.com/buildsignals/buildsignals/app/signal"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func testSignal(id string, score int) signal.Signal {
	return signal.Signal{
		ID:        id,
		Source:    signal.SourceAskHN,
		Title:     "Ask HN: something",
		URL:       "https://news.ycombinator.com/item?id=1",
		Score:     score,
		Comments:  10,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSignalRepository_UpsertIsIdempotent(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))

	written, err := repo.UpsertSignals([]signal.Signal{
		testSignal("ask_hn:1", 50),
		testSignal("ask_hn:2", 20),
	})
	if err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if written != 2 {
		t.Errorf("Expected 2 written, got %d", written)
	}

	// Same IDs again with a refreshed score.
	if _, err := repo.UpsertSignals([]signal.Signal{testSignal("ask_hn:1", 75)}); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	count, err := repo.GetSignalCount()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows after re-upsert, got %d", count)
	}

	got, err := repo.GetSignal("ask_hn:1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Score != 75 {
		t.Errorf("Expected refreshed score 75, got %+v", got)
	}
}

func TestSignalRepository_BatchCollapsesLastWriteWins(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))

	written, err := repo.UpsertSignals([]signal.Signal{
		testSignal("ask_hn:1", 10),
		testSignal("ask_hn:1", 99),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if written != 1 {
		t.Errorf("Expected duplicate IDs collapsed to 1 write, got %d", written)
	}

	got, err := repo.GetSignal("ask_hn:1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Score != 99 {
		t.Errorf("Expected last write to win, got score %d", got.Score)
	}
}

func TestSignalRepository_GetMissingReturnsNil(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))

	got, err := repo.GetSignal("ask_hn:404")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing signal, got %+v", got)
	}
}

func TestSignalRepository_UnscoredAndTopScored(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))

	raw := testSignal("ask_hn:raw", 40)

	scoredA := testSignal("ask_hn:a", 100)
	scoredA.RelevanceScore = 7
	scoredA.ContentPotential = 7

	scoredB := testSignal("ask_hn:b", 10)
	scoredB.RelevanceScore = 9
	scoredB.ContentPotential = 8

	// Scored but below the bar on one dimension.
	filtered := testSignal("ask_hn:c", 5)
	filtered.RelevanceScore = 6
	filtered.ContentPotential = 9

	if _, err := repo.UpsertSignals([]signal.Signal{raw, scoredA, scoredB, filtered}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	unscored, err := repo.ListUnscoredSignals(10)
	if err != nil {
		t.Fatalf("ListUnscoredSignals failed: %v", err)
	}
	if len(unscored) != 1 || unscored[0].ID != "ask_hn:raw" {
		t.Errorf("Expected only the raw signal, got %+v", unscored)
	}

	top, err := repo.TopScoredSignals(7, 7, 10)
	if err != nil {
		t.Fatalf("TopScoredSignals failed: %v", err)
	}
	if len(top) != 2 || top[0].ID != "ask_hn:b" || top[1].ID != "ask_hn:a" {
		t.Errorf("Expected combined-score ordering b, a; got %+v", top)
	}
}

func TestSignalRepository_ListBySource(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))

	hn := testSignal("ask_hn:1", 40)
	gh := testSignal("github_trending:x/y", 300)
	gh.Source = signal.SourceGithubTrending

	if _, err := repo.UpsertSignals([]signal.Signal{hn, gh}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := repo.ListSignals(signal.SourceGithubTrending, 10)
	if err != nil {
		t.Fatalf("ListSignals failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "github_trending:x/y" {
		t.Errorf("Expected source filter to apply, got %+v", got)
	}

	all, err := repo.ListSignals("", 10)
	if err != nil {
		t.Fatalf("ListSignals failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 signals without filter, got %d", len(all))
	}

	stats, err := repo.GetSourceStats()
	if err != nil {
		t.Fatalf("GetSourceStats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Errorf("Expected stats for 2 sources, got %+v", stats)
	}
}
