package signal

import (
	"testing"
)

func testReducer() *Reducer {
	return NewReducer(map[Source]EngagementThresholds{
		SourceAskHN: {MinScore: 30, MinComments: 20},
	})
}

func evidenceWithStatus(status EvidenceStatus) EvidenceSummary {
	ev := EvidenceSummary{Status: status}
	if status == EvidenceOK {
		ev.Items = []EvidenceItem{{Label: "match", Score: 100}}
	}
	return ev
}

func TestReducer_TwoSourcesConfirmingIsHigh(t *testing.T) {
	r := testReducer()

	sig := Signal{Source: SourceAskHN, Score: 500, Comments: 120}
	trends := EvidenceSummary{
		Status:    EvidenceOK,
		Items:     []EvidenceItem{{Label: "ai code review", Score: 42}},
		Direction: DirectionRising,
	}
	products := evidenceWithStatus(EvidenceNoData)
	github := evidenceWithStatus(EvidenceOK)

	confirming, confidence := r.Reduce(sig, trends, products, github)

	if confirming != 2 {
		t.Errorf("Expected 2 sources confirming, got %d", confirming)
	}
	if confidence != ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s", confidence)
	}
}

func TestReducer_AllErrorsWeakEngagementIsLow(t *testing.T) {
	r := testReducer()

	sig := Signal{Source: SourceAskHN, Score: 5, Comments: 1}
	ev := evidenceWithStatus(EvidenceError)

	confirming, confidence := r.Reduce(sig, ev, ev, ev)

	if confirming != 0 {
		t.Errorf("Expected 0 sources confirming, got %d", confirming)
	}
	if confidence != ConfidenceLow {
		t.Errorf("Expected low confidence, got %s", confidence)
	}
}

func TestReducer_OneSourceStrongEngagementIsHigh(t *testing.T) {
	r := testReducer()

	sig := Signal{Source: SourceAskHN, Score: 80, Comments: 45}
	confirming, confidence := r.Reduce(sig,
		evidenceWithStatus(EvidenceNoQueries),
		evidenceWithStatus(EvidenceOK),
		evidenceWithStatus(EvidenceError))

	if confirming != 1 {
		t.Errorf("Expected 1 source confirming, got %d", confirming)
	}
	if confidence != ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s", confidence)
	}
}

func TestReducer_OneSourceWeakEngagementIsMedium(t *testing.T) {
	r := testReducer()

	sig := Signal{Source: SourceAskHN, Score: 10, Comments: 3}
	_, confidence := r.Reduce(sig,
		evidenceWithStatus(EvidenceNoData),
		evidenceWithStatus(EvidenceOK),
		evidenceWithStatus(EvidenceNoData))

	if confidence != ConfidenceMedium {
		t.Errorf("Expected medium confidence, got %s", confidence)
	}
}

func TestReducer_NoSourcesStrongEngagementIsMedium(t *testing.T) {
	r := testReducer()

	sig := Signal{Source: SourceAskHN, Score: 200, Comments: 90}
	ev := evidenceWithStatus(EvidenceNoData)

	confirming, confidence := r.Reduce(sig, ev, ev, ev)

	if confirming != 0 {
		t.Errorf("Expected 0 sources confirming, got %d", confirming)
	}
	if confidence != ConfidenceMedium {
		t.Errorf("Expected medium confidence, got %s", confidence)
	}
}

func TestReducer_FallingTrendDoesNotConfirm(t *testing.T) {
	r := testReducer()

	sig := Signal{Source: SourceAskHN, Score: 5, Comments: 1}
	trends := EvidenceSummary{
		Status:    EvidenceOK,
		Items:     []EvidenceItem{{Label: "declining term", Score: 8}},
		Direction: DirectionFalling,
	}
	noData := evidenceWithStatus(EvidenceNoData)

	confirming, _ := r.Reduce(sig, trends, noData, noData)

	if confirming != 0 {
		t.Errorf("Falling trend should not confirm, got %d confirming", confirming)
	}
}

func TestReducer_OKWithoutItemsDoesNotConfirm(t *testing.T) {
	r := testReducer()

	sig := Signal{Source: SourceAskHN, Score: 5, Comments: 1}
	empty := EvidenceSummary{Status: EvidenceOK}
	noData := evidenceWithStatus(EvidenceNoData)

	confirming, _ := r.Reduce(sig, empty, noData, noData)

	if confirming != 0 {
		t.Errorf("ok status without items should not confirm, got %d", confirming)
	}
}

// Every combination of the four statuses across three sources and both
// engagement tiers must reduce to a valid label, and the result must be
// stable across repeated calls.
func TestReducer_TotalityAndDeterminism(t *testing.T) {
	r := testReducer()

	statuses := []EvidenceStatus{EvidenceOK, EvidenceNoData, EvidenceNoQueries, EvidenceError}
	engagements := []Signal{
		{Source: SourceAskHN, Score: 5, Comments: 1},
		{Source: SourceAskHN, Score: 500, Comments: 120},
	}

	valid := map[Confidence]bool{ConfidenceLow: true, ConfidenceMedium: true, ConfidenceHigh: true}

	combinations := 0
	for _, s1 := range statuses {
		for _, s2 := range statuses {
			for _, s3 := range statuses {
				for _, sig := range engagements {
					trends := evidenceWithStatus(s1)
					products := evidenceWithStatus(s2)
					github := evidenceWithStatus(s3)

					confirming, confidence := r.Reduce(sig, trends, products, github)
					if confirming < 0 || confirming > 3 {
						t.Errorf("sources confirming out of range: %d", confirming)
					}
					if !valid[confidence] {
						t.Errorf("Invalid confidence label: %q", confidence)
					}

					confirming2, confidence2 := r.Reduce(sig, trends, products, github)
					if confirming != confirming2 || confidence != confidence2 {
						t.Errorf("Reduce is not deterministic for (%s,%s,%s)", s1, s2, s3)
					}
					combinations++
				}
			}
		}
	}

	if combinations != 128 {
		t.Errorf("Expected 128 combinations, got %d", combinations)
	}
}

// Increasing the number of confirming sources must never decrease
// confidence on the low < medium < high scale.
func TestReducer_Monotonicity(t *testing.T) {
	r := testReducer()

	rank := map[Confidence]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}

	engagements := []Signal{
		{Source: SourceAskHN, Score: 5, Comments: 1},
		{Source: SourceAskHN, Score: 500, Comments: 120},
	}

	for _, sig := range engagements {
		prev := -1
		for confirming := 0; confirming <= 3; confirming++ {
			evs := make([]EvidenceSummary, 3)
			for i := range evs {
				if i < confirming {
					evs[i] = evidenceWithStatus(EvidenceOK)
					evs[i].Direction = DirectionRising
				} else {
					evs[i] = evidenceWithStatus(EvidenceNoData)
				}
			}

			got, confidence := r.Reduce(sig, evs[0], evs[1], evs[2])
			if got != confirming {
				t.Errorf("Expected %d confirming, got %d", confirming, got)
			}
			if rank[confidence] < prev {
				t.Errorf("Confidence decreased from rank %d to %d at %d sources",
					prev, rank[confidence], confirming)
			}
			prev = rank[confidence]
		}
	}
}

func TestReducer_UnknownSourceUsesDefaultThresholds(t *testing.T) {
	r := NewReducer(nil)

	strong := Signal{Source: SourceRSS, Score: 30, Comments: 20}
	weak := Signal{Source: SourceRSS, Score: 29, Comments: 20}

	if !r.EngagementStrong(strong) {
		t.Errorf("Signal at default thresholds should be strong")
	}
	if r.EngagementStrong(weak) {
		t.Errorf("Signal below default score threshold should be weak")
	}
}
