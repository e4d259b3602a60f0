package signal

// EngagementThresholds define when a signal's own engagement counts as
// strong. Operator-tuned, configurable per source.
type EngagementThresholds struct {
	MinScore    int `yaml:"min_score"`
	MinComments int `yaml:"min_comments"`
}

var DefaultEngagementThresholds = EngagementThresholds{
	MinScore:    30,
	MinComments: 20,
}

// Reducer turns a signal's engagement metrics and its three evidence
// summaries into a sources-confirming count and a confidence label.
// It is pure: no I/O, no failure modes, identical inputs always yield
// identical outputs.
type Reducer struct {
	thresholds map[Source]EngagementThresholds
}

func NewReducer(thresholds map[Source]EngagementThresholds) *Reducer {
	return &Reducer{thresholds: thresholds}
}

// Confirms reports whether one evidence summary corroborates the signal.
// Trends evidence must additionally be non-declining.
func Confirms(ev EvidenceSummary, trends bool) bool {
	if ev.Status != EvidenceOK || len(ev.Items) == 0 {
		return false
	}
	if trends && ev.Direction == DirectionFalling {
		return false
	}
	return true
}

// EngagementStrong reports whether the signal clears both engagement
// thresholds for its source.
func (r *Reducer) EngagementStrong(s Signal) bool {
	th, ok := r.thresholds[s.Source]
	if !ok {
		th = DefaultEngagementThresholds
	}
	return s.Score >= th.MinScore && s.Comments >= th.MinComments
}

// Reduce computes (sources_confirming, confidence) for a signal and its
// evidence. Degraded evidence (no_data, no_queries, error) simply does
// not confirm; the function is total over all status combinations.
func (r *Reducer) Reduce(s Signal, trends, products, github EvidenceSummary) (int, Confidence) {
	confirming := 0
	if Confirms(trends, true) {
		confirming++
	}
	if Confirms(products, false) {
		confirming++
	}
	if Confirms(github, false) {
		confirming++
	}

	strong := r.EngagementStrong(s)

	var confidence Confidence
	switch {
	case confirming >= 2:
		confidence = ConfidenceHigh
	case confirming == 1 && strong:
		confidence = ConfidenceHigh
	case confirming == 1:
		confidence = ConfidenceMedium
	case strong:
		confidence = ConfidenceMedium
	default:
		confidence = ConfidenceLow
	}

	return confirming, confidence
}
