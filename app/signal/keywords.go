package signal

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+#.-]*[a-zA-Z0-9+#]|[a-zA-Z]`)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "have": true, "has": true, "are": true,
	"was": true, "you": true, "your": true, "its": true, "can": true,
	"not": true, "but": true, "all": true, "use": true, "using": true,
	"how": true, "why": true, "what": true, "when": true, "who": true,
	"ask": true, "show": true, "new": true, "get": true, "make": true,
	"like": true, "just": true, "more": true, "most": true, "some": true,
	"any": true, "into": true, "over": true, "after": true, "before": true,
	"between": true, "under": true, "here": true, "there": true, "now": true,
	"still": true, "yet": true, "already": true, "much": true, "many": true,
	"also": true,
}

var caseFolder = cases.Fold()

// ExtractKeywords pulls the most frequent terms and bigrams out of
// signal titles. Bigrams are preferred over the single words they
// contain; a term must appear at least twice to qualify.
func ExtractKeywords(signals []Signal, maxKeywords int) []string {
	counts := make(map[string]int)

	for _, s := range signals {
		words := wordPattern.FindAllString(caseFolder.String(s.Title), -1)

		filtered := make([]string, 0, len(words))
		for _, w := range words {
			if !stopWords[w] && len(w) > 2 {
				filtered = append(filtered, w)
			}
		}

		for _, w := range filtered {
			counts[w]++
		}
		for i := 0; i < len(filtered)-1; i++ {
			counts[filtered[i]+" "+filtered[i+1]]++
		}
	}

	candidates := make([]string, 0, len(counts))
	for term, count := range counts {
		if count >= 2 {
			candidates = append(candidates, term)
		}
	}

	// Bigrams first, then by frequency, then lexically for determinism.
	sort.Slice(candidates, func(i, j int) bool {
		wi := len(strings.Fields(candidates[i]))
		wj := len(strings.Fields(candidates[j]))
		if wi != wj {
			return wi > wj
		}
		if counts[candidates[i]] != counts[candidates[j]] {
			return counts[candidates[i]] > counts[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})

	selected := make([]string, 0, maxKeywords)
	covered := make(map[string]bool)
	for _, term := range candidates {
		if len(selected) >= maxKeywords {
			break
		}
		parts := strings.Fields(term)
		if len(parts) == 1 && covered[term] {
			continue
		}
		selected = append(selected, term)
		for _, p := range parts {
			covered[p] = true
		}
	}

	return selected
}
