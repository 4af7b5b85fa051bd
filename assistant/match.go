package assistant

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/giygas/medicine-inventory/catalog"
)

// MatchThreshold is the lowest similarity accepted as a catalog match.
const MatchThreshold = 0.7

// Similarity compares two names case-insensitively: 1 for equal, 0 for
// nothing in common.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// primaryWord returns the first word of a brand name, so "Napa Extra" can
// match a prescription that only says "Napa".
func primaryWord(name string) string {
	name = strings.NewReplacer("-", " ", "|", " ").Replace(name)
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// BestMatch returns the medicine whose brand name resembles name most, when
// the similarity reaches threshold. A whole brand name beats a first-word
// match of the same score; after that the earlier medicine wins.
func BestMatch(name string, medicines []catalog.Medicine, threshold float64) (catalog.Medicine, float64, bool) {
	if strings.TrimSpace(name) == "" || strings.EqualFold(strings.TrimSpace(name), "unknown") {
		return catalog.Medicine{}, 0, false
	}

	var (
		best                catalog.Medicine
		bestScore, bestFull float64
		found               bool
	)
	for _, m := range medicines {
		full := Similarity(name, m.BrandName)
		score := max(full, Similarity(name, primaryWord(m.BrandName)))
		if score < threshold {
			continue
		}
		if !found || score > bestScore || (score == bestScore && full > bestFull) {
			best, bestScore, bestFull, found = m, score, full, true
		}
		if full == 1 {
			break
		}
	}
	return best, bestScore, found
}
