package dictionary

import "github.com/bhasha-kb/lipiserve/internal/utils"

// fuzzyDiscount is the per-edit frequency penalty: one edit keeps 70% of the
// word's frequency, two edits keep 40%.
const fuzzyDiscount = 0.3

// FuzzyCompletions returns exact completions for prefix merged with stored
// words within maxDist edits, ordered by (possibly discounted) frequency.
// A fuzzy hit's frequency is scaled by 1 - distance*0.3, floored at zero.
// Callers gate this on prefix length; the scan itself only skips words whose
// rune count differs from the prefix by more than maxDist.
func (ix *Index) FuzzyCompletions(prefix string, limit, maxDist int) []Entry {
	exact := ix.Completions(prefix, limit)
	if len(exact) >= limit || maxDist <= 0 {
		return exact
	}

	seen := make(map[string]struct{}, len(exact))
	for _, e := range exact {
		seen[e.Word] = struct{}{}
	}

	pr := []rune(prefix)
	merged := exact
	for _, e := range ix.entries {
		if _, dup := seen[e.Word]; dup {
			continue
		}
		wr := []rune(e.Word)
		delta := len(wr) - len(pr)
		if delta < 0 {
			delta = -delta
		}
		if delta > maxDist {
			continue
		}
		dist := utils.BoundedDistance(pr, wr, maxDist)
		if dist > maxDist {
			continue
		}
		scaled := float64(e.Frequency) * (1 - float64(dist)*fuzzyDiscount)
		if scaled < 0 {
			scaled = 0
		}
		merged = append(merged, Entry{Word: e.Word, Frequency: uint32(scaled)})
	}

	sortByFrequency(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

