package suggest

import (
	"sort"
	"strings"

	"github.com/bhasha-kb/lipiserve/pkg/script"
)

// SourceWeights scale a merged candidate's score by where it came from.
// User-learned words outrank static dictionary words of equal raw score,
// and context predictions sit in between.
type SourceWeights struct {
	Dictionary  float64 `toml:"dictionary"`
	Frequency   float64 `toml:"frequency"`
	Ngram       float64 `toml:"ngram"`
	UserLearned float64 `toml:"user_learned"`
	ExactMatch  float64 `toml:"exact_match"`
}

// DefaultSourceWeights returns the stock multiplier table.
func DefaultSourceWeights() SourceWeights {
	return SourceWeights{
		Dictionary:  1.0,
		Frequency:   1.0,
		Ngram:       1.5,
		UserLearned: 2.0,
		ExactMatch:  3.0,
	}
}

// Clamped returns a copy with every multiplier raised to at least MinWeight.
func (sw SourceWeights) Clamped() SourceWeights {
	clamp := func(v float64) float64 {
		if v < MinWeight {
			return MinWeight
		}
		return v
	}
	return SourceWeights{
		Dictionary:  clamp(sw.Dictionary),
		Frequency:   clamp(sw.Frequency),
		Ngram:       clamp(sw.Ngram),
		UserLearned: clamp(sw.UserLearned),
		ExactMatch:  clamp(sw.ExactMatch),
	}
}

func (sw SourceWeights) weightFor(s Source) float64 {
	switch s {
	case SourceExactMatch:
		return sw.ExactMatch
	case SourceUserLearned:
		return sw.UserLearned
	case SourceNgram:
		return sw.Ngram
	case SourceFrequency:
		return sw.Frequency
	default:
		return sw.Dictionary
	}
}

// prefixBoost is the multiplier for candidates that start with the typed
// word without matching it exactly.
const prefixBoost = 1.3

// Rank fuses candidates from every source into one ordered list.
//
// Duplicates of the same surface word are merged by summing their scores;
// the merged entry keeps the word form, script and tag of its
// highest-priority source. Each merged score is then scaled by its source
// weight and, when typed is non-empty, by the exact-match weight for a
// case-insensitive equal or by prefixBoost for a plain prefix hit. The
// sort is stable, so candidates with equal final scores keep their
// insertion order.
func Rank(candidates []Suggestion, typed string, limit int, sw SourceWeights) []Suggestion {
	if len(candidates) == 0 || limit <= 0 {
		return nil
	}
	sw = sw.Clamped()

	merged := make([]Suggestion, 0, len(candidates))
	index := make(map[string]int, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(c.Word)
		at, ok := index[key]
		if !ok {
			index[key] = len(merged)
			merged = append(merged, c)
			continue
		}
		merged[at].Score += c.Score
		if c.Source.Priority() > merged[at].Source.Priority() {
			merged[at].Word = c.Word
			merged[at].Source = c.Source
			merged[at].Script = c.Script
		}
	}

	typedFold := strings.ToLower(typed)
	for i := range merged {
		merged[i].Score *= sw.weightFor(merged[i].Source)
		if typedFold == "" {
			continue
		}
		word := strings.ToLower(merged[i].Word)
		switch {
		case word == typedFold:
			merged[i].Score *= sw.ExactMatch
		case strings.HasPrefix(word, typedFold):
			merged[i].Score *= prefixBoost
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// FilterByScript applies the keyboard's per-script quota to an already
// ranked list. Each script bucket contributes up to its quota in rank
// order; when one bucket runs short the other's leftovers fill the gap,
// so the result is never smaller than the available candidates allow.
// Mixed and ambiguous words count against the Latin quota.
func FilterByScript(ranked []Suggestion, kannadaQuota, latinQuota int) []Suggestion {
	total := kannadaQuota + latinQuota
	if total <= 0 || len(ranked) == 0 {
		return nil
	}
	if kannadaQuota < 0 {
		kannadaQuota = 0
	}
	if latinQuota < 0 {
		latinQuota = 0
	}

	var kannada, latin []Suggestion
	for _, s := range ranked {
		if s.Script == script.Kannada {
			kannada = append(kannada, s)
		} else {
			latin = append(latin, s)
		}
	}

	kTake := kannadaQuota
	if kTake > len(kannada) {
		kTake = len(kannada)
	}
	lTake := latinQuota
	if lTake > len(latin) {
		lTake = len(latin)
	}

	out := make([]Suggestion, 0, total)
	out = append(out, kannada[:kTake]...)
	out = append(out, latin[:lTake]...)

	if len(out) < total {
		spare := make([]Suggestion, 0, len(ranked)-len(out))
		spare = append(spare, kannada[kTake:]...)
		spare = append(spare, latin[lTake:]...)
		sort.SliceStable(spare, func(i, j int) bool {
			return spare[i].Score > spare[j].Score
		})
		need := total - len(out)
		if need > len(spare) {
			need = len(spare)
		}
		out = append(out, spare[:need]...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
