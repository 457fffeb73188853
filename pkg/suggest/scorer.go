package suggest

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/bhasha-kb/lipiserve/internal/utils"
)

// Weights make every scoring term independently tunable. Values below
// MinWeight are clamped up so no term can be switched off entirely by a bad
// config edit.
type Weights struct {
	Prefix      float64 `toml:"prefix"`
	Exact       float64 `toml:"exact"`
	Frequency   float64 `toml:"frequency"`
	Recency     float64 `toml:"recency"`
	Context     float64 `toml:"context"`
	UserLearned float64 `toml:"user_learned"`
}

// MinWeight is the clamp floor for every weight.
const MinWeight = 0.1

// DefaultWeights returns the neutral tuning: every term at 1.0.
func DefaultWeights() Weights {
	return Weights{
		Prefix:      1.0,
		Exact:       1.0,
		Frequency:   1.0,
		Recency:     1.0,
		Context:     1.0,
		UserLearned: 1.0,
	}
}

// Clamped returns a copy with every weight raised to at least MinWeight.
func (w Weights) Clamped() Weights {
	clamp := func(v float64) float64 {
		if v < MinWeight {
			return MinWeight
		}
		return v
	}
	return Weights{
		Prefix:      clamp(w.Prefix),
		Exact:       clamp(w.Exact),
		Frequency:   clamp(w.Frequency),
		Recency:     clamp(w.Recency),
		Context:     clamp(w.Context),
		UserLearned: clamp(w.UserLearned),
	}
}

// maxScorerDistance bounds the feature edit-distance computation. Anything
// past it, including candidates whose length differs from the typed prefix
// by more than distanceLenDelta, behaves as infinitely far.
const (
	maxScorerDistance = 3
	distanceLenDelta  = 3
	infiniteDistance  = maxScorerDistance + 1
)

// Features is the ephemeral per-(candidate, query) vector the scorer
// consumes. Extract fills in everything derivable from the two strings;
// the caller supplies source-specific fields before scoring.
type Features struct {
	ExactMatch   bool
	PrefixMatch  bool
	MatchRatio   float64 // typed length over candidate length for prefixes
	EditDistance int
	LengthRatio  float64 // candidate length over typed length

	Frequency float64

	IsUserLearned bool
	UserFrequency float64

	ContextMatch bool
	ContextScore float64

	RecencyBoost float64
}

// Extract derives the string features of candidate against typed along with
// its source frequency. Case comparisons fold ASCII case; Kannada is
// unaffected.
func Extract(candidate, typed string, frequency float64) Features {
	f := Features{Frequency: frequency}

	candLen := utf8.RuneCountInString(candidate)
	typedLen := utf8.RuneCountInString(typed)
	if candLen == 0 {
		return f
	}

	if typedLen > 0 {
		f.ExactMatch = strings.EqualFold(candidate, typed)
		f.PrefixMatch = utils.HasPrefixIgnoreCase(candidate, typed)
		if f.PrefixMatch {
			f.MatchRatio = float64(typedLen) / float64(candLen)
		}
		f.LengthRatio = float64(candLen) / float64(typedLen)

		delta := candLen - typedLen
		if delta < 0 {
			delta = -delta
		}
		if delta > distanceLenDelta {
			f.EditDistance = infiniteDistance
		} else {
			f.EditDistance = utils.BoundedDistance([]rune(typed), []rune(candidate), maxScorerDistance)
		}
	} else {
		// Next-word prediction: nothing typed yet, neutral string features.
		f.LengthRatio = 1
	}
	return f
}

// Score folds a feature vector into one comparable number.
//
// Exact matches dominate, prefix matches scale with how much of the word is
// already typed, raw popularity enters sub-linearly through log(freq+1) so
// it cannot drown relevance, and recency/context enter linearly. Candidates
// more than three times longer than the typed prefix are damped by the
// inverse length ratio, and the bounded edit distance applies last as a
// multiplicative discount that never takes more than 70% off.
func Score(f Features, w Weights) float64 {
	w = w.Clamped()

	score := 0.0
	if f.ExactMatch {
		score += w.Exact * 1000
	}
	if f.PrefixMatch {
		score += w.Prefix * f.MatchRatio * 100
	}
	score += w.Frequency * math.Log(f.Frequency+1) * 10
	if f.RecencyBoost > 0 {
		score += w.Recency * f.RecencyBoost * 50
	}
	if f.ContextMatch {
		score += w.Context * f.ContextScore * 100
	}
	if f.IsUserLearned {
		score += w.UserLearned * math.Log(f.UserFrequency+1) * 20
	}

	if f.LengthRatio > 3 {
		score *= 1 / f.LengthRatio
	}

	if f.EditDistance > 0 {
		penalty := 1 - float64(f.EditDistance)*0.2
		if penalty < 0.3 {
			penalty = 0.3
		}
		score *= penalty
	}
	return score
}
