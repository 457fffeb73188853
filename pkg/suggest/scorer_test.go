package suggest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractStringFeatures(t *testing.T) {
	t.Run("exact match folds ASCII case", func(t *testing.T) {
		f := Extract("Hello", "hello", 100)
		require.True(t, f.ExactMatch)
		require.True(t, f.PrefixMatch)
		require.InDelta(t, 1.0, f.MatchRatio, 1e-9)
		require.Equal(t, 0, f.EditDistance)
	})

	t.Run("prefix ratio counts runes", func(t *testing.T) {
		f := Extract("ನಮಸ್ಕಾರ", "ನಮ", 100)
		require.False(t, f.ExactMatch)
		require.True(t, f.PrefixMatch)
		require.InDelta(t, 2.0/7.0, f.MatchRatio, 1e-9)
	})

	t.Run("large length delta is infinitely far", func(t *testing.T) {
		f := Extract("helloworld", "hello", 100)
		require.Greater(t, f.EditDistance, maxScorerDistance)
	})

	t.Run("small edits are measured", func(t *testing.T) {
		f := Extract("help", "hepl", 100)
		require.False(t, f.PrefixMatch)
		require.Equal(t, 2, f.EditDistance)
	})

	t.Run("empty typed text is neutral", func(t *testing.T) {
		f := Extract("morning", "", 100)
		require.False(t, f.ExactMatch)
		require.False(t, f.PrefixMatch)
		require.Equal(t, 0, f.EditDistance)
		require.InDelta(t, 1.0, f.LengthRatio, 1e-9)
	})
}

func TestScoreTerms(t *testing.T) {
	w := DefaultWeights()

	t.Run("exact term dominates", func(t *testing.T) {
		exact := Score(Extract("hello", "hello", 1000), w)
		longer := Score(Extract("helloworld", "hello", 1000), w)
		require.Greater(t, exact, longer*10)
	})

	t.Run("nearly complete prefixes outrank fragments", func(t *testing.T) {
		help := Score(Extract("help", "he", 100), w)
		helicopter := Score(Extract("helicopter", "he", 100), w)
		require.Greater(t, help, helicopter)
	})

	t.Run("frequency enters through log", func(t *testing.T) {
		got := Score(Features{Frequency: 99}, w)
		require.InDelta(t, math.Log(100)*10, got, 1e-9)
	})

	t.Run("context and recency are linear", func(t *testing.T) {
		f := Features{ContextMatch: true, ContextScore: 2.5, RecencyBoost: 0.5}
		require.InDelta(t, 250+25, Score(f, w), 1e-9)
	})

	t.Run("user frequency term", func(t *testing.T) {
		f := Features{IsUserLearned: true, UserFrequency: 10}
		require.InDelta(t, math.Log(11)*20, Score(f, w), 1e-9)
	})
}

func TestScorePenalties(t *testing.T) {
	w := DefaultWeights()

	t.Run("edit distance discount floors at 0.3", func(t *testing.T) {
		base := Features{PrefixMatch: true, MatchRatio: 1}
		oneOff := base
		oneOff.EditDistance = 1
		farOff := base
		farOff.EditDistance = infiniteDistance

		require.InDelta(t, 80.0, Score(oneOff, w), 1e-9)
		require.InDelta(t, 30.0, Score(farOff, w), 1e-9)
	})

	t.Run("overlong candidates are damped", func(t *testing.T) {
		f := Features{Frequency: 99, LengthRatio: 4}
		require.InDelta(t, math.Log(100)*10/4, Score(f, w), 1e-9)
	})

	t.Run("ratio at threshold is untouched", func(t *testing.T) {
		f := Features{Frequency: 99, LengthRatio: 3}
		require.InDelta(t, math.Log(100)*10, Score(f, w), 1e-9)
	})
}

func TestWeightsClamped(t *testing.T) {
	w := Weights{Prefix: -1, Exact: 0, Frequency: 0.05, Recency: 2, Context: 1, UserLearned: 0.1}.Clamped()

	require.InDelta(t, MinWeight, w.Prefix, 1e-9)
	require.InDelta(t, MinWeight, w.Exact, 1e-9)
	require.InDelta(t, MinWeight, w.Frequency, 1e-9)
	require.InDelta(t, 2.0, w.Recency, 1e-9)

	// Score clamps on its own, so a zero-value Weights still ranks.
	got := Score(Features{ExactMatch: true}, Weights{})
	require.InDelta(t, MinWeight*1000, got, 1e-9)
}
