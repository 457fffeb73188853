package suggest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhasha-kb/lipiserve/pkg/script"
)

func TestRankMergesDuplicates(t *testing.T) {
	candidates := []Suggestion{
		{Word: "hello", Score: 10, Source: SourceDictionary, Script: script.Latin},
		{Word: "Hello", Score: 20, Source: SourceUserLearned, Script: script.Latin},
	}

	got := Rank(candidates, "", 5, DefaultSourceWeights())

	require.Len(t, got, 1)
	require.Equal(t, "Hello", got[0].Word)
	require.Equal(t, SourceUserLearned, got[0].Source)
	// Summed scores times the user-learned multiplier.
	require.InDelta(t, (10+20)*2.0, got[0].Score, 1e-9)
}

func TestRankSourceWeights(t *testing.T) {
	candidates := []Suggestion{
		{Word: "alpha", Score: 10, Source: SourceDictionary, Script: script.Latin},
		{Word: "beta", Score: 10, Source: SourceUserLearned, Script: script.Latin},
		{Word: "gamma", Score: 10, Source: SourceNgram, Script: script.Latin},
	}

	got := Rank(candidates, "", 5, DefaultSourceWeights())

	require.Equal(t, []string{"beta", "gamma", "alpha"}, words(got))
}

func TestRankTypedWordBoosts(t *testing.T) {
	candidates := []Suggestion{
		{Word: "helloween", Score: 150, Source: SourceDictionary, Script: script.Latin},
		{Word: "Hello", Score: 100, Source: SourceDictionary, Script: script.Latin},
		{Word: "unrelated", Score: 150, Source: SourceDictionary, Script: script.Latin},
	}

	got := Rank(candidates, "hello", 5, DefaultSourceWeights())

	require.Equal(t, []string{"Hello", "helloween", "unrelated"}, words(got))
	require.InDelta(t, 100*3.0, got[0].Score, 1e-9)
	require.InDelta(t, 150*prefixBoost, got[1].Score, 1e-9)
	require.InDelta(t, 150.0, got[2].Score, 1e-9)
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	candidates := []Suggestion{
		{Word: "first", Score: 5, Source: SourceDictionary, Script: script.Latin},
		{Word: "second", Score: 5, Source: SourceDictionary, Script: script.Latin},
		{Word: "third", Score: 5, Source: SourceDictionary, Script: script.Latin},
	}

	got := Rank(candidates, "", 5, DefaultSourceWeights())

	require.Equal(t, []string{"first", "second", "third"}, words(got))
}

func TestRankTruncatesToLimit(t *testing.T) {
	candidates := []Suggestion{
		{Word: "a", Score: 3, Source: SourceDictionary, Script: script.Latin},
		{Word: "b", Score: 2, Source: SourceDictionary, Script: script.Latin},
		{Word: "c", Score: 1, Source: SourceDictionary, Script: script.Latin},
	}

	require.Len(t, Rank(candidates, "", 2, DefaultSourceWeights()), 2)
	require.Empty(t, Rank(candidates, "", 0, DefaultSourceWeights()))
}

func TestFilterByScriptQuota(t *testing.T) {
	ranked := []Suggestion{
		{Word: "ನಮಸ್ಕಾರ", Score: 90, Script: script.Kannada},
		{Word: "hello", Score: 85, Script: script.Latin},
		{Word: "ಧನ್ಯವಾದ", Score: 80, Script: script.Kannada},
		{Word: "help", Score: 75, Script: script.Latin},
		{Word: "ಕನ್ನಡ", Score: 70, Script: script.Kannada},
		{Word: "hold", Score: 65, Script: script.Latin},
		{Word: "ಬೆಂಗಳೂರು", Score: 60, Script: script.Kannada},
	}

	got := FilterByScript(ranked, 3, 2)

	require.Len(t, got, 5)
	require.Equal(t, 3, countScript(got, script.Kannada))
	require.Equal(t, 2, countScript(got, script.Latin))
	// Highest score first even after the per-script selection.
	require.Equal(t, "ನಮಸ್ಕಾರ", got[0].Word)
	require.Equal(t, "hello", got[1].Word)
}

func TestFilterByScriptBackfills(t *testing.T) {
	ranked := []Suggestion{
		{Word: "ಕನ್ನಡ", Score: 100, Script: script.Kannada},
		{Word: "one", Score: 90, Script: script.Latin},
		{Word: "two", Score: 80, Script: script.Latin},
		{Word: "three", Score: 70, Script: script.Latin},
		{Word: "four", Score: 60, Script: script.Latin},
	}

	got := FilterByScript(ranked, 3, 2)

	// One Kannada candidate cannot fill its quota of three, so Latin
	// leftovers top the strip back up to five.
	require.Len(t, got, 5)
	require.Equal(t, []string{"ಕನ್ನಡ", "one", "two", "three", "four"}, words(got))
}

func TestFilterByScriptShortInput(t *testing.T) {
	ranked := []Suggestion{
		{Word: "hello", Score: 10, Script: script.Latin},
	}

	got := FilterByScript(ranked, 3, 2)
	require.Equal(t, []string{"hello"}, words(got))

	require.Empty(t, FilterByScript(nil, 3, 2))
	require.Empty(t, FilterByScript(ranked, 0, 0))
}

func words(s []Suggestion) []string {
	out := make([]string, len(s))
	for i, sg := range s {
		out[i] = sg.Word
	}
	return out
}

func countScript(s []Suggestion, sc script.Script) int {
	n := 0
	for _, sg := range s {
		if sg.Script == sc {
			n++
		}
	}
	return n
}
