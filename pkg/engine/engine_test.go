package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhasha-kb/lipiserve/pkg/config"
	"github.com/bhasha-kb/lipiserve/pkg/script"
	"github.com/bhasha-kb/lipiserve/pkg/suggest"
)

const (
	testLatinWords   = "hello\t50\nhelp\t40\nheld\t30\nworld\t20\nthe\t100\nmorning\t25\nnight\t15\n"
	testKannadaWords = "ನಮಸ್ಕಾರ\t60\nನಾನು\t45\nನಮಗೆ\t30\nಧನ್ಯವಾದ\t20\n"
	testBigrams      = "good\tmorning\t10\ngood\tnight\t5\n"
	testTrigrams     = "have\ta\tnice\t8\n"
)

func writeData(t *testing.T, bigrams string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"words_en.txt": testLatinWords,
		"words_kn.txt": testKannadaWords,
		"bigrams.txt":  bigrams,
		"trigrams.txt": testTrigrams,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func waitReady(t *testing.T, e *Engine) {
	t.Helper()
	ready := make(chan struct{})
	e.InitializeAsync(func() { close(ready) })
	select {
	case <-ready:
	case <-time.After(10 * time.Second):
		t.Fatal("engine never became ready")
	}
	require.Equal(t, StateReady, e.State())
}

func newTestEngine(t *testing.T, bigrams string) *Engine {
	t.Helper()
	e := New(config.DefaultConfig(), writeData(t, bigrams), filepath.Join(t.TempDir(), "learn.db"))
	t.Cleanup(e.Shutdown)
	waitReady(t, e)
	return e
}

func TestEngineLifecycle(t *testing.T) {
	e := New(config.DefaultConfig(), writeData(t, testBigrams), filepath.Join(t.TempDir(), "learn.db"))
	assert.Equal(t, StateUninitialized, e.State())
	assert.Nil(t, e.Suggestions("hel", "qwerty", 3))
	assert.Equal(t, "uninitialized", e.Stats().State)

	waitReady(t, e)

	// Re-initializing a ready engine is a no-op.
	e.InitializeAsync(func() { t.Error("second initialize ran") })
	assert.Equal(t, StateReady, e.State())

	e.Shutdown()
	assert.Equal(t, StateShutdown, e.State())
	assert.Nil(t, e.Suggestions("hel", "qwerty", 3))
	e.Shutdown()
}

func TestShutdownBeforeInitialize(t *testing.T) {
	e := New(config.DefaultConfig(), writeData(t, testBigrams), filepath.Join(t.TempDir(), "learn.db"))
	e.Shutdown()
	e.InitializeAsync(nil)
	assert.Equal(t, StateShutdown, e.State())
	assert.Nil(t, e.NextWordPredictions("qwerty", 3))
}

func TestSuggestionsOrdersPrefixMatches(t *testing.T) {
	e := newTestEngine(t, testBigrams)

	// help completes with fewer remaining letters than hello, which
	// outweighs hello's higher corpus frequency.
	got := e.Suggestions("hel", "qwerty", 3)
	require.Len(t, got, 3)
	assert.Equal(t, "help", got[0].Word)
	assert.Equal(t, "held", got[1].Word)
	assert.Equal(t, "hello", got[2].Word)
}

func TestSuggestionsDefaultLimit(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	got := e.Suggestions("hel", "qwerty", 0)
	// Three prefix matches plus one fuzzy hit fill four of the strip's
	// five slots.
	assert.Len(t, got, 4)
}

func TestSuggestionsEmptyAndUnknown(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	assert.Nil(t, e.Suggestions("   ", "qwerty", 5))
	assert.Empty(t, e.Suggestions("xyz", "qwerty", 5))
}

func TestSuggestionsRestoresTypedCase(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	got := e.Suggestions("Hel", "qwerty", 3)
	require.Len(t, got, 3)
	assert.Equal(t, "Help", got[0].Word)
	assert.Equal(t, "Hello", got[2].Word)
}

func TestSuggestionsKannada(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	got := e.Suggestions("ನಮ", "kannada", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "ನಮಸ್ಕಾರ", got[0].Word)
	assert.Equal(t, suggest.SourceExactMatch, got[0].Source)
	words := make([]string, 0, len(got))
	for _, s := range got {
		assert.Equal(t, script.Kannada, s.Script)
		words = append(words, s.Word)
	}
	assert.Contains(t, words, "ನಮಗೆ")
}

func TestSuggestionsExpandsAbbreviations(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	got := e.Suggestions("btw", "qwerty", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "by the way", got[0].Word)
	assert.Equal(t, suggest.SourceExactMatch, got[0].Source)
}

func TestSetAbbreviationInvalidatesCache(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	assert.Empty(t, e.Suggestions("gm", "qwerty", 5))

	require.NoError(t, e.SetAbbreviation("gm", "good morning"))
	got := e.Suggestions("gm", "qwerty", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "good morning", got[0].Word)

	e.RemoveAbbreviation("gm")
	assert.Empty(t, e.Suggestions("gm", "qwerty", 5))
}

func TestSuggestionsFuzzyFallback(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	got := e.Suggestions("hepl", "qwerty", 3)
	require.Len(t, got, 3)
	assert.Equal(t, "hello", got[0].Word)
	words := []string{got[0].Word, got[1].Word, got[2].Word}
	assert.Contains(t, words, "help")
	assert.Contains(t, words, "held")
}

func TestNextWordPredictions(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	assert.Nil(t, e.NextWordPredictions("qwerty", 5))

	e.CommitWord("good")
	got := e.NextWordPredictions("qwerty", 5)
	require.Len(t, got, 2)
	assert.Equal(t, "morning", got[0].Word)
	assert.Equal(t, "night", got[1].Word)
	assert.Equal(t, suggest.SourceNgram, got[0].Source)
}

func TestSuggestionsUseContext(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	e.CommitWord("good")
	got := e.Suggestions("mo", "qwerty", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "morning", got[0].Word)
}

func TestResetContextClearsPredictions(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	e.CommitWord("good")
	require.NotEmpty(t, e.NextWordPredictions("qwerty", 5))
	e.ResetContext()
	assert.Nil(t, e.NextWordPredictions("qwerty", 5))
}

func TestCommitLearnsNewWords(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	assert.Empty(t, e.Suggestions("zz", "qwerty", 5))

	e.CommitWord("zzyzx")
	got := e.Suggestions("zz", "qwerty", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "zzyzx", got[0].Word)
	assert.Equal(t, suggest.SourceUserLearned, got[0].Source)
}

func TestCommitLearnsBigrams(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	e.CommitWord("purple")
	e.CommitWord("elephants")
	e.ResetContext()

	e.CommitWord("purple")
	got := e.NextWordPredictions("qwerty", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "elephants", got[0].Word)
	assert.Equal(t, suggest.SourceUserLearned, got[0].Source)
}

func TestSuggestionScriptQuota(t *testing.T) {
	bigrams := "hello\tಒಂದು\t10\nhello\tಎರಡು\t9\nhello\tಮೂರು\t8\nhello\tನಾಲ್ಕು\t7\nhello\tworld\t2\nhello\tthere\t1\n"
	e := newTestEngine(t, bigrams)
	e.CommitWord("hello")

	got := e.NextWordPredictions("kannada_phonetic", 5)
	require.Len(t, got, 5)

	var kn, latin int
	words := make([]string, 0, len(got))
	for _, s := range got {
		words = append(words, s.Word)
		if s.Script == script.Kannada {
			kn++
		} else {
			latin++
		}
	}
	assert.Equal(t, 3, kn)
	assert.Equal(t, 2, latin)
	// ನಾಲ್ಕು outscores both Latin words but the quota caps Kannada at three.
	assert.NotContains(t, words, "ನಾಲ್ಕು")
	assert.Contains(t, words, "world")
	assert.Contains(t, words, "there")
}

func TestApplyConfigRetunes(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	require.NotEmpty(t, e.Suggestions("hepl", "qwerty", 3))

	cfg := config.DefaultConfig()
	cfg.Fuzzy.MaxDistance = 0
	e.ApplyConfig(cfg)
	assert.Empty(t, e.Suggestions("hepl", "qwerty", 3))
}

func TestStatsSnapshot(t *testing.T) {
	e := newTestEngine(t, testBigrams)
	st := e.Stats()
	assert.Equal(t, "ready", st.State)
	assert.Equal(t, 7, st.LatinWords)
	assert.Equal(t, 4, st.KannadaWords)
	assert.Equal(t, 1, st.Bigrams)
	assert.Equal(t, 1, st.Trigrams)
	assert.Equal(t, 11, st.HotWords)
	assert.Equal(t, "latin", st.DominantScript)

	e.CommitWord("hello")
	e.Suggestions("hel", "qwerty", 3)
	st = e.Stats()
	assert.EqualValues(t, 1, st.LearnedWords)
	assert.Equal(t, 1, st.CachedQueries)

	e.CommitWord("ನಮಸ್ಕಾರ")
	e.CommitWord("ಧನ್ಯವಾದ")
	assert.Equal(t, "kannada", e.Stats().DominantScript)
}

func TestMissingAssetsDegrade(t *testing.T) {
	e := New(config.DefaultConfig(), t.TempDir(), filepath.Join(t.TempDir(), "learn.db"))
	t.Cleanup(e.Shutdown)
	waitReady(t, e)

	assert.Empty(t, e.Suggestions("hel", "qwerty", 3))

	// Learning still works without any dictionary assets.
	e.CommitWord("hello")
	e.CommitWord("world")
	e.ResetContext()
	e.CommitWord("hello")
	got := e.NextWordPredictions("qwerty", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "world", got[0].Word)
}
