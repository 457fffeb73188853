package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	t.Run("PureKannada", func(t *testing.T) {
		assert.Equal(t, Kannada, Detect("ನಮಸ್ಕಾರ"))
	})

	t.Run("PureLatin", func(t *testing.T) {
		assert.Equal(t, Latin, Detect("hello"))
	})

	t.Run("EmptyDefaultsToLatin", func(t *testing.T) {
		assert.Equal(t, Latin, Detect(""))
		assert.Equal(t, Latin, Detect("123 !!"))
	})

	t.Run("MixedWithoutMajority", func(t *testing.T) {
		// Two Kannada codepoints against two Latin letters: no 70% winner.
		assert.Equal(t, Mixed, Detect("ನಮhi"))
	})

	t.Run("MajorityStillWins", func(t *testing.T) {
		// One stray Latin letter among many Kannada codepoints.
		assert.Equal(t, Kannada, Detect("ನಮಸ್ಕಾರಗಳುx"))
	})
}

func TestSuggestionSplit(t *testing.T) {
	cases := []struct {
		layout  Layout
		kn, lat int
	}{
		{LayoutQwerty, 0, 5},
		{LayoutKannadaPhonetic, 3, 2},
		{LayoutKannada, 5, 0},
		{LayoutKannadaCustom, 5, 0},
	}
	for _, c := range cases {
		kn, lat := SuggestionSplit(c.layout)
		assert.Equal(t, c.kn, kn, "kannada quota for %s", c.layout)
		assert.Equal(t, c.lat, lat, "latin quota for %s", c.layout)
		assert.Equal(t, StripWidth, kn+lat, "split must fill the strip for %s", c.layout)
	}
}

func TestParseLayout(t *testing.T) {
	assert.Equal(t, LayoutKannadaPhonetic, ParseLayout(" Kannada_Phonetic "))
	assert.Equal(t, LayoutQwerty, ParseLayout("dvorak"))
	assert.Equal(t, LayoutQwerty, ParseLayout(""))
}

func TestNormalize(t *testing.T) {
	t.Run("QwertyFoldsCase", func(t *testing.T) {
		assert.Equal(t, "hello", Normalize("  HeLLo ", LayoutQwerty))
	})

	t.Run("KannadaComposesNFC", func(t *testing.T) {
		// Vowel sign II arriving as sign I + length mark must compose to
		// the canonical single codepoint.
		decomposed := "ನೀ"
		assert.Equal(t, "ನೀ", Normalize(decomposed, LayoutKannada))
	})

	t.Run("KannadaKeepsCaseUntouched", func(t *testing.T) {
		// Latin typed on a Kannada layout is left as-is.
		assert.Equal(t, "Ok", Normalize("Ok", LayoutKannada))
	})
}

func TestContextTracker(t *testing.T) {
	tr := NewContextTracker()
	assert.Equal(t, Latin, tr.Dominant(), "empty window defaults to latin")

	tr.Add("ನಮಸ್ಕಾರ")
	tr.Add("ಧನ್ಯವಾದ")
	tr.Add("ok")
	assert.Equal(t, Kannada, tr.Dominant())

	t.Run("WindowEvictsOldest", func(t *testing.T) {
		for i := 0; i < historySize; i++ {
			tr.Add("word")
		}
		got := tr.Words()
		assert.Len(t, got, historySize)
		assert.Equal(t, "word", got[0], "kannada entries should have been evicted")
		assert.Equal(t, Latin, tr.Dominant())
	})

	t.Run("Reset", func(t *testing.T) {
		tr.Reset()
		assert.Empty(t, tr.Words())
		assert.Equal(t, Latin, tr.Dominant())
	})

	t.Run("Last2", func(t *testing.T) {
		tr.Reset()
		w1, w2 := tr.Last2()
		assert.Empty(t, w1)
		assert.Empty(t, w2)

		tr.Add("good")
		w1, w2 = tr.Last2()
		assert.Empty(t, w1)
		assert.Equal(t, "good", w2)

		tr.Add("morning")
		w1, w2 = tr.Last2()
		assert.Equal(t, "good", w1)
		assert.Equal(t, "morning", w2)
	})
}
