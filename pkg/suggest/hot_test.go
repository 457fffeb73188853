package suggest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhasha-kb/lipiserve/pkg/dictionary"
)

func hotEntries() []dictionary.Entry {
	return []dictionary.Entry{
		{Word: "the", Frequency: 900},
		{Word: "to", Frequency: 800},
		{Word: "that", Frequency: 700},
		{Word: "this", Frequency: 600},
		{Word: "ನಮಸ್ಕಾರ", Frequency: 500},
		{Word: "they", Frequency: 400},
	}
}

func TestHotIndexLookup(t *testing.T) {
	hi := NewHotIndex(100)
	hi.Load(hotEntries())

	t.Run("frequency order", func(t *testing.T) {
		got := hi.Lookup("th", 10)
		require.Equal(t, "the", got[0].Word)
		require.Equal(t, "that", got[1].Word)
		require.Equal(t, "this", got[2].Word)
		require.Equal(t, "they", got[3].Word)
	})

	t.Run("limit", func(t *testing.T) {
		require.Len(t, hi.Lookup("th", 2), 2)
	})

	t.Run("typed word excluded", func(t *testing.T) {
		got := hi.Lookup("the", 10)
		require.Equal(t, []dictionary.Entry{{Word: "they", Frequency: 400}}, got)
	})

	t.Run("kannada prefix", func(t *testing.T) {
		got := hi.Lookup("ನಮ", 10)
		require.Len(t, got, 1)
		require.Equal(t, "ನಮಸ್ಕಾರ", got[0].Word)
	})

	t.Run("unknown prefix", func(t *testing.T) {
		require.Empty(t, hi.Lookup("zz", 10))
		require.Empty(t, hi.Lookup("", 10))
	})
}

func TestHotIndexCapacity(t *testing.T) {
	hi := NewHotIndex(3)
	hi.Load(hotEntries())

	require.Equal(t, 3, hi.Len())
	// Entries past capacity never made it in.
	require.Empty(t, hi.Lookup("this", 10))
	require.Empty(t, hi.Lookup("thi", 10))
}

func TestHotIndexReload(t *testing.T) {
	hi := NewHotIndex(100)
	hi.Load(hotEntries())
	hi.Load([]dictionary.Entry{{Word: "fresh", Frequency: 10}})

	require.Equal(t, 1, hi.Len())
	require.Empty(t, hi.Lookup("th", 10))
	require.Len(t, hi.Lookup("fr", 10), 1)

	stats := hi.Stats()
	require.Equal(t, 1, stats["hotWords"])
	require.Equal(t, 100, stats["maxHotWords"])
}
