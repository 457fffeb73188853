package suggest

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bhasha-kb/lipiserve/pkg/dictionary"
)

// HotIndex keeps the highest-frequency corpus words in a radix trie so that
// one- and two-rune prefixes, too short for a full dictionary walk to be
// worth it, still answer instantly. It is rebuilt wholesale on load and
// read-locked on every lookup.
type HotIndex struct {
	mu       sync.RWMutex
	trie     *patricia.Trie
	capacity int
	size     int
}

// DefaultHotWords is the stock hot-index capacity.
const DefaultHotWords = 5000

// NewHotIndex returns an empty index holding at most capacity words.
func NewHotIndex(capacity int) *HotIndex {
	if capacity <= 0 {
		capacity = DefaultHotWords
	}
	return &HotIndex{
		trie:     patricia.NewTrie(),
		capacity: capacity,
	}
}

// Load replaces the index content with the given entries, highest frequency
// first, keeping at most the configured capacity. Callers pass the output
// of a frequency-ranked dictionary scan.
func (hi *HotIndex) Load(entries []dictionary.Entry) {
	hi.mu.Lock()
	defer hi.mu.Unlock()

	hi.trie = patricia.NewTrie()
	hi.size = 0
	for _, e := range entries {
		if hi.size >= hi.capacity {
			break
		}
		if e.Word == "" {
			continue
		}
		if hi.trie.Insert(patricia.Prefix(e.Word), e.Frequency) {
			hi.size++
		}
	}
	log.Debugf("Hot index loaded with %d words", hi.size)
}

// Lookup returns up to limit hot words starting with prefix, ordered by
// descending frequency with lexicographic ties. The typed word itself is
// never returned as its own completion.
func (hi *HotIndex) Lookup(prefix string, limit int) []dictionary.Entry {
	if prefix == "" || limit <= 0 {
		return nil
	}

	hi.mu.RLock()
	defer hi.mu.RUnlock()

	var matches []dictionary.Entry
	err := hi.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		word := string(p)
		if word == prefix {
			return nil
		}
		matches = append(matches, dictionary.Entry{Word: word, Frequency: item.(uint32)})
		return nil
	})
	if err != nil {
		log.Errorf("Error searching hot index: %v", err)
		return nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Frequency != matches[j].Frequency {
			return matches[i].Frequency > matches[j].Frequency
		}
		return matches[i].Word < matches[j].Word
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Len reports how many words the index currently holds.
func (hi *HotIndex) Len() int {
	hi.mu.RLock()
	defer hi.mu.RUnlock()
	return hi.size
}

// Stats reports size and capacity for diagnostics.
func (hi *HotIndex) Stats() map[string]int {
	hi.mu.RLock()
	defer hi.mu.RUnlock()
	return map[string]int{
		"hotWords":    hi.size,
		"maxHotWords": hi.capacity,
	}
}
