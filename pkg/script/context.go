package script

import "sync"

// historySize caps how many recent words the tracker remembers.
const historySize = 10

// ContextTracker keeps a bounded window of recently committed words and
// reports which script the user is currently writing in. The host can use
// the dominant script to pre-select a layout on field focus.
type ContextTracker struct {
	mu    sync.RWMutex
	words []string
}

// NewContextTracker returns an empty tracker.
func NewContextTracker() *ContextTracker {
	return &ContextTracker{words: make([]string, 0, historySize)}
}

// Add records a committed word, evicting the oldest once the window is full.
func (t *ContextTracker) Add(word string) {
	if word == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.words) >= historySize {
		copy(t.words, t.words[1:])
		t.words = t.words[:historySize-1]
	}
	t.words = append(t.words, word)
}

// Dominant returns the majority script across the window, Latin when the
// window is empty or tied.
func (t *ContextTracker) Dominant() Script {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var kn, lat int
	for _, w := range t.words {
		switch Of(w) {
		case Kannada:
			kn++
		case Latin:
			lat++
		}
	}
	if kn > lat {
		return Kannada
	}
	return Latin
}

// Last2 returns the two most recent words as (older, newer). Either may be
// empty when the window holds fewer than two words.
func (t *ContextTracker) Last2() (w1, w2 string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.words)
	if n >= 1 {
		w2 = t.words[n-1]
	}
	if n >= 2 {
		w1 = t.words[n-2]
	}
	return w1, w2
}

// Words returns a copy of the current window, oldest first.
func (t *ContextTracker) Words() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.words))
	copy(out, t.words)
	return out
}

// Reset clears the window.
func (t *ContextTracker) Reset() {
	t.mu.Lock()
	t.words = t.words[:0]
	t.mu.Unlock()
}
