/*
Package ngram holds the static next-word model: bigram and trigram frequency
tables bulk-loaded from corpus files at startup.

The model is frozen once the engine finishes loading; per-user adaptation
happens in the learning store, not here.
*/
package ngram

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// trigramWeight boosts predictions backed by two words of context over
// plain bigram hits.
const trigramWeight = 1.5

// keySep joins trigram context words into one map key. Unit separator
// cannot appear in words.
const keySep = "\x1f"

// Prediction is one next-word candidate with its combined model score.
type Prediction struct {
	Word  string
	Score float64
}

// Model is the in-memory n-gram table set. Mutations are only valid before
// Freeze; afterwards the maps are read concurrently without locks.
type Model struct {
	bigrams  map[string]map[string]float64
	trigrams map[string]map[string]float64
	frozen   atomic.Bool
}

// NewModel returns an empty, mutable model.
func NewModel() *Model {
	return &Model{
		bigrams:  make(map[string]map[string]float64),
		trigrams: make(map[string]map[string]float64),
	}
}

// AddBigram upserts the frequency for w1→w2. Repeated keys overwrite, so a
// file with duplicates takes the last value.
func (m *Model) AddBigram(w1, w2 string, freq float64) {
	if m.frozen.Load() {
		log.Warn("Ignoring bigram insert on frozen model")
		return
	}
	if w1 == "" || w2 == "" {
		return
	}
	next, ok := m.bigrams[w1]
	if !ok {
		next = make(map[string]float64)
		m.bigrams[w1] = next
	}
	next[w2] = freq
}

// AddTrigram upserts the frequency for (w1,w2)→w3.
func (m *Model) AddTrigram(w1, w2, w3 string, freq float64) {
	if m.frozen.Load() {
		log.Warn("Ignoring trigram insert on frozen model")
		return
	}
	if w1 == "" || w2 == "" || w3 == "" {
		return
	}
	key := w1 + keySep + w2
	next, ok := m.trigrams[key]
	if !ok {
		next = make(map[string]float64)
		m.trigrams[key] = next
	}
	next[w3] = freq
}

// Freeze marks the model read-only. Loading is done; every later Add is a
// logged no-op.
func (m *Model) Freeze() {
	m.frozen.Store(true)
}

// BigramCount reports how many context words have bigram continuations.
func (m *Model) BigramCount() int {
	return len(m.bigrams)
}

// TrigramCount reports how many context pairs have trigram continuations.
func (m *Model) TrigramCount() int {
	return len(m.trigrams)
}

// Predict returns up to limit next-word candidates for the context
// (context1, context2), where context2 is the most recent word and context1
// may be empty. Trigram continuations weigh 1.5x bigram ones; a word backed
// by both sums the two contributions. Results are score-descending with
// lexicographic tie-breaks.
func (m *Model) Predict(context1, context2 string, limit int) []Prediction {
	if limit <= 0 || context2 == "" {
		return nil
	}

	scores := make(map[string]float64)
	if context1 != "" {
		if next, ok := m.trigrams[context1+keySep+context2]; ok {
			for w, f := range next {
				scores[w] += f * trigramWeight
			}
		}
	}
	if next, ok := m.bigrams[context2]; ok {
		for w, f := range next {
			scores[w] += f
		}
	}
	if len(scores) == 0 {
		return nil
	}

	out := make([]Prediction, 0, len(scores))
	for w, s := range scores {
		out = append(out, Prediction{Word: w, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// splitColumns splits a model line into trimmed tab-separated fields.
func splitColumns(line string) []string {
	fields := strings.Split(line, "\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
