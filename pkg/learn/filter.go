package learn

import (
	"database/sql"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// contextFilter is a pair of bloom filters over the context keys present in
// the n-gram tables. Next-word prediction probes the store on every commit;
// most contexts have never been learned, and the filter turns those probes
// into a memory test instead of a query. False positives only cost the
// query that would have run anyway.
type contextFilter struct {
	mu       sync.RWMutex
	bigrams  *bloom.BloomFilter
	trigrams *bloom.BloomFilter
}

// filterCapacity sizes the filters for a heavy typist's vocabulary; at 1%
// false positives the pair stays under 50 KB.
const (
	filterCapacity = 20000
	filterFPRate   = 0.01
)

func newContextFilter() *contextFilter {
	return &contextFilter{
		bigrams:  bloom.NewWithEstimates(filterCapacity, filterFPRate),
		trigrams: bloom.NewWithEstimates(filterCapacity, filterFPRate),
	}
}

// warm seeds the filters from the existing tables at open time.
func (f *contextFilter) warm(db *sql.DB) error {
	rows, err := db.Query(`SELECT DISTINCT word1 FROM user_bigrams`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return err
		}
		f.bigrams.AddString(foldKey(w))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	pairRows, err := db.Query(`SELECT DISTINCT word1, word2 FROM user_trigrams`)
	if err != nil {
		return err
	}
	defer pairRows.Close()
	for pairRows.Next() {
		var w1, w2 string
		if err := pairRows.Scan(&w1, &w2); err != nil {
			return err
		}
		f.trigrams.AddString(pairKey(w1, w2))
	}
	return pairRows.Err()
}

func (f *contextFilter) addBigramHead(w string) {
	f.mu.Lock()
	f.bigrams.AddString(foldKey(w))
	f.mu.Unlock()
}

func (f *contextFilter) addTrigramHead(w1, w2 string) {
	f.mu.Lock()
	f.trigrams.AddString(pairKey(w1, w2))
	f.mu.Unlock()
}

func (f *contextFilter) mayHaveBigram(w string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bigrams.TestString(foldKey(w))
}

func (f *contextFilter) mayHaveTrigram(w1, w2 string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.trigrams.TestString(pairKey(w1, w2))
}

func (f *contextFilter) reset() {
	f.mu.Lock()
	f.bigrams.ClearAll()
	f.trigrams.ClearAll()
	f.mu.Unlock()
}

func pairKey(w1, w2 string) string {
	return foldKey(w1) + "\x1f" + foldKey(w2)
}
