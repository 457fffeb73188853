/*
Package learn persists the per-user adaptation state: word, bigram and
trigram frequencies with last-use timestamps, stored in a local SQLite
database so learned vocabulary survives restarts.

Every read on the suggestion path is a bounded, index-backed lookup; writes
happen on commit only and are serialized through a single mutex so no reader
ever observes a half-applied upsert. A write failure costs one lost
increment, never the process.
*/
package learn

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/bhasha-kb/lipiserve/internal/utils"
	"github.com/bhasha-kb/lipiserve/pkg/script"
)

// ErrClosed is returned by mutating calls after Close.
var ErrClosed = errors.New("learn: store is closed")

// Options tune retention and learning thresholds.
type Options struct {
	// MinWordLength is the shortest word worth learning, in runes.
	MinWordLength int
	// MaxAgeDays is the retention horizon for pruning and the recency
	// decay window.
	MaxAgeDays int
	// MinWordFreq is the frequency floor below which an aged word is
	// pruned. Aged n-grams use the lower MinNgramFreq floor instead.
	MinWordFreq  int64
	MinNgramFreq int64
}

// DefaultOptions returns the retention policy shipped with the engine.
func DefaultOptions() Options {
	return Options{
		MinWordLength: 2,
		MaxAgeDays:    90,
		MinWordFreq:   3,
		MinNgramFreq:  2,
	}
}

func (o Options) sanitized() Options {
	d := DefaultOptions()
	if o.MinWordLength < 1 {
		o.MinWordLength = d.MinWordLength
	}
	if o.MaxAgeDays < 1 {
		o.MaxAgeDays = d.MaxAgeDays
	}
	if o.MinWordFreq < 1 {
		o.MinWordFreq = d.MinWordFreq
	}
	if o.MinNgramFreq < 1 {
		o.MinNgramFreq = d.MinNgramFreq
	}
	return o
}

// WordScore is one learned candidate with its recency-decayed score.
type WordScore struct {
	Word      string
	Score     float64
	Frequency int64
	Script    script.Script
}

// Store is the durable learning ledger backed by a libsql database file.
type Store struct {
	db   *sql.DB
	opts Options

	mu     sync.Mutex // serializes upsert read-check-then-write sequences
	closed bool

	heads *contextFilter

	// now is swappable in tests to age entries deterministically.
	now func() time.Time
}

// Open creates or opens the store at path, applying the schema when needed.
func Open(path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:    db,
		opts:  opts.sanitized(),
		heads: newContextFilter(),
		now:   time.Now,
	}
	if err := s.heads.warm(db); err != nil {
		// The filter is a fast-path only; a cold filter just means extra
		// lookups until the next write.
		log.Warnf("Could not warm context filter: %v", err)
	}
	log.Debugf("Learning store open at %s", path)
	return s, nil
}

// Close releases the database handle. Safe to call twice.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// AddWord upserts a committed word: first commit stores frequency 1, every
// repeat increments it, and both refresh last_used and the script tag.
// Words shorter than MinWordLength runes are ignored. Failures are logged
// and swallowed; a lost increment is acceptable, a crash is not.
func (s *Store) AddWord(word string) {
	if utf8.RuneCountInString(word) < s.opts.MinWordLength {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO user_words (word, frequency, last_used, script)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT(word) DO UPDATE SET
		   frequency = frequency + 1,
		   last_used = excluded.last_used,
		   script    = excluded.script`,
		word, s.now().Unix(), script.Of(word).String(),
	)
	if err != nil {
		log.Errorf("Learning word %q: %v", word, err)
	}
}

// AddBigram upserts the (prev, next) pair.
func (s *Store) AddBigram(w1, w2 string) {
	if w1 == "" || w2 == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO user_bigrams (word1, word2, frequency, last_used)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT(word1, word2) DO UPDATE SET
		   frequency = frequency + 1,
		   last_used = excluded.last_used`,
		w1, w2, s.now().Unix(),
	)
	if err != nil {
		log.Errorf("Learning bigram %q %q: %v", w1, w2, err)
		return
	}
	s.heads.addBigramHead(w1)
}

// AddTrigram upserts the (prev2, prev1, next) triple.
func (s *Store) AddTrigram(w1, w2, w3 string) {
	if w1 == "" || w2 == "" || w3 == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO user_trigrams (word1, word2, word3, frequency, last_used)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(word1, word2, word3) DO UPDATE SET
		   frequency = frequency + 1,
		   last_used = excluded.last_used`,
		w1, w2, w3, s.now().Unix(),
	)
	if err != nil {
		log.Errorf("Learning trigram %q %q %q: %v", w1, w2, w3, err)
		return
	}
	s.heads.addTrigramHead(w1, w2)
}

// recencyBoost decays linearly with age over the retention window and never
// drops below 0.1, so an old-but-frequent word keeps a tenth of its weight.
func (s *Store) recencyBoost(lastUsed int64) float64 {
	ageDays := s.now().Sub(time.Unix(lastUsed, 0)).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	boost := 1 - ageDays/float64(s.opts.MaxAgeDays)
	if boost < 0.1 {
		boost = 0.1
	}
	return boost
}

// overfetch widens bounded queries so recency re-scoring has headroom to
// reorder past the SQL frequency sort.
const overfetch = 3

// Suggestions returns learned words matching prefix case-insensitively,
// scored frequency x recency and sorted score descending, last_used
// breaking ties.
func (s *Store) Suggestions(prefix string, limit int) []WordScore {
	if limit <= 0 || prefix == "" || s.isClosed() {
		return nil
	}
	rows, err := s.db.Query(
		`SELECT word, frequency, last_used FROM user_words
		 WHERE word LIKE ? ESCAPE '\'
		 ORDER BY frequency DESC, last_used DESC
		 LIMIT ?`,
		escapeLike(prefix)+"%", limit*overfetch,
	)
	if err != nil {
		log.Errorf("Learned suggestions for %q: %v", prefix, err)
		return nil
	}
	defer rows.Close()
	return s.collect(rows, limit, 1.0)
}

// BigramSuggestions returns learned continuations of prev.
func (s *Store) BigramSuggestions(prev string, limit int) []WordScore {
	if limit <= 0 || prev == "" || s.isClosed() {
		return nil
	}
	if !s.heads.mayHaveBigram(prev) {
		return nil
	}
	rows, err := s.db.Query(
		`SELECT word2, frequency, last_used FROM user_bigrams
		 WHERE word1 = ?
		 ORDER BY frequency DESC, last_used DESC
		 LIMIT ?`,
		prev, limit*overfetch,
	)
	if err != nil {
		log.Errorf("Learned bigrams for %q: %v", prev, err)
		return nil
	}
	defer rows.Close()
	return s.collect(rows, limit, 1.0)
}

// trigramBoost mirrors the static model: two words of matching context are
// stronger evidence than one.
const trigramBoost = 1.5

// TrigramSuggestions returns learned continuations of the (prev2, prev1)
// pair, boosted 1.5x over bigram hits.
func (s *Store) TrigramSuggestions(prev2, prev1 string, limit int) []WordScore {
	if limit <= 0 || prev2 == "" || prev1 == "" || s.isClosed() {
		return nil
	}
	if !s.heads.mayHaveTrigram(prev2, prev1) {
		return nil
	}
	rows, err := s.db.Query(
		`SELECT word3, frequency, last_used FROM user_trigrams
		 WHERE word1 = ? AND word2 = ?
		 ORDER BY frequency DESC, last_used DESC
		 LIMIT ?`,
		prev2, prev1, limit*overfetch,
	)
	if err != nil {
		log.Errorf("Learned trigrams for %q %q: %v", prev2, prev1, err)
		return nil
	}
	defer rows.Close()
	return s.collect(rows, limit, trigramBoost)
}

// collect consumes rows of (word, frequency, last_used), applies the recency
// decay and the caller's multiplier, and returns the top entries. The script
// tag is derived from the word itself rather than read back from storage.
func (s *Store) collect(rows *sql.Rows, limit int, multiplier float64) []WordScore {
	type scored struct {
		WordScore
		lastUsed int64
	}
	var all []scored
	for rows.Next() {
		var (
			word     string
			freq     int64
			lastUsed int64
		)
		if err := rows.Scan(&word, &freq, &lastUsed); err != nil {
			log.Errorf("Scanning learned row: %v", err)
			continue
		}
		ws := WordScore{
			Word:      word,
			Score:     float64(freq) * s.recencyBoost(lastUsed) * multiplier,
			Frequency: freq,
			Script:    script.Of(word),
		}
		all = append(all, scored{WordScore: ws, lastUsed: lastUsed})
	}
	if err := rows.Err(); err != nil {
		log.Errorf("Iterating learned rows: %v", err)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].lastUsed > all[j].lastUsed
	})
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]WordScore, len(all))
	for i := range all {
		out[i] = all[i].WordScore
	}
	return out
}

// ContainsWord reports whether word has been learned.
func (s *Store) ContainsWord(word string) bool {
	if word == "" || s.isClosed() {
		return false
	}
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM user_words WHERE word = ?`, word).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false
	case err != nil:
		log.Errorf("Checking learned word %q: %v", word, err)
		return false
	}
	return true
}

// WordFrequency returns the learned frequency of word, 0 when unknown.
func (s *Store) WordFrequency(word string) int64 {
	if word == "" || s.isClosed() {
		return 0
	}
	var freq int64
	err := s.db.QueryRow(`SELECT frequency FROM user_words WHERE word = ?`, word).Scan(&freq)
	switch {
	case err == sql.ErrNoRows:
		return 0
	case err != nil:
		log.Errorf("Reading frequency of %q: %v", word, err)
		return 0
	}
	return freq
}

// WordCount reports how many distinct words the store holds.
func (s *Store) WordCount() int64 {
	if s.isClosed() {
		return 0
	}
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM user_words`).Scan(&n); err != nil {
		log.Errorf("Counting learned words: %v", err)
		return 0
	}
	return n
}

// PruneOldEntries drops entries that are both past the retention horizon
// and below their frequency floor. Entries meeting only one condition
// survive.
func (s *Store) PruneOldEntries() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cutoff := s.now().AddDate(0, 0, -s.opts.MaxAgeDays).Unix()

	var pruned int64
	res, err := s.db.Exec(
		`DELETE FROM user_words WHERE last_used < ? AND frequency < ?`,
		cutoff, s.opts.MinWordFreq,
	)
	if err != nil {
		return fmt.Errorf("prune words: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		pruned += n
	}
	for _, table := range []string{"user_bigrams", "user_trigrams"} {
		res, err := s.db.Exec(
			`DELETE FROM `+table+` WHERE last_used < ? AND frequency < ?`,
			cutoff, s.opts.MinNgramFreq,
		)
		if err != nil {
			return fmt.Errorf("prune %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			pruned += n
		}
	}
	if pruned > 0 {
		log.Debugf("Pruned %d stale learned entries", pruned)
	}
	return nil
}

// ClearAll wipes every learned table and resets the context filter.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, table := range []string{"user_words", "user_bigrams", "user_trigrams"} {
		if _, err := s.db.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	s.heads.reset()
	return nil
}

// foldKey matches the filter's key folding to the ASCII case folding the
// NOCASE columns use; over-folding non-ASCII only risks a wasted query,
// never a missed row.
func foldKey(s string) string {
	return strings.ToLower(s)
}

// escapeLike escapes LIKE metacharacters so a typed prefix is always a
// literal match.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
