/*
Package engine wires the prediction subsystems into one completion service:
static dictionary indexes for both scripts, the frozen n-gram model, the
hot-words index for very short prefixes, the abbreviation expander and the
persistent learning store.

The engine is built cold and loads its assets on a background goroutine so
the host keyboard can show its UI immediately. Queries issued before loading
finishes return empty results instead of blocking; every public method is
safe to call from any state.
*/
package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/bhasha-kb/lipiserve/internal/utils"
	"github.com/bhasha-kb/lipiserve/pkg/config"
	"github.com/bhasha-kb/lipiserve/pkg/dictionary"
	"github.com/bhasha-kb/lipiserve/pkg/expand"
	"github.com/bhasha-kb/lipiserve/pkg/learn"
	"github.com/bhasha-kb/lipiserve/pkg/ngram"
	"github.com/bhasha-kb/lipiserve/pkg/script"
	"github.com/bhasha-kb/lipiserve/pkg/suggest"
)

// ErrLearningDisabled is returned by learning-store operations when the
// store is switched off in config or failed to open.
var ErrLearningDisabled = errors.New("engine: learning store disabled")

// expansionScore puts abbreviation expansions above every organic
// candidate before source multipliers are applied.
const expansionScore = 1e6

// State is the engine lifecycle phase.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// tuning is the snapshot of runtime-adjustable scoring parameters. Queries
// copy it once up front so a concurrent config reload cannot change the
// rules mid-pipeline.
type tuning struct {
	weights        suggest.Weights
	sources        suggest.SourceWeights
	fuzzyMaxDist   int
	fuzzyMinPrefix int
}

// Engine owns the loaded language assets and answers completion, prediction
// and learning requests.
type Engine struct {
	cfg     *config.Config
	dataDir string
	dbPath  string

	state atomic.Int32

	// Populated by the loader goroutine before the CAS to StateReady;
	// read only when State() == StateReady.
	latin   *dictionary.Index
	kannada *dictionary.Index
	ngrams  *ngram.Model
	hot     *suggest.HotIndex
	store   *learn.Store

	expander *expand.Expander
	context  *script.ContextTracker
	cache    *queryCache

	tuneMu sync.RWMutex
	tune   tuning

	mu         sync.Mutex
	loadCancel context.CancelFunc
	loadDone   chan struct{}
}

// New builds a cold engine from cfg. dataDir holds the dictionary and
// n-gram files, dbPath the learning database. Call InitializeAsync to load.
func New(cfg *config.Config, dataDir, dbPath string) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Engine{
		cfg:      cfg,
		dataDir:  dataDir,
		dbPath:   dbPath,
		expander: expand.New(),
		context:  script.NewContextTracker(),
		cache:    newQueryCache(cfg.Engine.CacheSize),
		tune: tuning{
			weights:        cfg.Weights.Clamped(),
			sources:        cfg.Sources.Clamped(),
			fuzzyMaxDist:   cfg.Fuzzy.MaxDistance,
			fuzzyMinPrefix: cfg.Fuzzy.MinPrefix,
		},
	}
	for token, phrase := range cfg.Engine.Abbreviations {
		if err := e.expander.SetCustom(token, phrase); err != nil {
			log.Warnf("Skipping configured abbreviation %q: %v", token, err)
		}
	}
	return e
}

// State reports the current lifecycle phase.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// InitializeAsync starts asset loading on a background goroutine and
// returns immediately. onReady, if non-nil, runs once loading finishes and
// the engine has entered StateReady. Calling it again, or after Shutdown,
// is a logged no-op.
func (e *Engine) InitializeAsync(onReady func()) {
	if !e.state.CompareAndSwap(int32(StateUninitialized), int32(StateLoading)) {
		log.Warnf("Initialize ignored in state %s", e.State())
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.mu.Lock()
	e.loadCancel = cancel
	e.loadDone = done
	e.mu.Unlock()
	go e.load(ctx, done, onReady)
}

// load brings up every subsystem, degrading to empty assets on missing or
// corrupt files. Only a Shutdown during loading aborts it.
func (e *Engine) load(ctx context.Context, done chan struct{}, onReady func()) {
	defer close(done)

	e.latin = e.loadDictionary(e.cfg.Dict.LatinFile)
	e.kannada = e.loadDictionary(e.cfg.Dict.KannadaFile)
	if ctx.Err() != nil {
		return
	}

	e.ngrams = e.loadNgrams()
	e.hot = e.buildHotIndex()
	if ctx.Err() != nil {
		return
	}

	if e.cfg.Learn.Enabled {
		e.store = e.openStore()
	}

	if !e.state.CompareAndSwap(int32(StateLoading), int32(StateReady)) {
		// Shutdown won the race; nothing published, clean up ourselves.
		if e.store != nil {
			e.store.Close()
		}
		return
	}
	log.Debugf("Engine ready: %d latin, %d kannada, %d bigram contexts, %d trigram contexts, %d hot words",
		e.latin.Len(), e.kannada.Len(), e.ngrams.BigramCount(), e.ngrams.TrigramCount(), e.hot.Len())
	if onReady != nil {
		onReady()
	}
}

// loadDictionary reads one word file under dataDir, capping it at
// Dict.MaxWords highest-frequency entries. Failures log and yield an empty
// index so the engine still comes up.
func (e *Engine) loadDictionary(name string) *dictionary.Index {
	if name == "" {
		return dictionary.Build(nil)
	}
	path := filepath.Join(e.dataDir, name)
	entries, err := dictionary.LoadFile(path, 0)
	if err != nil {
		log.Warnf("Dictionary %s unavailable: %v", path, err)
		return dictionary.Build(nil)
	}
	if max := e.cfg.Dict.MaxWords; max > 0 && len(entries) > max {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Frequency > entries[j].Frequency
		})
		entries = entries[:max]
		log.Debugf("Capped %s at %d words", name, max)
	}
	return dictionary.Build(entries)
}

func (e *Engine) loadNgrams() *ngram.Model {
	m := ngram.NewModel()
	if name := e.cfg.Dict.BigramFile; name != "" {
		if err := m.LoadBigrams(filepath.Join(e.dataDir, name)); err != nil {
			log.Warnf("Bigram model unavailable: %v", err)
		}
	}
	if name := e.cfg.Dict.TrigramFile; name != "" {
		if err := m.LoadTrigrams(filepath.Join(e.dataDir, name)); err != nil {
			log.Warnf("Trigram model unavailable: %v", err)
		}
	}
	m.Freeze()
	return m
}

// buildHotIndex seeds the short-prefix index with the top frequencies of
// both scripts merged.
func (e *Engine) buildHotIndex() *suggest.HotIndex {
	n := e.cfg.Dict.HotWords
	if n <= 0 {
		n = suggest.DefaultHotWords
	}
	top := e.latin.TopEntries(n)
	entries := make([]dictionary.Entry, 0, len(top)+n)
	entries = append(entries, top...)
	entries = append(entries, e.kannada.TopEntries(n)...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Frequency > entries[j].Frequency
	})
	hi := suggest.NewHotIndex(n)
	hi.Load(entries)
	return hi
}

func (e *Engine) openStore() *learn.Store {
	opts := learn.Options{
		MinWordLength: e.cfg.Learn.MinWordLength,
		MaxAgeDays:    e.cfg.Learn.MaxAgeDays,
		MinWordFreq:   int64(e.cfg.Learn.MinWordFreq),
		MinNgramFreq:  int64(e.cfg.Learn.MinNgramFreq),
	}
	st, err := learn.Open(e.dbPath, opts)
	if err != nil {
		log.Errorf("Learning store unavailable, continuing without: %v", err)
		return nil
	}
	if e.cfg.Learn.PruneOnStart {
		if err := st.PruneOldEntries(); err != nil {
			log.Warnf("Pruning learned entries: %v", err)
		}
	}
	return st
}

// Shutdown stops the engine and releases the learning store. A load in
// flight is cancelled and waited for. Safe to call more than once; after
// Shutdown the engine stays dead.
func (e *Engine) Shutdown() {
	prev := State(e.state.Swap(int32(StateShutdown)))
	if prev == StateShutdown {
		return
	}
	e.mu.Lock()
	cancel, done := e.loadCancel, e.loadDone
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if prev == StateReady && e.store != nil {
		if err := e.store.Close(); err != nil {
			log.Warnf("Closing learning store: %v", err)
		}
	}
	e.cache.purge()
	e.context.Reset()
	log.Debug("Engine shut down")
}

// snapshot copies the current tuning under the read lock.
func (e *Engine) snapshot() tuning {
	e.tuneMu.RLock()
	defer e.tuneMu.RUnlock()
	return e.tune
}

// Suggestions returns ranked completions for typedWord under the given
// layout, at most limit entries. limit <= 0 falls back to the layout's
// strip size. Empty input, unknown prefixes and a not-ready engine all
// yield an empty result.
func (e *Engine) Suggestions(typedWord, layoutID string, limit int) []suggest.Suggestion {
	if e.State() != StateReady {
		return nil
	}
	layout := script.ParseLayout(layoutID)
	if limit <= 0 {
		kn, lat := script.SuggestionSplit(layout)
		limit = kn + lat
	}
	raw := strings.TrimSpace(typedWord)
	typed := script.Normalize(typedWord, layout)
	if typed == "" {
		return nil
	}

	key := cacheKey(raw, string(layout), limit)
	if hit, ok := e.cache.get(key); ok {
		return hit
	}

	tune := e.snapshot()
	candidates := e.gather(typed, limit, tune)
	ranked := suggest.Rank(candidates, typed, limit*2, tune.sources)
	kn, lat := quotas(layout, limit)
	final := suggest.FilterByScript(ranked, kn, lat)

	if layout == script.LayoutQwerty {
		for i := range final {
			if final[i].Script != script.Kannada {
				final[i].Word = utils.ApplyTypedCase(raw, final[i].Word)
			}
		}
	}

	e.cache.add(key, final)
	return final
}

// gather collects scored candidates from every subsystem for one query.
func (e *Engine) gather(typed string, limit int, tune tuning) []suggest.Suggestion {
	var candidates []suggest.Suggestion

	if phrase, ok := e.expander.Expand(typed); ok {
		candidates = append(candidates, suggest.Suggestion{
			Word:   phrase,
			Score:  expansionScore,
			Source: suggest.SourceExactMatch,
			Script: script.Of(phrase),
		})
	}

	fetch := limit * 2
	typedLen := utf8.RuneCountInString(typed)

	// The index matching the typed script gets the fuzzy treatment; the
	// other script can only match exactly anyway.
	primary, secondary := e.latin, e.kannada
	if script.Of(typed) == script.Kannada {
		primary, secondary = e.kannada, e.latin
	}

	var entries []dictionary.Entry
	if tune.fuzzyMaxDist > 0 && typedLen >= tune.fuzzyMinPrefix {
		entries = primary.FuzzyCompletions(typed, fetch, tune.fuzzyMaxDist)
	} else {
		entries = primary.Completions(typed, fetch)
	}
	entries = append(entries, secondary.Completions(typed, fetch)...)
	for _, en := range entries {
		f := suggest.Extract(en.Word, typed, float64(en.Frequency))
		candidates = append(candidates, suggest.Suggestion{
			Word:   en.Word,
			Score:  suggest.Score(f, tune.weights),
			Source: suggest.SourceDictionary,
			Script: script.Of(en.Word),
		})
	}

	if typedLen < tune.fuzzyMinPrefix {
		for _, en := range e.hot.Lookup(typed, limit) {
			f := suggest.Extract(en.Word, typed, float64(en.Frequency))
			candidates = append(candidates, suggest.Suggestion{
				Word:   en.Word,
				Score:  suggest.Score(f, tune.weights),
				Source: suggest.SourceFrequency,
				Script: script.Of(en.Word),
			})
		}
	}

	if e.store != nil {
		for _, ws := range e.store.Suggestions(typed, limit) {
			candidates = append(candidates, learnedCandidate(ws, typed, 0, tune))
		}
	}

	w1, w2 := e.context.Last2()
	if w2 != "" {
		preds := e.ngrams.Predict(w1, w2, fetch)
		if top := topScore(preds); top > 0 {
			for _, p := range preds {
				if !utils.HasPrefixIgnoreCase(p.Word, typed) {
					continue
				}
				f := suggest.Extract(p.Word, typed, 0)
				f.ContextMatch = true
				f.ContextScore = p.Score / top
				candidates = append(candidates, suggest.Suggestion{
					Word:   p.Word,
					Score:  suggest.Score(f, tune.weights),
					Source: suggest.SourceNgram,
					Script: script.Of(p.Word),
				})
			}
		}
	}

	return candidates
}

// NextWordPredictions returns ranked next-word candidates from the current
// sentence context with no prefix typed yet. Empty context yields nothing.
func (e *Engine) NextWordPredictions(layoutID string, limit int) []suggest.Suggestion {
	if e.State() != StateReady {
		return nil
	}
	layout := script.ParseLayout(layoutID)
	if limit <= 0 {
		kn, lat := script.SuggestionSplit(layout)
		limit = kn + lat
	}
	w1, w2 := e.context.Last2()
	if w2 == "" {
		return nil
	}
	tune := e.snapshot()

	var candidates []suggest.Suggestion
	preds := e.ngrams.Predict(w1, w2, limit*2)
	if top := topScore(preds); top > 0 {
		for _, p := range preds {
			f := suggest.Extract(p.Word, "", 0)
			f.ContextMatch = true
			f.ContextScore = p.Score / top
			candidates = append(candidates, suggest.Suggestion{
				Word:   p.Word,
				Score:  suggest.Score(f, tune.weights),
				Source: suggest.SourceNgram,
				Script: script.Of(p.Word),
			})
		}
	}

	if e.store != nil {
		var learned []learn.WordScore
		if w1 != "" {
			learned = e.store.TrigramSuggestions(w1, w2, limit)
		}
		learned = append(learned, e.store.BigramSuggestions(w2, limit)...)
		var top float64
		for _, ws := range learned {
			if ws.Score > top {
				top = ws.Score
			}
		}
		for _, ws := range learned {
			var ctx float64
			if top > 0 {
				ctx = ws.Score / top
			}
			candidates = append(candidates, learnedCandidate(ws, "", ctx, tune))
		}
	}

	ranked := suggest.Rank(candidates, "", limit*2, tune.sources)
	kn, lat := quotas(layout, limit)
	return suggest.FilterByScript(ranked, kn, lat)
}

// CommitWord records that the user accepted or finished typing word: the
// sentence context advances and, when learning is on, the word and its
// n-gram contexts are persisted. Cached query results are invalidated.
func (e *Engine) CommitWord(word string) {
	if e.State() != StateReady {
		return
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}
	w1, w2 := e.context.Last2()
	e.context.Add(word)

	if e.store != nil {
		e.store.AddWord(word)
		if w2 != "" {
			e.store.AddBigram(w2, word)
		}
		if w1 != "" && w2 != "" {
			e.store.AddTrigram(w1, w2, word)
		}
	}
	e.cache.purge()
}

// ResetContext clears the sentence context, e.g. when the host keyboard
// moves to a new input field.
func (e *Engine) ResetContext() {
	e.context.Reset()
	e.cache.purge()
}

// SetAbbreviation adds or replaces a custom abbreviation at runtime.
func (e *Engine) SetAbbreviation(token, phrase string) error {
	if err := e.expander.SetCustom(token, phrase); err != nil {
		return err
	}
	e.cache.purge()
	return nil
}

// RemoveAbbreviation drops a custom abbreviation. Builtins cannot be
// removed, only shadowed.
func (e *Engine) RemoveAbbreviation(token string) {
	e.expander.RemoveCustom(token)
	e.cache.purge()
}

// Abbreviations returns a copy of the custom abbreviation table.
func (e *Engine) Abbreviations() map[string]string {
	return e.expander.Custom()
}

// ClearLearned wipes the learning store.
func (e *Engine) ClearLearned() error {
	if e.State() != StateReady || e.store == nil {
		return ErrLearningDisabled
	}
	if err := e.store.ClearAll(); err != nil {
		return err
	}
	e.cache.purge()
	return nil
}

// PruneLearned applies the retention policy to the learning store now.
func (e *Engine) PruneLearned() error {
	if e.State() != StateReady || e.store == nil {
		return ErrLearningDisabled
	}
	if err := e.store.PruneOldEntries(); err != nil {
		return err
	}
	e.cache.purge()
	return nil
}

// ApplyConfig adopts the runtime-tunable parts of a freshly loaded config:
// scoring weights, source multipliers and fuzzy thresholds. Dictionary,
// n-gram and store settings need a restart to change.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	e.tuneMu.Lock()
	e.tune = tuning{
		weights:        cfg.Weights.Clamped(),
		sources:        cfg.Sources.Clamped(),
		fuzzyMaxDist:   cfg.Fuzzy.MaxDistance,
		fuzzyMinPrefix: cfg.Fuzzy.MinPrefix,
	}
	e.tuneMu.Unlock()
	e.cache.purge()
	log.Debug("Engine tuning updated from config")
}

// ApplyWeights swaps the scoring weights and source multipliers directly.
func (e *Engine) ApplyWeights(w suggest.Weights, sw suggest.SourceWeights) {
	e.tuneMu.Lock()
	e.tune.weights = w.Clamped()
	e.tune.sources = sw.Clamped()
	e.tuneMu.Unlock()
	e.cache.purge()
}

// Stats is a point-in-time snapshot of loaded asset sizes and the script
// the user has been committing in.
type Stats struct {
	State          string `msgpack:"state"`
	LatinWords     int    `msgpack:"latin_words"`
	KannadaWords   int    `msgpack:"kannada_words"`
	Bigrams        int    `msgpack:"bigrams"`
	Trigrams       int    `msgpack:"trigrams"`
	HotWords       int    `msgpack:"hot_words"`
	LearnedWords   int64  `msgpack:"learned_words"`
	CachedQueries  int    `msgpack:"cached_queries"`
	Abbreviations  int    `msgpack:"abbreviations"`
	DominantScript string `msgpack:"dominant_script"`
}

// Stats reports asset sizes; zero counts outside StateReady.
func (e *Engine) Stats() Stats {
	st := Stats{State: e.State().String()}
	if e.State() != StateReady {
		return st
	}
	st.LatinWords = e.latin.Len()
	st.KannadaWords = e.kannada.Len()
	st.Bigrams = e.ngrams.BigramCount()
	st.Trigrams = e.ngrams.TrigramCount()
	st.HotWords = e.hot.Len()
	if e.store != nil {
		st.LearnedWords = e.store.WordCount()
	}
	st.CachedQueries = e.cache.len()
	st.Abbreviations = e.expander.CustomCount()
	st.DominantScript = e.context.Dominant().String()
	return st
}

// learnedCandidate scores one learning-store hit. The store's decayed score
// splits into a per-use recency boost; ctxScore > 0 marks an n-gram context
// match from the store.
func learnedCandidate(ws learn.WordScore, typed string, ctxScore float64, tune tuning) suggest.Suggestion {
	f := suggest.Extract(ws.Word, typed, float64(ws.Frequency))
	f.IsUserLearned = true
	f.UserFrequency = float64(ws.Frequency)
	if ws.Frequency > 0 {
		f.RecencyBoost = ws.Score / float64(ws.Frequency)
	}
	if ctxScore > 0 {
		f.ContextMatch = true
		f.ContextScore = ctxScore
	}
	return suggest.Suggestion{
		Word:   ws.Word,
		Score:  suggest.Score(f, tune.weights),
		Source: suggest.SourceUserLearned,
		Script: ws.Script,
	}
}

// quotas scales the layout's strip split to an arbitrary limit, keeping the
// Kannada share proportional.
func quotas(l script.Layout, limit int) (kn, lat int) {
	k, la := script.SuggestionSplit(l)
	total := k + la
	if total <= 0 {
		return 0, limit
	}
	if limit == total {
		return k, la
	}
	kn = limit * k / total
	return kn, limit - kn
}

func topScore(preds []ngram.Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	return preds[0].Score
}
