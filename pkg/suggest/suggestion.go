/*
Package suggest defines the candidate model shared by every suggestion
source and implements the two stages that turn raw candidates into the
strip: feature scoring and rank fusion.

A candidate flows in tagged with the source that produced it, gets a feature
vector extracted against the typed prefix, is scored under configurable
weights, and is then merged, source-weighted, sorted and script-balanced by
the ranker. Feature vectors are ephemeral; nothing here outlives a query.
*/
package suggest

import "github.com/bhasha-kb/lipiserve/pkg/script"

// Source tags where a candidate came from. The order of the constants is
// meaningful: higher values win when the same word arrives from several
// sources and the merged record keeps one tag.
type Source int

const (
	// SourceDictionary is a static dictionary prefix completion.
	SourceDictionary Source = iota
	// SourceFrequency is a hot-words index hit (top corpus frequencies).
	SourceFrequency
	// SourceNgram is a next-word prediction from context models.
	SourceNgram
	// SourceUserLearned is a hit from the persistent learning store.
	SourceUserLearned
	// SourceExactMatch marks exact-match and abbreviation candidates.
	SourceExactMatch
)

var sourceNames = [...]string{"dict", "freq", "ngram", "user", "exact"}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return "unknown"
	}
	return sourceNames[s]
}

// Priority is the total order used both for merge bookkeeping and stable
// tie handling: ExactMatch > UserLearned > Ngram > Frequency > Dictionary.
func (s Source) Priority() int {
	return int(s)
}

// Suggestion is one ranked candidate as returned to the host.
type Suggestion struct {
	Word   string
	Score  float64
	Source Source
	Script script.Script
}
