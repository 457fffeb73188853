/*
Package expand maps typed shorthand to full phrases. A built-in table covers
common Latin chat abbreviations plus a few Kannada courtesy forms; users can
shadow or extend it at runtime. Expansions surface through the suggestion
pipeline as top-pinned exact matches.
*/
package expand

import (
	"errors"
	"strings"
	"sync"
)

// builtins is the stock shorthand table. Keys are stored folded, which for
// Kannada means stored as typed: ToLower does not touch Kannada codepoints,
// so Latin lookups fold case while Kannada lookups stay exact.
var builtins = map[string]string{
	"btw":   "by the way",
	"brb":   "be right back",
	"lol":   "laughing out loud",
	"omg":   "oh my god",
	"idk":   "I don't know",
	"imo":   "in my opinion",
	"imho":  "in my humble opinion",
	"tbh":   "to be honest",
	"afaik": "as far as I know",
	"asap":  "as soon as possible",
	"fyi":   "for your information",
	"aka":   "also known as",
	"atm":   "at the moment",
	"eta":   "estimated time of arrival",
	"rn":    "right now",
	"dm":    "direct message",
	"irl":   "in real life",
	"ttyl":  "talk to you later",
	"gtg":   "got to go",
	"nvm":   "never mind",
	"pls":   "please",
	"plz":   "please",
	"thx":   "thanks",
	"ty":    "thank you",
	"np":    "no problem",
	"yw":    "you're welcome",
	"msg":   "message",
	"pic":   "picture",
	"ppl":   "people",
	"smh":   "shaking my head",
	"wbu":   "what about you",
	"hbu":   "how about you",
	"jk":    "just kidding",
	"bc":    "because",
	"cuz":   "because",
	"ofc":   "of course",

	"ನಮ":    "ನಮಸ್ಕಾರ",
	"ಧನ್ಯ":  "ಧನ್ಯವಾದ",
	"ದಯ":    "ದಯವಿಟ್ಟು",
	"ಕ್ಷಮ":  "ಕ್ಷಮಿಸಿ",
}

// ErrEmptyEntry rejects custom entries with a blank token or expansion.
var ErrEmptyEntry = errors.New("expand: token and expansion must be non-empty")

// Expander resolves shorthand tokens, letting user-defined entries shadow
// the built-in table. Safe for concurrent use.
type Expander struct {
	mu     sync.RWMutex
	custom map[string]string
}

// New returns an Expander with the built-in table and no custom entries.
func New() *Expander {
	return &Expander{custom: make(map[string]string)}
}

// Expand returns the phrase for token. Custom entries win over built-ins.
func (e *Expander) Expand(token string) (string, bool) {
	key := fold(token)
	if key == "" {
		return "", false
	}

	e.mu.RLock()
	phrase, ok := e.custom[key]
	e.mu.RUnlock()
	if ok {
		return phrase, true
	}

	phrase, ok = builtins[key]
	return phrase, ok
}

// SetCustom installs or replaces a user-defined expansion.
func (e *Expander) SetCustom(token, expansion string) error {
	key := fold(token)
	if key == "" || strings.TrimSpace(expansion) == "" {
		return ErrEmptyEntry
	}

	e.mu.Lock()
	e.custom[key] = expansion
	e.mu.Unlock()
	return nil
}

// RemoveCustom deletes a user-defined expansion. Built-ins cannot be
// removed, only shadowed.
func (e *Expander) RemoveCustom(token string) {
	key := fold(token)

	e.mu.Lock()
	delete(e.custom, key)
	e.mu.Unlock()
}

// Custom returns a copy of the user-defined table.
func (e *Expander) Custom() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]string, len(e.custom))
	for k, v := range e.custom {
		out[k] = v
	}
	return out
}

// CustomCount reports how many user-defined entries exist.
func (e *Expander) CustomCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.custom)
}

func fold(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
