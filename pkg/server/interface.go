/*
Package server implements the msgpack IPC surface of the completion engine.

Requests and responses travel as consecutive msgpack values over
stdin/stdout, one response per request, in order. Every request carries an
"id" echoed back in its response and an "op" naming the operation; the
remaining fields depend on the op and are decoded in a second pass by the
matching handler.

A completion request and its response:

	{"id": "q1", "op": "suggest", "p": "nam", "layout": "kannada_phonetic", "l": 5}
	{"id": "q1", "s": [{"w": "ನಮಸ್ಕಾರ", "r": 1, "src": 4, "scr": 1}], "c": 1, "t": 180}

Next-word prediction reuses the response shape with nothing typed yet:

	{"id": "q2", "op": "next", "layout": "qwerty", "l": 3}

Commits advance the sentence context and feed the learning store:

	{"id": "c1", "op": "commit", "w": "ನಮಸ್ಕಾರ"}

Management ops (abbrev, config, stats, reset, learn_clear, prune, health)
use full-name fields; only the hot completion path gets single-letter tags.
TimeTaken is microseconds, a keyboard host budgets whole round trips in the
low milliseconds.

Failures come back as {"id", "e", "c"} frames with HTTP-flavored codes:
400 for malformed or out-of-bounds requests, 500 for internal errors.
*/
package server

import "github.com/bhasha-kb/lipiserve/pkg/engine"

// Envelope is the first-pass decode of any request frame. It doubles as
// the full request for ops that take no arguments: reset, stats,
// learn_clear, prune and health.
type Envelope struct {
	ID string `msgpack:"id"`
	Op string `msgpack:"op"`
}

// SuggestRequest asks for completions of a typed word.
type SuggestRequest struct {
	ID     string `msgpack:"id"`
	Op     string `msgpack:"op"`
	Word   string `msgpack:"p"`
	Layout string `msgpack:"layout,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
}

// NextRequest asks for next-word predictions from the current context.
type NextRequest struct {
	ID     string `msgpack:"id"`
	Op     string `msgpack:"op"`
	Layout string `msgpack:"layout,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
}

// SuggestionItem is one ranked candidate. Source and Script carry the
// engine's enum values so hosts can style entries without string matching.
type SuggestionItem struct {
	Word   string `msgpack:"w"`
	Rank   uint16 `msgpack:"r"`
	Source int    `msgpack:"src"`
	Script int    `msgpack:"scr"`
}

// SuggestResponse answers both suggest and next ops.
type SuggestResponse struct {
	ID          string           `msgpack:"id"`
	Suggestions []SuggestionItem `msgpack:"s"`
	Count       int              `msgpack:"c"`
	TimeTaken   int64            `msgpack:"t"`
}

// CommitRequest records a word the user accepted or finished typing.
type CommitRequest struct {
	ID   string `msgpack:"id"`
	Op   string `msgpack:"op"`
	Word string `msgpack:"w"`
}

// StatusResponse acknowledges ops that return no payload.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
	State  string `msgpack:"state,omitempty"`
}

// StatsResponse wraps an engine snapshot.
type StatsResponse struct {
	ID    string       `msgpack:"id"`
	Stats engine.Stats `msgpack:"stats"`
}

// AbbrevRequest manages the custom abbreviation table.
// Actions: "set", "remove", "list".
type AbbrevRequest struct {
	ID     string `msgpack:"id"`
	Op     string `msgpack:"op"`
	Action string `msgpack:"action"`
	Token  string `msgpack:"token,omitempty"`
	Phrase string `msgpack:"phrase,omitempty"`
}

// AbbrevResponse answers abbreviation ops; Abbreviations is only set for
// the list action.
type AbbrevResponse struct {
	ID            string            `msgpack:"id"`
	Status        string            `msgpack:"status"`
	Abbreviations map[string]string `msgpack:"abbreviations,omitempty"`
}

// ConfigRequest reads or updates the server limits at runtime.
// Actions: "get", "update". Nil update fields keep their current value.
type ConfigRequest struct {
	ID           string `msgpack:"id"`
	Op           string `msgpack:"op"`
	Action       string `msgpack:"action"`
	MaxLimit     *int   `msgpack:"max_limit,omitempty"`
	MinPrefix    *int   `msgpack:"min_prefix,omitempty"`
	MaxPrefix    *int   `msgpack:"max_prefix,omitempty"`
	EnableFilter *bool  `msgpack:"enable_filter,omitempty"`
}

// ConfigResponse reports the active server limits.
type ConfigResponse struct {
	ID           string `msgpack:"id"`
	Status       string `msgpack:"status"`
	MaxLimit     int    `msgpack:"max_limit"`
	MinPrefix    int    `msgpack:"min_prefix"`
	MaxPrefix    int    `msgpack:"max_prefix"`
	EnableFilter bool   `msgpack:"enable_filter"`
}

// RequestError carries op failures back to the client.
type RequestError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
