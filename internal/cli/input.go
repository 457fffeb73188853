// Package cli is the interactive debug loop for exercising the engine from
// a terminal.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bhasha-kb/lipiserve/internal/utils"
	"github.com/bhasha-kb/lipiserve/pkg/engine"
	"github.com/bhasha-kb/lipiserve/pkg/suggest"
)

// InputHandler reads words from stdin and prints ranked suggestions.
// Prefixing a word with '+' commits it and shows the next-word predictions
// that follow it; ':reset' clears the sentence context.
type InputHandler struct {
	engine       *engine.Engine
	layout       string
	suggestLimit int
	noFilter     bool
}

// NewInputHandler wires the debug loop to a running engine.
func NewInputHandler(eng *engine.Engine, layout string, limit int, noFilter bool) *InputHandler {
	return &InputHandler{
		engine:       eng,
		layout:       layout,
		suggestLimit: limit,
		noFilter:     noFilter,
	}
}

// Start begins the interface loop. It keeps prompting until reading stdin
// fails, Ctrl+C included.
func (h *InputHandler) Start() error {
	log.Printf("LipiServe CLI (layout: %s)", h.layout)
	log.Print("type a word for suggestions, +word to commit it, :reset to clear context (Ctrl+C to exit):")
	reader := bufio.NewReader(os.Stdin)

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) handleInput(line string) {
	switch {
	case line == ":reset":
		h.engine.ResetContext()
		log.Print("Context cleared")
	case strings.HasPrefix(line, "+"):
		h.commit(strings.TrimSpace(strings.TrimPrefix(line, "+")))
	default:
		h.suggest(line)
	}
}

func (h *InputHandler) suggest(word string) {
	if !h.noFilter && !utils.IsValidInput(word) {
		log.Infof("No results for %q", word)
		return
	}

	start := time.Now()
	results := h.engine.Suggestions(word, h.layout, h.suggestLimit)
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for %q", elapsed, word)

	if len(results) == 0 {
		log.Warnf("No suggestions for %q", word)
		return
	}
	log.Printf("Found %d suggestions for %q:", len(results), word)
	printResults(results)
}

func (h *InputHandler) commit(word string) {
	if word == "" {
		log.Error("Nothing to commit")
		return
	}
	if !h.noFilter && !utils.IsValidInput(word) {
		log.Warnf("Not learning %q", word)
		return
	}
	h.engine.CommitWord(word)
	log.Printf("Committed %q", word)

	predictions := h.engine.NextWordPredictions(h.layout, h.suggestLimit)
	if len(predictions) == 0 {
		return
	}
	log.Print("Next-word predictions:")
	printResults(predictions)
}

func printResults(results []suggest.Suggestion) {
	for i, s := range results {
		word := fmt.Sprintf("\033[38;5;75m%s\033[0m", s.Word)
		log.Printf("%2d. %-40s %-6s %-8s %9.1f", i+1, word, s.Source, s.Script, s.Score)
	}
}
