package ngram

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// defaultNgramFreq is used when the optional trailing frequency column is
// absent or unparsable.
const defaultNgramFreq = 1.0

// LoadBigrams reads `word1<TAB>word2[<TAB>frequency]` lines into the model.
// Malformed lines are skipped, never fatal.
func (m *Model) LoadBigrams(path string) error {
	return m.loadFile(path, 2)
}

// LoadTrigrams reads `word1<TAB>word2<TAB>word3[<TAB>frequency]` lines.
func (m *Model) LoadTrigrams(path string) error {
	return m.loadFile(path, 3)
}

func (m *Model) loadFile(path string, arity int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ngram file %s: %w", path, err)
	}
	defer f.Close()

	var loaded, skipped int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitColumns(line)
		if len(fields) < arity || hasEmptyField(fields[:arity]) {
			skipped++
			continue
		}
		freq := defaultNgramFreq
		if len(fields) > arity {
			if v, err := strconv.ParseFloat(fields[arity], 64); err == nil && v > 0 {
				freq = v
			}
		}
		switch arity {
		case 2:
			m.AddBigram(fields[0], fields[1], freq)
		case 3:
			m.AddTrigram(fields[0], fields[1], fields[2], freq)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ngram file %s: %w", path, err)
	}
	if skipped > 0 {
		log.Debugf("Skipped %d malformed lines in %s", skipped, path)
	}
	log.Debugf("Loaded %d %d-grams from %s", loaded, arity, path)
	return nil
}

func hasEmptyField(fields []string) bool {
	for _, f := range fields {
		if f == "" {
			return true
		}
	}
	return false
}
