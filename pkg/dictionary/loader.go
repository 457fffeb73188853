package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultFrequency is assumed for lines that omit or garble the frequency
// column. Loads never fail over a bad number.
const DefaultFrequency uint32 = 1000

// LoadFile reads a word list in `word<TAB>frequency` form. Blank lines and
// lines starting with '#' are skipped; a missing or unparsable frequency
// falls back to defaultFreq; malformed lines are dropped individually.
func LoadFile(path string, defaultFreq uint32) ([]Entry, error) {
	if defaultFreq == 0 {
		defaultFreq = DefaultFrequency
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer f.Close()

	var (
		entries []Entry
		skipped int
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		word := strings.TrimSpace(fields[0])
		if word == "" {
			skipped++
			continue
		}
		freq := defaultFreq
		if len(fields) > 1 {
			if v, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 32); err == nil {
				freq = uint32(v)
			}
		}
		entries = append(entries, Entry{Word: word, Frequency: freq})
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	if skipped > 0 {
		log.Debugf("Skipped %d malformed lines in %s", skipped, path)
	}
	return entries, nil
}

// LoadIndex builds a frozen index straight from a word-list file.
func LoadIndex(path string, defaultFreq uint32) (*Index, error) {
	entries, err := LoadFile(path, defaultFreq)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded %d words from %s", len(entries), path)
	return Build(entries), nil
}
