// Package script classifies text between the Kannada and Latin scripts and
// maps keyboard layouts to their expected script and suggestion split.
package script

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Script identifies the dominant writing system of a piece of text.
type Script int

const (
	// Latin covers ASCII and extended Latin letters.
	Latin Script = iota
	// Kannada covers the U+0C80..U+0CFF block.
	Kannada
	// Mixed marks text with both scripts and no clear majority.
	Mixed
)

var scriptNames = [...]string{"latin", "kannada", "mixed"}

func (s Script) String() string {
	if s < 0 || int(s) >= len(scriptNames) {
		return "unknown"
	}
	return scriptNames[s]
}

// dominanceRatio is the share of codepoints one script needs to win outright.
const dominanceRatio = 0.7

// IsKannadaRune reports whether r falls inside the Kannada Unicode block.
func IsKannadaRune(r rune) bool {
	return r >= 0x0C80 && r <= 0x0CFF
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Detect classifies the dominant script of text by counting codepoints per
// script. Kannada wins above a 70% share, Latin likewise; anything else with
// both scripts present is Mixed. Empty or letterless input defaults to Latin.
func Detect(text string) Script {
	var kn, lat int
	for _, r := range text {
		switch {
		case IsKannadaRune(r):
			kn++
		case isLatinLetter(r):
			lat++
		}
	}
	total := kn + lat
	if total == 0 {
		return Latin
	}
	knShare := float64(kn) / float64(total)
	latShare := float64(lat) / float64(total)
	switch {
	case knShare > dominanceRatio:
		return Kannada
	case latShare > dominanceRatio:
		return Latin
	default:
		return Mixed
	}
}

// Of tags a single word's script. Callers use it to stamp suggestion
// records; punctuation does not count toward either script.
func Of(word string) Script {
	return Detect(word)
}

// Layout identifies the active keyboard layout reported by the host.
type Layout string

const (
	LayoutQwerty          Layout = "qwerty"
	LayoutKannada         Layout = "kannada"
	LayoutKannadaPhonetic Layout = "kannada_phonetic"
	LayoutKannadaCustom   Layout = "kannada_custom"
)

// StripWidth is the total number of suggestion slots on the strip.
const StripWidth = 5

// ParseLayout maps a layout identifier to a known Layout, falling back to
// qwerty for anything unrecognized.
func ParseLayout(s string) Layout {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case LayoutKannada:
		return LayoutKannada
	case LayoutKannadaPhonetic:
		return LayoutKannadaPhonetic
	case LayoutKannadaCustom:
		return LayoutKannadaCustom
	case LayoutQwerty:
		return LayoutQwerty
	default:
		return LayoutQwerty
	}
}

// ExpectedScript returns the script a layout predominantly produces.
func ExpectedScript(l Layout) Script {
	switch l {
	case LayoutKannada, LayoutKannadaPhonetic, LayoutKannadaCustom:
		return Kannada
	default:
		return Latin
	}
}

// SuggestionSplit returns the (kannada, latin) quota pair for a layout.
// The pair always sums to StripWidth.
func SuggestionSplit(l Layout) (kn, lat int) {
	switch l {
	case LayoutKannada, LayoutKannadaCustom:
		return StripWidth, 0
	case LayoutKannadaPhonetic:
		return 3, 2
	default:
		return 0, StripWidth
	}
}

// Normalize prepares raw host input for lookups: Kannada layouts get NFC
// canonicalization (the transliterator upstream can emit decomposed vowel
// signs), qwerty gets case folding.
func Normalize(text string, l Layout) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if ExpectedScript(l) == Kannada {
		return norm.NFC.String(text)
	}
	return strings.ToLower(text)
}
