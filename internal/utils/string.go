package utils

import (
	"strings"
	"unicode"
)

// ApplyTypedCase transfers the capitalization of the typed prefix onto a
// suggested word: an all-caps prefix of two or more letters uppercases the
// whole suggestion, a single leading capital capitalizes its first rune,
// anything else leaves the suggestion as stored. Kannada has no case, so
// Kannada input never triggers either rule.
func ApplyTypedCase(typed, word string) string {
	if typed == "" || word == "" {
		return word
	}
	tr := []rune(typed)
	if !unicode.IsUpper(tr[0]) {
		return word
	}

	letters, uppers := 0, 0
	for _, r := range tr {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters >= 2 && uppers == letters {
		return strings.ToUpper(word)
	}

	wr := []rune(word)
	wr[0] = unicode.ToUpper(wr[0])
	return string(wr)
}
