package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedDistance(t *testing.T) {
	cases := []struct {
		a, b string
		max  int
		want int
	}{
		{"helo", "help", 2, 1},
		{"helo", "hello", 2, 1},
		{"same", "same", 2, 0},
		{"", "ab", 2, 2},
		{"ab", "", 2, 2},
		{"kitten", "sitting", 3, 3},
		{"ನಮಸ", "ನಮಸ್ಕಾರ", 4, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BoundedDistance([]rune(c.a), []rune(c.b), c.max), "%q vs %q", c.a, c.b)
	}

	t.Run("BailsOutPastMax", func(t *testing.T) {
		got := BoundedDistance([]rune("abcdef"), []rune("zyxwvu"), 1)
		assert.Equal(t, 2, got, "must report max+1, not the true distance")
	})
}
