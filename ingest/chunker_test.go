package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordSum(chunk string) int {
	total := 0
	for _, w := range strings.Fields(chunk) {
		total += utf8.RuneCountInString(w)
	}
	return total
}

func TestSplitIntoChunks_Empty(t *testing.T) {
	assert.Empty(t, SplitIntoChunks("", 10))
	assert.Empty(t, SplitIntoChunks(" \n\t  ", 10))
}

func TestSplitIntoChunks_FiveThousandChars(t *testing.T) {
	// 500 nine-letter words plus separators is 5000 characters.
	text := strings.Repeat("groceries ", 500)
	require.Len(t, text, 5000)

	chunks := SplitIntoChunks(text, 2000)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, wordSum(c), 2000)
	}
	assert.Equal(t, 1998, wordSum(chunks[0]))
}

func TestSplitIntoChunks_PreservesWordSequence(t *testing.T) {
	cases := []struct {
		text string
		max  int
	}{
		{"Milk 2.50 Acme\nBread   1.20 Acme", 5},
		{"one two three four five six", 3},
		{"a", 1},
		{"crème brûlée €4,99 café", 6},
		{"supercalifragilistic tiny word", 4},
	}
	for _, tc := range cases {
		chunks := SplitIntoChunks(tc.text, tc.max)
		assert.Equal(t, strings.Fields(tc.text), strings.Fields(strings.Join(chunks, " ")), tc.text)
		for _, c := range chunks {
			if len(strings.Fields(c)) > 1 {
				assert.LessOrEqual(t, wordSum(c), tc.max, c)
			}
		}
	}
}

func TestSplitIntoChunks_OversizeWordAlone(t *testing.T) {
	chunks := SplitIntoChunks("ab supercalifragilistic cd", 5)
	assert.Equal(t, []string{"ab", "supercalifragilistic", "cd"}, chunks)

	chunks = SplitIntoChunks("supercalifragilistic", 5)
	assert.Equal(t, []string{"supercalifragilistic"}, chunks)
}

func TestSplitIntoChunks_CountsRunes(t *testing.T) {
	// each word is 4 runes but more bytes
	chunks := SplitIntoChunks("éééé éééé", 8)
	assert.Equal(t, []string{"éééé éééé"}, chunks)
}

func TestSplitIntoChunks_DefaultSize(t *testing.T) {
	text := strings.Repeat("x ", 3000)
	assert.Len(t, SplitIntoChunks(text, 0), 2)
	assert.Len(t, SplitIntoChunks(text, -1), 2)
}
