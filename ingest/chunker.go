package ingest

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is used when a caller passes a non-positive size.
const DefaultMaxChunkSize = 2000

// SplitIntoChunks packs whitespace-separated words greedily into chunks whose
// summed word length (in runes, separators not counted) stays within
// maxChunkSize. A word longer than maxChunkSize is put in a chunk of its own.
func SplitIntoChunks(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	words := strings.Fields(text)
	chunks := make([]string, 0, len(words)/maxChunkSize+1)

	var current []string
	size := 0
	for _, word := range words {
		n := utf8.RuneCountInString(word)
		if size+n > maxChunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			size = 0
		}
		current = append(current, word)
		size += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
