// Package chunker splits file contents into overlapping text windows small
// enough for the LLM's practical input size. Splitting is pure: no I/O, no
// model calls.
package chunker

import "strings"

const (
	// DefaultSize is the target chunk size in runes.
	DefaultSize = 1800

	// DefaultOverlap is how many runes adjacent chunks share so context
	// isn't lost at boundaries.
	DefaultOverlap = 180
)

// Chunk splits text into windows of at most size runes, with adjacent
// windows sharing overlap runes. Cut points prefer a paragraph boundary,
// then a line boundary, then an arbitrary position, as long as the boundary
// falls in the second half of the window. Every chunk is an exact substring
// of text.
func Chunk(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size/2 {
		overlap = size / 10
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := end
		window := string(runes[start:end])
		if i := boundary(window, "\n\n", size/2); i > 0 {
			cut = start + i
		} else if i := boundary(window, "\n", size/2); i > 0 {
			cut = start + i
		}

		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// boundary returns the rune index just past the last occurrence of sep in
// window, or 0 when the occurrence falls before min (a cut there would
// produce a degenerately small chunk).
func boundary(window, sep string, min int) int {
	i := strings.LastIndex(window, sep)
	if i < 0 {
		return 0
	}
	idx := len([]rune(window[:i])) + len([]rune(sep))
	if idx <= min {
		return 0
	}
	return idx
}
