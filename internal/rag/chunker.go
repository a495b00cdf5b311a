package rag

import "strings"

// Chunk splits text into windows of at most windowSize characters. Window i
// starts at i*(windowSize-overlap); the last window ends at the end of text.
// Whitespace-only windows are dropped.
func Chunk(text string, windowSize, overlap int) []string {
	if windowSize <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= windowSize {
		overlap = 0
	}

	runes := []rune(text)
	n := len(runes)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	step := windowSize - overlap
	chunks := make([]string, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := start + windowSize
		if end > n {
			end = n
		}
		span := string(runes[start:end])
		if strings.TrimSpace(span) != "" {
			chunks = append(chunks, span)
		}
		if end == n {
			break
		}
	}
	return chunks
}
