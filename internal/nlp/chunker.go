// Package nlp holds text segmentation helpers used by the crawler and the
// report generator.
package nlp

import "strings"

// ChunkByChars splits text into consecutive slices of at most maxChars
// characters. Slicing happens on rune boundaries, never mid-codepoint, and
// concatenating the result reproduces the input exactly.
func ChunkByChars(text string, maxChars int) []string {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = 1000
	}

	runes := []rune(text)
	var chunks []string
	for len(runes) > maxChars {
		chunks = append(chunks, string(runes[:maxChars]))
		runes = runes[maxChars:]
	}
	return append(chunks, string(runes))
}

// TruncateRunes caps text at maxChars characters, cutting on a rune boundary.
func TruncateRunes(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

// ChunkByWords splits text on whitespace and regroups the words into chunks
// of at most maxWords words each. Whitespace runs collapse to single spaces,
// so joining the chunks with " " yields the normalized input.
func ChunkByWords(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = 350
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	for len(words) > maxWords {
		chunks = append(chunks, strings.Join(words[:maxWords], " "))
		words = words[maxWords:]
	}
	return append(chunks, strings.Join(words, " "))
}
