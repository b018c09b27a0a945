package nlp

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkByCharsPartition(t *testing.T) {
	text := strings.Repeat("abcdefghij", 35) // 350 chars

	chunks := ChunkByChars(text, 100)
	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if len(c) != 100 {
			t.Errorf("Chunk %d has length %d, want 100", i, len(c))
		}
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Error("Concatenated chunks do not reproduce the input")
	}
}

func TestChunkByCharsMultibyte(t *testing.T) {
	text := "日本語のテキストを分割する" // 13 runes

	chunks := ChunkByChars(text, 4)
	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("Chunk %d is not valid UTF-8: %q", i, c)
		}
	}
	for i, c := range chunks[:len(chunks)-1] {
		if n := utf8.RuneCountInString(c); n != 4 {
			t.Errorf("Chunk %d has %d runes, want 4", i, n)
		}
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Error("Concatenated chunks do not reproduce the input")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("héllo wörld", 6); got != "héllo " {
		t.Errorf("TruncateRunes = %q, want %q", got, "héllo ")
	}
	if !utf8.ValidString(TruncateRunes("日本語テキスト", 2)) {
		t.Error("Truncation produced invalid UTF-8")
	}
	if got := TruncateRunes("short", 100); got != "short" {
		t.Errorf("TruncateRunes should leave short input alone, got %q", got)
	}
	if got := TruncateRunes("anything", 0); got != "" {
		t.Errorf("TruncateRunes with zero cap = %q, want empty", got)
	}
}

func TestChunkByCharsShortInput(t *testing.T) {
	chunks := ChunkByChars("short", 1000)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("Expected single chunk, got %v", chunks)
	}
}

func TestChunkByCharsEmpty(t *testing.T) {
	if chunks := ChunkByChars("", 1000); chunks != nil {
		t.Fatalf("Expected nil for empty input, got %v", chunks)
	}
}

func TestChunkByWords(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, "  \n\t ")

	chunks := ChunkByWords(text, 10)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if len(strings.Fields(chunks[0])) != 10 {
		t.Errorf("First chunk has %d words, want 10", len(strings.Fields(chunks[0])))
	}
	if len(strings.Fields(chunks[2])) != 5 {
		t.Errorf("Last chunk has %d words, want 5", len(strings.Fields(chunks[2])))
	}
	if got := strings.Join(chunks, " "); got != strings.Join(words, " ") {
		t.Error("Joined chunks do not reproduce the normalized input")
	}
}

func TestChunkByWordsWhitespaceOnly(t *testing.T) {
	if chunks := ChunkByWords("   \n\t  ", 10); chunks != nil {
		t.Fatalf("Expected nil for whitespace-only input, got %v", chunks)
	}
}
