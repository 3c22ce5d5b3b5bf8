package chunker_test

import (
	"strings"
	"testing"

	"github.com/afrilearn/afriserver/internal/chunker"
)

func TestChunk_ShortText(t *testing.T) {
	text := "Hello, world!"
	chunks := chunker.Chunk(text, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("expected %q, got %q", text, chunks[0])
	}
}

func TestChunk_Unlimited(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := chunker.Chunk(text, 0)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk when maxChars=0, got %d", len(chunks))
	}
}

func TestChunk_ParagraphBoundary(t *testing.T) {
	para1 := "First paragraph text here."
	para2 := "Second paragraph text here."
	text := para1 + "\n\n" + para2

	chunks := chunker.Chunk(text, 40)
	if len(chunks) < 2 {
		t.Fatalf("expected ≥2 chunks, got %d: %v", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0], "First") {
		t.Errorf("first chunk should contain 'First': %q", chunks[0])
	}
	if !strings.Contains(chunks[len(chunks)-1], "Second") {
		t.Errorf("last chunk should contain 'Second': %q", chunks[len(chunks)-1])
	}
}

func TestChunk_SentenceBoundary(t *testing.T) {
	text := "First sentence ends here. Second sentence follows. Third sentence."
	chunks := chunker.Chunk(text, 40)
	if len(chunks) < 2 {
		t.Fatalf("expected ≥2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestChunk_RespectsMaxChars(t *testing.T) {
	text := strings.Repeat("some words in a sentence. ", 100)
	maxChars := 120

	for i, c := range chunker.Chunk(text, maxChars) {
		if n := len([]rune(c)); n > maxChars {
			t.Errorf("chunk %d has %d runes, exceeds max %d", i, n, maxChars)
		}
	}
}

func TestChunk_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := chunker.Chunk(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for 250 chars at max 100, got %d", len(chunks))
	}
}

func TestChunk_PreservesAllContent(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota kappa."
	joined := strings.Join(chunker.Chunk(text, 25), " ")

	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, strings.Trim(word, ".")) {
			t.Errorf("word %q lost during chunking", word)
		}
	}
}
