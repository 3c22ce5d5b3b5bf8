package composer

import (
	"testing"
)

func TestSplitParagraphs_DropsEmptyLines(t *testing.T) {
	text := "first line\n\n   \nsecond line\nthird line\n"
	lines := SplitParagraphs(text)

	if len(lines) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %v", len(lines), lines)
	}
	want := []string{"first line", "second line", "third line"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("paragraph %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestSplitParagraphs_TrimsWhitespace(t *testing.T) {
	lines := SplitParagraphs("  padded line  ")
	if len(lines) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(lines))
	}
	if lines[0] != "padded line" {
		t.Errorf("expected trimmed line, got %q", lines[0])
	}
}

func TestSplitParagraphs_EmptyInput(t *testing.T) {
	if lines := SplitParagraphs(""); len(lines) != 0 {
		t.Errorf("expected no paragraphs for empty input, got %v", lines)
	}
	if lines := SplitParagraphs("\n\n\n"); len(lines) != 0 {
		t.Errorf("expected no paragraphs for blank input, got %v", lines)
	}
}

func TestCompose_ProducesDocument(t *testing.T) {
	c := New()

	data, err := c.Compose("Bonjour le monde\n\nDeuxième ligne")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty document bytes")
	}
	// DOCX is a zip archive; check the magic bytes.
	if data[0] != 'P' || data[1] != 'K' {
		t.Errorf("expected zip magic 'PK', got %q", data[:2])
	}
}

func TestCompose_EmptyText(t *testing.T) {
	c := New()

	data, err := c.Compose("")
	if err != nil {
		t.Fatalf("Compose failed on empty text: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected a valid empty document")
	}
}
