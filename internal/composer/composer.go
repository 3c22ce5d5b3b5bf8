// Package composer turns translated plain text back into a structured
// DOCX document, one paragraph per non-empty line.
package composer

import (
	"bytes"
	"strings"

	docx "github.com/fumiama/go-docx"
)

// MIMEType is the content type of generated documents.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Extension is the file extension of generated documents.
const Extension = ".docx"

// SplitParagraphs splits text into trimmed lines, dropping lines that are
// empty after trimming. Line order is preserved.
func SplitParagraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

type Composer struct{}

func New() *Composer {
	return &Composer{}
}

// Compose builds a DOCX document with one paragraph per non-empty line of
// text and returns its serialized bytes. It has no I/O side effects.
func (c *Composer) Compose(text string) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()
	for _, line := range SplitParagraphs(text) {
		doc.AddParagraph().AddText(line)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
