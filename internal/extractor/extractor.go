// Package extractor converts uploaded binary documents (PDF, DOCX) into
// plain text. Dispatch is by declared MIME type, resolved once into a
// Format before any file I/O happens.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultPDFTimeout bounds a single PDF parse. Malformed or very large
// PDFs must not hang the request indefinitely.
const DefaultPDFTimeout = 30 * time.Second

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoText            = errors.New("no text found in document")
)

// Format identifies the document type a MIME string resolved to.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	default:
		return "unknown"
	}
}

// FormatForMIME maps a declared MIME type to a Format. Legacy
// application/msword is routed to the DOCX parser.
func FormatForMIME(mimeType string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "application/pdf":
		return FormatPDF, true
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword":
		return FormatDOCX, true
	default:
		return FormatUnknown, false
	}
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text   string
	Format Format
}

type Extractor struct {
	pdfTimeout time.Duration
}

func New(pdfTimeout time.Duration) *Extractor {
	if pdfTimeout <= 0 {
		pdfTimeout = DefaultPDFTimeout
	}
	return &Extractor{pdfTimeout: pdfTimeout}
}

// Extract reads the file at path and returns its plain text. It fails with
// ErrUnsupportedFormat before touching the file when the MIME type is not
// recognised, and with ErrNoText when the parser succeeds but yields only
// whitespace.
func (e *Extractor) Extract(ctx context.Context, path, mimeType string) (*Result, error) {
	format, ok := FormatForMIME(mimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = e.extractPDF(ctx, path)
	case FormatDOCX:
		text, err = extractDOCX(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s extraction: %w", format, err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	return &Result{Text: text, Format: format}, nil
}

// runBounded executes fn in its own goroutine and waits for the result or
// the deadline, whichever comes first. Parser panics are converted into
// errors so a corrupt file cannot take the whole process down.
func runBounded(ctx context.Context, timeout time.Duration, fn func() (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("parser panic: %v", r)}
			}
		}()
		text, err := fn()
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("timeout: %w", ctx.Err())
	case out := <-done:
		return out.text, out.err
	}
}
