// Package pipeline sequences the document translation flow:
// extract → translate → compose, with a structural guarantee that no
// temporary artifact created for a request outlives that request.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/afrilearn/afriserver/internal/chunker"
	"github.com/afrilearn/afriserver/internal/extractor"
	"github.com/afrilearn/afriserver/internal/translator"
)

// DefaultMaxChunkChars is the largest text block sent to a provider in a
// single request. Both Google and MyMemory cap request sizes well below
// what a long PDF extracts to.
const DefaultMaxChunkChars = 4500

// Stage names the pipeline phase an error originated in.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTranslate Stage = "translate"
	StageCompose   Stage = "compose"
)

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Upload is the transient input artifact. It is owned by exactly one Run
// call, which removes it from disk before returning, success or failure.
type Upload struct {
	Path         string
	OriginalName string
	MIMEType     string
	Size         int64
}

// Output is the transient generated document. Remove is safe to call more
// than once and from a deferred path; only the first call deletes the file.
type Output struct {
	Path     string
	Filename string

	once sync.Once
}

func (o *Output) Remove() error {
	var err error
	o.once.Do(func() {
		err = os.Remove(o.Path)
		if os.IsNotExist(err) {
			err = nil
		}
	})
	return err
}

// TextExtractor converts an uploaded file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path, mimeType string) (*extractor.Result, error)
}

// DocumentComposer turns translated text into output document bytes.
type DocumentComposer interface {
	Compose(text string) ([]byte, error)
}

// Recorder receives one log entry per successful run. Implemented by the
// metadata store; logging failures never fail the pipeline.
type Recorder interface {
	LogTranslation(ctx context.Context, id, sourceLang, targetLang, service string, sourceChars int, latency time.Duration) error
}

// LanguageDetector identifies the source language of extracted text.
type LanguageDetector interface {
	DetectISO(text string) (string, bool)
}

// OutputValidator checks that the translated text is in the target language.
type OutputValidator interface {
	IsValid(translatedText, targetLang string) (bool, error)
}

// Config carries tuning knobs and optional collaborators. Recorder,
// Detector and Validator may be nil.
type Config struct {
	TempDir       string
	MaxChunkChars int

	Recorder  Recorder
	Detector  LanguageDetector
	Validator OutputValidator
	Logger    *logrus.Logger
}

type Pipeline struct {
	extract   TextExtractor
	translate translator.Service
	compose   DocumentComposer
	cfg       Config
	log       *logrus.Logger
}

func New(ext TextExtractor, svc translator.Service, comp DocumentComposer, cfg Config) *Pipeline {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = DefaultMaxChunkChars
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		extract:   ext,
		translate: svc,
		compose:   comp,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes one translation request. The uploaded temp file is removed
// on every exit path. On success the caller owns the returned Output and
// must call Remove once the response has been streamed.
func (p *Pipeline) Run(ctx context.Context, up Upload, targetLang string) (*Output, error) {
	defer func() {
		if err := os.Remove(up.Path); err != nil && !os.IsNotExist(err) {
			p.log.WithError(err).WithField("path", up.Path).Warn("failed to remove uploaded temp file")
		}
	}()

	extracted, err := p.extract.Extract(ctx, up.Path, up.MIMEType)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: err}
	}

	sourceLang := "auto"
	if p.cfg.Detector != nil {
		if iso, ok := p.cfg.Detector.DetectISO(extracted.Text); ok {
			sourceLang = strings.ToLower(iso)
		}
	}

	start := time.Now()
	chunks := chunker.Chunk(extracted.Text, p.cfg.MaxChunkChars)
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		res, err := p.translate.Translate(ctx, translator.Request{
			Text:       chunk,
			SourceLang: sourceLang,
			TargetLang: targetLang,
		})
		if err != nil {
			return nil, &StageError{Stage: StageTranslate, Err: err}
		}
		parts = append(parts, res.TranslatedText)
	}
	translated := strings.Join(parts, "\n\n")
	latency := time.Since(start)

	if p.cfg.Validator != nil {
		if ok, vErr := p.cfg.Validator.IsValid(translated, targetLang); !ok {
			p.log.WithError(vErr).WithField("target", targetLang).Warn("translated text failed language validation")
		}
	}

	data, err := p.compose.Compose(translated)
	if err != nil {
		return nil, &StageError{Stage: StageCompose, Err: err}
	}

	outPath := filepath.Join(p.cfg.TempDir, fmt.Sprintf("translated_%s.docx", uuid.New().String()))
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		os.Remove(outPath)
		return nil, &StageError{Stage: StageCompose, Err: err}
	}

	if p.cfg.Recorder != nil {
		runID := uuid.New().String()
		if err := p.cfg.Recorder.LogTranslation(ctx, runID, sourceLang, targetLang, p.translate.Name(), len(extracted.Text), latency); err != nil {
			p.log.WithError(err).Warn("failed to log translation run")
		}
	}

	p.log.WithFields(logrus.Fields{
		"source":  sourceLang,
		"target":  targetLang,
		"chunks":  len(chunks),
		"service": p.translate.Name(),
	}).Info("document translated")

	return &Output{Path: outPath, Filename: downloadFilename(up.OriginalName)}, nil
}

// downloadFilename derives the suggested client-side filename from the
// original upload name.
func downloadFilename(originalName string) string {
	base := filepath.Base(originalName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "document"
	}
	return "translated_" + base + ".docx"
}
