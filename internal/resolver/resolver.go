// Package resolver locates past-paper binaries across the storage
// strategies a file reference may carry: a local disk path, a cloud URL,
// or a pre-migration legacy relative URL.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("artifact not found")

// Strategy is the storage mechanism recorded for a paper's file.
type Strategy string

const (
	StrategyLocal  Strategy = "local"
	StrategyCloud  Strategy = "cloud"
	StrategyLegacy Strategy = "legacy-url"
)

// FileRef is the persisted storage metadata for one past-paper binary.
// At resolution time exactly one location field is authoritative; Resolve
// never assumes more than one is populated.
type FileRef struct {
	Strategy  Strategy
	FilePath  string
	CloudURL  string
	LegacyURL string
}

// Resolution is the outcome of a successful resolve: either a local Path
// to stream from, or a RedirectURL the caller should send the client to.
type Resolution struct {
	Path        string
	RedirectURL string
}

func (r *Resolution) IsRedirect() bool {
	return r.RedirectURL != ""
}

// Filename returns the base name to present in a Content-Disposition header.
func (r *Resolution) Filename() string {
	if r.Path != "" {
		return filepath.Base(r.Path)
	}
	return ""
}

type Resolver struct {
	legacyRoot string
}

// New creates a Resolver. legacyRoot is the fixed directory pre-migration
// relative URLs resolve against.
func New(legacyRoot string) *Resolver {
	return &Resolver{legacyRoot: legacyRoot}
}

// Resolve walks the reference's possible locations in strict priority
// order: existing local path, then cloud URL, then legacy relative URL
// under the legacy root. The first usable location wins. Resolve mutates
// nothing and caches nothing; the same ref always yields the same outcome.
func (r *Resolver) Resolve(ref FileRef) (*Resolution, error) {
	if ref.Strategy == StrategyLocal && ref.FilePath != "" {
		if fileExists(ref.FilePath) {
			return &Resolution{Path: ref.FilePath}, nil
		}
	}

	if ref.CloudURL != "" {
		return &Resolution{RedirectURL: ref.CloudURL}, nil
	}

	if ref.LegacyURL != "" {
		path, err := r.legacyPath(ref.LegacyURL)
		if err == nil && fileExists(path) {
			return &Resolution{Path: path}, nil
		}
	}

	return nil, ErrNotFound
}

// legacyPath joins a legacy relative URL under the legacy root, rejecting
// references that would escape it.
func (r *Resolver) legacyPath(legacyURL string) (string, error) {
	rel := strings.TrimPrefix(legacyURL, "/")
	joined := filepath.Join(r.legacyRoot, filepath.Clean("/"+rel))

	root := filepath.Clean(r.legacyRoot)
	if joined != root && !strings.HasPrefix(joined, root+string(filepath.Separator)) {
		return "", fmt.Errorf("legacy path %q escapes legacy root", legacyURL)
	}
	return joined, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
