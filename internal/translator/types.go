// Package translator adapts external translation providers behind a
// single Service interface. Providers get one attempt per request; any
// failure is returned to the caller unretried.
package translator

import (
	"context"
	"time"
)

type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type Result struct {
	TranslatedText string        `json:"translated_text"`
	Latency        time.Duration `json:"latency"`
}

type Service interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
}
