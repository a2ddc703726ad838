// Package translator defines the machine translation backend used by the
// pipeline and its implementations: the Google Translate web endpoint, an
// OpenAI-compatible chat completions API, and an offline echo backend.
//
// Backends are called once per string and are never retried.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ---------------------------------------------------------------------------
// Backend IDs
// ---------------------------------------------------------------------------

const (
	BackendGoogle = "google"
	BackendOpenAI = "openai"
	BackendEcho   = "echo"
)

// ErrUnknownBackend is returned by New for an unrecognized backend ID.
var ErrUnknownBackend = errors.New("unknown translation backend")

// Translator turns text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Func adapts an ordinary function to the Translator interface.
type Func func(ctx context.Context, text, targetLang string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return f(ctx, text, targetLang)
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// Options selects and configures a backend.
type Options struct {
	// Backend is one of BackendGoogle, BackendOpenAI, BackendEcho.
	Backend string
	// SourceLang is the source language hint ("auto" to detect).
	SourceLang string
	// APIKey authenticates against the OpenAI-compatible endpoint.
	APIKey string
	// BaseURL is the OpenAI-compatible API base (e.g. https://api.openai.com/v1).
	BaseURL string
	// Model is the chat model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// Verbose enables request debug logging.
	Verbose bool
}

// New returns the Translator selected by opts.Backend.
func New(opts Options) (Translator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendGoogle:
		g := NewGoogle(opts.SourceLang)
		g.Timeout = opts.Timeout
		return g, nil
	case BackendOpenAI:
		return NewOpenAI(opts)
	case BackendEcho:
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want %s, %s or %s)", ErrUnknownBackend, opts.Backend, BackendGoogle, BackendOpenAI, BackendEcho)
	}
}

// Echo returns its input unchanged. Useful for offline runs and checks of
// the file handling without touching the network.
type Echo struct{}

// Translate returns text as-is.
func (Echo) Translate(ctx context.Context, text, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// LanguageName returns the English display name for a language code,
// or the code itself when it cannot be parsed.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}
