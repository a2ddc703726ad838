package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bregydoc/gtranslate"
)

// Google translates through the public Google Translate web endpoint.
// No API key is needed.
type Google struct {
	// From is the source language code; "auto" lets Google detect it.
	From string
	// Timeout bounds each request; zero means no limit.
	Timeout time.Duration

	call func(text string, params gtranslate.TranslationParams) (string, error)
}

// NewGoogle returns a Google backend translating from the given source
// language ("" means auto-detect).
func NewGoogle(from string) *Google {
	if from == "" {
		from = "auto"
	}
	return &Google{From: from, call: gtranslate.TranslateWithParams}
}

// Translate sends one string. Blank input is returned without a request.
func (g *Google) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	// gtranslate takes no context; the call is abandoned on cancel.
	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	params := gtranslate.TranslationParams{
		From:  g.From,
		To:    targetLang,
		Tries: 1,
	}
	go func() {
		out, err := g.call(text, params)
		done <- reply{out, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("google translate to %s: %w", targetLang, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("google translate to %s: %w", targetLang, r.err)
		}
		return r.text, nil
	}
}
