// Package pipeline translates a source resource file into per-language
// target files that live next to it.
//
// For every target language the pipeline loads (or starts) <lang>.<ext>,
// queues the source keys the target lacks, translates them one at a time,
// restores placeholders, merges the results without touching existing
// entries and writes the file once. Languages are handled one after
// another; the first error aborts the run and leaves the in-progress
// language's file unwritten.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/botstrings/placeholder"
	"github.com/minios-linux/botstrings/resource"
	"github.com/minios-linux/botstrings/translator"
)

// Options controls pipeline behavior and diagnostics.
type Options struct {
	// Markers restores marker runs to placeholders (default placeholder.Default).
	Markers *placeholder.Codec
	// DryRun reports missing keys without calling the backend or writing files.
	DryRun bool
	// OnTranslated receives the raw backend output for every key.
	OnTranslated func(lang, key, text string)
	// OnProgress is called after each key is translated.
	OnProgress func(lang string, done, total int)
	// OnLog emits informational messages.
	OnLog func(format string, args ...any)
	// OnWarning emits non-fatal warnings.
	OnWarning func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) warn(format string, args ...any) {
	if o.OnWarning != nil {
		o.OnWarning(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) codec() *placeholder.Codec {
	if o.Markers != nil {
		return o.Markers
	}
	return placeholder.Default
}

// Result summarizes one language.
type Result struct {
	// Lang is the target language code.
	Lang string
	// Path is the target file path.
	Path string
	// Created is true when the target file did not exist before the run.
	Created bool
	// Missing is the number of source keys the target lacked.
	Missing int
	// Added is the number of entries written by this run.
	Added int
	// Total is the number of entries in the target after the run.
	Total int
}

// Pipeline runs translations through a single backend.
type Pipeline struct {
	tr   translator.Translator
	opts Options
}

// New returns a Pipeline using tr as the backend.
func New(tr translator.Translator, opts Options) *Pipeline {
	return &Pipeline{tr: tr, opts: opts}
}

// Run translates sourcePath into every language in langs, in order.
func (p *Pipeline) Run(ctx context.Context, sourcePath string, langs []string) ([]Result, error) {
	if len(langs) == 0 {
		return nil, errors.New("no target languages given")
	}

	src, err := resource.ParseFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}

	results := make([]Result, 0, len(langs))
	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.Language(ctx, src, sourcePath, lang)
		if err != nil {
			return results, fmt.Errorf("%s: %w", lang, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Language translates src into a single target language and writes the
// merged target file.
func (p *Pipeline) Language(ctx context.Context, src *resource.File, sourcePath, lang string) (Result, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return Result{}, errors.New("empty language code")
	}
	if lang == "." || lang == ".." || filepath.Base(lang) != lang || strings.ContainsAny(lang, `/\`) {
		return Result{}, fmt.Errorf("invalid language code %q", lang)
	}

	path := TargetPath(sourcePath, lang)
	if samePath(path, sourcePath) {
		return Result{}, fmt.Errorf("target %s is the source file", path)
	}

	target, created, err := loadTarget(path)
	if err != nil {
		return Result{}, err
	}

	codec := p.opts.codec()
	batch := NewBatch(lang, codec)
	for _, key := range MissingKeys(src, target) {
		batch.Queue(key)
	}

	res := Result{
		Lang:    lang,
		Path:    path,
		Created: created,
		Missing: batch.Len(),
	}

	if p.opts.DryRun {
		res.Total = target.Len()
		p.opts.log("%s: %d of %d keys missing in %s", lang, batch.Len(), src.Len(), path)
		return res, nil
	}

	if batch.Len() > 0 {
		p.opts.log("Translating %s (%s): %d of %d keys missing", lang, translator.LanguageName(lang), batch.Len(), src.Len())
	}
	for i, key := range batch.Keys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		value, _ := src.Get(key)
		out, err := p.tr.Translate(ctx, codec.Normalize(value), lang)
		if err != nil {
			return res, fmt.Errorf("translating %q: %w", key, err)
		}
		batch.Record(out)
		if p.opts.OnTranslated != nil {
			p.opts.OnTranslated(lang, key, out)
		}
		if p.opts.OnProgress != nil {
			p.opts.OnProgress(lang, i+1, batch.Len())
		}
	}

	p.checkPlaceholders(src, batch)

	added, err := batch.Merge(target)
	if err != nil {
		return res, err
	}
	if err := target.WriteFile(path); err != nil {
		return res, err
	}

	res.Added = added
	res.Total = target.Len()
	p.opts.log("%s complete", lang)
	return res, nil
}

// checkPlaceholders warns when a translation carries a different number of
// placeholders than its source value.
func (p *Pipeline) checkPlaceholders(src *resource.File, batch *Batch) {
	codec := p.opts.codec()
	for i, line := range batch.Lines() {
		key := batch.Keys[i]
		value, _ := src.Get(key)
		want := codec.Count(value)
		if got := strings.Count(line, placeholder.Placeholder); got != want {
			p.opts.warn("%s: %q has %d placeholder(s), source has %d", batch.Lang, key, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// TargetPath returns the path of lang's resource file: <lang><ext> in the
// source file's directory, using the source's extension.
func TargetPath(sourcePath, lang string) string {
	return filepath.Join(filepath.Dir(sourcePath), lang+filepath.Ext(sourcePath))
}

// MissingKeys returns the source keys absent from target, in source order.
func MissingKeys(src, target *resource.File) []string {
	var keys []string
	for _, key := range src.Keys() {
		if !target.Has(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// loadTarget parses path, or returns an empty file if it does not exist.
func loadTarget(path string) (*resource.File, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return resource.New(), true, nil
		}
		return nil, false, fmt.Errorf("checking %s: %w", path, err)
	}
	f, err := resource.ParseFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("loading target: %w", err)
	}
	return f, false, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
