package pipeline

import (
	"fmt"

	"github.com/minios-linux/botstrings/placeholder"
	"github.com/minios-linux/botstrings/resource"
)

// Batch accumulates one language's translations. Keys and recorded lines
// correspond by position; nothing is reordered, dropped or deduplicated.
type Batch struct {
	// Lang is the target language code.
	Lang string
	// Keys are the queued keys in source order.
	Keys []string

	lines []string
	codec *placeholder.Codec
}

// NewBatch returns an empty batch for lang.
func NewBatch(lang string, codec *placeholder.Codec) *Batch {
	if codec == nil {
		codec = placeholder.Default
	}
	return &Batch{Lang: lang, codec: codec}
}

// Queue appends key to the batch.
func (b *Batch) Queue(key string) {
	b.Keys = append(b.Keys, key)
}

// Record stores the raw backend output for the next queued key.
func (b *Batch) Record(text string) {
	b.lines = append(b.lines, text)
}

// Len returns the number of queued keys.
func (b *Batch) Len() int {
	return len(b.Keys)
}

// Lines returns the recorded translations with marker runs restored to
// placeholders.
func (b *Batch) Lines() []string {
	out := make([]string, len(b.lines))
	for i, line := range b.lines {
		out[i] = b.codec.Normalize(line)
	}
	return out
}

// Merge inserts the restored translations into target, pairing the Nth
// queued key with the Nth recorded line. Keys already present in target
// are left alone. It returns the number of entries added.
func (b *Batch) Merge(target *resource.File) (int, error) {
	if len(b.lines) != len(b.Keys) {
		return 0, fmt.Errorf("batch %s: %d keys queued but %d translations recorded", b.Lang, len(b.Keys), len(b.lines))
	}
	added := 0
	for i, line := range b.Lines() {
		if target.Add(b.Keys[i], line) {
			added++
		}
	}
	return added, nil
}
