// Package resource implements reading and writing of flat YAML string
// resource files, one per locale:
//
//	greeting: Hello, {}!
//	farewell: Goodbye
//
// Only a single-level mapping of string values is supported. Nested
// mappings, sequences and non-string scalars are rejected on load.
// The package keeps the yaml.Node tree around so key order, comments and
// scalar styles survive a round trip, and new keys are appended at the end.
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFlat is returned when the document is not a flat mapping.
	ErrNotFlat = errors.New("resource must be a flat mapping")
	// ErrNotString is returned when a value is not a string scalar.
	ErrNotString = errors.New("resource value must be a string")
	// ErrDuplicateKey is returned when a key appears more than once.
	ErrDuplicateKey = errors.New("duplicate resource key")
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// File is an ordered key → string mapping backed by a YAML document.
type File struct {
	// doc is the DocumentNode wrapping root.
	doc *yaml.Node
	// root is the top-level MappingNode; Content alternates key, value.
	root *yaml.Node
	// index maps key → position of its key node in root.Content.
	index map[string]int
}

// New returns an empty File.
func New() *File {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return &File{
		doc:   &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}},
		root:  root,
		index: make(map[string]int),
	}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a resource file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	// Empty document (or only comments).
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return New(), nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: root is not a mapping (line %d)", ErrNotFlat, root.Line)
	}

	f := &File{
		doc:   &doc,
		root:  root,
		index: make(map[string]int, len(root.Content)/2),
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]

		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: non-scalar key at line %d", ErrNotFlat, keyNode.Line)
		}
		key := keyNode.Value

		switch valNode.Kind {
		case yaml.ScalarNode:
			if valNode.ShortTag() != "!!str" {
				return nil, fmt.Errorf("%w: key %q has %s value (line %d)", ErrNotString, key, valNode.ShortTag(), valNode.Line)
			}
		case yaml.MappingNode, yaml.SequenceNode:
			return nil, fmt.Errorf("%w: key %q has nested value (line %d)", ErrNotFlat, key, valNode.Line)
		default:
			return nil, fmt.Errorf("%w: key %q (line %d)", ErrNotString, key, valNode.Line)
		}

		if _, dup := f.index[key]; dup {
			return nil, fmt.Errorf("%w: %q (line %d)", ErrDuplicateKey, key, keyNode.Line)
		}
		f.index[key] = i
	}

	return f, nil
}

// ---------------------------------------------------------------------------
// Querying
// ---------------------------------------------------------------------------

// Keys returns all keys in document order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.root.Content)/2)
	for i := 0; i+1 < len(f.root.Content); i += 2 {
		keys = append(keys, f.root.Content[i].Value)
	}
	return keys
}

// Len returns the number of entries.
func (f *File) Len() int {
	return len(f.index)
}

// Has reports whether key is present.
func (f *File) Has(key string) bool {
	_, ok := f.index[key]
	return ok
}

// Get returns the value stored under key.
func (f *File) Get(key string) (string, bool) {
	i, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.root.Content[i+1].Value, true
}

// Set updates the value for key, appending a new entry if key is absent.
func (f *File) Set(key, value string) {
	if i, ok := f.index[key]; ok {
		f.root.Content[i+1].Value = value
		return
	}
	f.index[key] = len(f.root.Content)
	f.root.Content = append(f.root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

// Add inserts key only if it is absent and reports whether it did.
// Existing entries always win.
func (f *File) Add(key, value string) bool {
	if f.Has(key) {
		return false
	}
	f.Set(key, value)
	return true
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal serialises the file to YAML with two-space indentation.
// Non-ASCII text is written as-is, never escaped.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return unescapeWide(f, buf.Bytes()), nil
}

// wideEscape matches a \U escape together with the backslashes before it.
var wideEscape = regexp.MustCompile(`(\\*)\\U([0-9A-Fa-f]{8})`)

// unescapeWide turns the \U escapes yaml.v3 writes for characters outside
// the BMP (emoji and the like) back into raw UTF-8. The result must parse
// to the same entries as f, otherwise out is returned unchanged.
func unescapeWide(f *File, out []byte) []byte {
	if !bytes.Contains(out, []byte(`\U`)) {
		return out
	}
	raw := wideEscape.ReplaceAllFunc(out, func(m []byte) []byte {
		sub := wideEscape.FindSubmatch(m)
		// an odd run in front means the backslash before U is itself escaped
		if len(sub[1])%2 != 0 {
			return m
		}
		code, err := strconv.ParseUint(string(sub[2]), 16, 32)
		if err != nil {
			return m
		}
		r := rune(code)
		if r < 0x10000 || !utf8.ValidRune(r) {
			return m
		}
		return append(append([]byte{}, sub[1]...), string(r)...)
	})

	back, err := Parse(raw)
	if err != nil || !sameEntries(f, back) {
		return out
	}
	return raw
}

func sameEntries(a, b *File) bool {
	ka, kb := a.Keys(), b.Keys()
	if len(ka) != len(kb) {
		return false
	}
	for i, key := range ka {
		if kb[i] != key {
			return false
		}
		va, _ := a.Get(key)
		vb, _ := b.Get(key)
		if va != vb {
			return false
		}
	}
	return true
}

// WriteFile serialises the file and writes it to path, replacing any
// previous content.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
