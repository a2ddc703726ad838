// Package placeholder normalizes reserved marker runs back into positional
// format placeholders.
//
// Bot strings use a literal "{}" for positional arguments. Translation
// backends tend to rewrite "{}" inside running text but leave a run of '@'
// characters alone, so a run of at least MinRun '@' characters is treated
// as a stand-in for "{}" and turned back into it.
//
// Recovery is best effort: a "{}" that the backend mangles as ordinary text
// is not repaired.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder is the literal positional format token.
const Placeholder = "{}"

// MarkerChar is the character whose runs form a reserved marker.
const MarkerChar = '@'

// Codec rewrites marker runs to Placeholder.
type Codec struct {
	minRun int
	re     *regexp.Regexp
}

// Default matches any run of one or more '@'.
var Default = NewCodec(1)

// NewCodec returns a Codec that treats runs of at least minRun '@'
// characters as a marker. Values below 1 are raised to 1.
func NewCodec(minRun int) *Codec {
	if minRun < 1 {
		minRun = 1
	}
	return &Codec{
		minRun: minRun,
		re:     regexp.MustCompile(fmt.Sprintf("%s{%d,}", regexp.QuoteMeta(string(MarkerChar)), minRun)),
	}
}

// MinRun returns the shortest '@' run treated as a marker.
func (c *Codec) MinRun() int {
	return c.minRun
}

// Normalize replaces every marker run in s with Placeholder.
// It is idempotent.
func (c *Codec) Normalize(s string) string {
	if !strings.ContainsRune(s, MarkerChar) {
		return s
	}
	return c.re.ReplaceAllLiteralString(s, Placeholder)
}

// HasMarker reports whether s contains a marker run.
func (c *Codec) HasMarker(s string) bool {
	return c.re.MatchString(s)
}

// Count returns the number of placeholders s would carry after Normalize.
func (c *Codec) Count(s string) int {
	return strings.Count(c.Normalize(s), Placeholder)
}
