// Package matcher finds whole words that contain a user supplied fragment.
//
// A fragment such as "orp" is widened to the word around it, so scanning
// "Invoice for Alpha Corp" yields "Corp". Matching ignores case and uses
// Unicode word characters, and every match is returned in the form it has
// in the scanned text.
package matcher

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/dlclark/regexp2"
)

// ErrEmptySubstring is returned by New when no fragment is given. An empty
// fragment means "no pattern requested", which is different from a pattern
// that matches nothing.
var ErrEmptySubstring = errors.New("matcher: empty substring")

// Match is one occurrence of the pattern.
type Match struct {
	Text   string // literal word form as it appears in the text
	Offset int    // rune offset of Text within the scanned text
}

// Blank reports whether the match holds nothing but whitespace.
func (m Match) Blank() bool {
	return strings.TrimSpace(m.Text) == ""
}

// Matcher scans text for words containing a fixed fragment.
type Matcher struct {
	substring string
	re        *regexp2.Regexp
}

// New compiles the word pattern for substring.
func New(substring string) (*Matcher, error) {
	if substring == "" {
		return nil, ErrEmptySubstring
	}
	expr := `\b\w*` + regexp2.Escape(substring) + `\w*\b`
	re, err := regexp2.Compile(expr, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern for %q: %w", substring, err)
	}
	return &Matcher{substring: substring, re: re}, nil
}

// Substring returns the fragment the matcher was built from.
func (m *Matcher) Substring() string { return m.substring }

// Pattern returns the regular expression derived from the fragment.
func (m *Matcher) Pattern() string { return m.re.String() }

// Matches returns every occurrence in text, in text order. The sequence is
// lazy and can be ranged over any number of times; each range starts a new
// scan. A non-nil error ends the sequence.
func (m *Matcher) Matches(text string) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		hit, err := m.re.FindStringMatch(text)
		for {
			if err != nil {
				yield(Match{}, fmt.Errorf("matching %q: %w", m.substring, err))
				return
			}
			if hit == nil {
				return
			}
			if !yield(Match{Text: hit.String(), Offset: hit.Index}, nil) {
				return
			}
			hit, err = m.re.FindNextMatch(hit)
		}
	}
}

// Words returns the non-blank matched word forms in text order. Blank
// matches are dropped and logged. Scan errors end the sequence early; use
// Matches when they must be observed.
func (m *Matcher) Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for match, err := range m.Matches(text) {
			if err != nil {
				slog.Warn("matcher: scan stopped", "substring", m.substring, "error", err)
				return
			}
			if match.Blank() {
				slog.Debug("matcher: skipping empty token", "offset", match.Offset)
				continue
			}
			if !yield(match.Text) {
				return
			}
		}
	}
}
