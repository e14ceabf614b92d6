// Package names tracks which known names have already been located in a
// document. A name is reported by TryFind until it is marked found; from then
// on it is never searched for again, so each name is highlighted only on the
// first page where it appears.
package names

import "strings"

// Entry is one name and whether it has been found.
type Entry struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
}

// Hit identifies an entry whose name occurs in a page.
type Hit struct {
	Index int
	Name  string
}

// Texter is anything with extracted text, typically a document page.
type Texter interface {
	Text() string
}

// Registry is an ordered list of entries. Duplicate names are kept and
// tracked independently. A Registry belongs to a single run and is not safe
// for concurrent use.
type Registry struct {
	entries []Entry
}

// New returns a registry holding names in the given order, none found.
func New(names []string) *Registry {
	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Name: n}
	}
	return &Registry{entries: entries}
}

// TryFind returns the entries not yet found whose name occurs anywhere in
// the page text, ignoring case. It does not mark them; callers do that with
// MarkFound once they have acted on the hit.
func (r *Registry) TryFind(page Texter) []Hit {
	text := strings.ToLower(page.Text())
	var hits []Hit
	for i, e := range r.entries {
		if e.Found || e.Name == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(e.Name)) {
			hits = append(hits, Hit{Index: i, Name: e.Name})
		}
	}
	return hits
}

// MarkFound flags entry i as found. It reports false for an index out of
// range. Marking an entry twice has no further effect.
func (r *Registry) MarkFound(i int) bool {
	if i < 0 || i >= len(r.entries) {
		return false
	}
	r.entries[i].Found = true
	return true
}

// Entries returns a copy of the entries in load order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries, duplicates included.
func (r *Registry) Len() int { return len(r.entries) }

// FoundCount returns how many entries are marked found.
func (r *Registry) FoundCount() int {
	n := 0
	for _, e := range r.entries {
		if e.Found {
			n++
		}
	}
	return n
}
