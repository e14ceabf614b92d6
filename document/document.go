// Package document loads PDF documents into pages that expose their text and
// the geometry of that text, collects highlight marks on those pages, and
// renders an annotated copy.
//
// Text comes from the page content streams (via github.com/ledongthuc/pdf).
// Each page keeps the glyph boxes behind its text, so a literal string can be
// located on the page with Search. Rendering imports every original page
// unchanged as a template (codeberg.org/go-pdf/fpdf with the gofpdi importer)
// and draws two layers over it: an invisible copy of the extracted words at
// their original positions, which keeps the rendered copy searchable and
// reloadable, and the translucent highlight marks.
//
// Coordinates are PDF points with the origin at the top-left page corner.
package document

import (
	"errors"
	"strings"
)

// ErrNoPages is returned when a PDF has no pages.
var ErrNoPages = errors.New("document: no pages")

// Rect is an axis aligned box in points, top-left origin.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width and Height return the size of r in points.
func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Union returns the smallest rect containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: min(r.X0, o.X0),
		Y0: min(r.Y0, o.Y0),
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
	}
}

// Color is an RGB color with components in [0,1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

// Highlight colors for words and names.
var (
	Blue  = Color{B: 1}
	Green = Color{G: 1}
)

func (c Color) rgb255() (int, int, int) {
	conv := func(v float64) int {
		v = min(max(v, 0), 1)
		return int(v*255 + 0.5)
	}
	return conv(c.R), conv(c.G), conv(c.B)
}

// Highlight is a translucent mark over a box of a page.
type Highlight struct {
	Rect    Rect
	Color   Color
	Opacity float64
}

// Page is one page of a Document.
type Page struct {
	Number int     // 1-based position in the document
	Width  float64 // points
	Height float64 // points

	lines      []line
	text       string
	highlights []Highlight
}

// Text returns the extracted plain text, one line of the page per line.
func (p *Page) Text() string { return p.text }

// Search returns the box of every place where literal renders on the page.
// The match is exact and case-sensitive and never spans two lines.
func (p *Page) Search(literal string) []Rect {
	if literal == "" {
		return nil
	}
	var rects []Rect
	for _, ln := range p.lines {
		from := 0
		for {
			i := strings.Index(ln.text[from:], literal)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(literal)
			if r, ok := ln.span(start, end); ok {
				rects = append(rects, r)
			}
			from = end
		}
	}
	return rects
}

// AddHighlight appends a highlight to the page. Highlights are never merged
// or removed.
func (p *Page) AddHighlight(h Highlight) {
	p.highlights = append(p.highlights, h)
}

// Highlights returns the highlights added since the page was loaded.
func (p *Page) Highlights() []Highlight {
	out := make([]Highlight, len(p.highlights))
	copy(out, p.highlights)
	return out
}

// Document is an ordered list of pages together with the PDF bytes they were
// read from.
type Document struct {
	Pages []*Page

	src []byte
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int { return len(d.Pages) }

// HighlightCount returns the number of highlights added across all pages.
func (d *Document) HighlightCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.highlights)
	}
	return n
}
