// Package annotate marks every rendered occurrence of a literal string on a
// page with a translucent highlight.
package annotate

import (
	"log/slog"

	"github.com/apoudel1609/comparator/document"
)

// DefaultOpacity is the highlight opacity used when none is configured.
const DefaultOpacity = 0.3

// Page is the part of a document page the annotator needs.
type Page interface {
	Search(literal string) []document.Rect
	AddHighlight(h document.Highlight)
}

// Annotator adds highlights of a fixed opacity.
type Annotator struct {
	opacity float64
}

// New returns an annotator drawing with the given opacity. Values outside
// (0,1] fall back to DefaultOpacity.
func New(opacity float64) *Annotator {
	if opacity <= 0 || opacity > 1 {
		opacity = DefaultOpacity
	}
	return &Annotator{opacity: opacity}
}

// Opacity returns the opacity applied to every highlight.
func (a *Annotator) Opacity() float64 { return a.opacity }

// Highlight searches page for literal (exact, case-sensitive) and adds one
// highlight per box found. It returns the number of highlights added; a
// literal that cannot be located is logged and yields 0.
func (a *Annotator) Highlight(page Page, literal string, color document.Color) int {
	rects := page.Search(literal)
	if len(rects) == 0 {
		slog.Warn("annotate: text not located on page", "text", literal)
		return 0
	}
	for _, r := range rects {
		page.AddHighlight(document.Highlight{Rect: r, Color: color, Opacity: a.opacity})
	}
	return len(rects)
}
