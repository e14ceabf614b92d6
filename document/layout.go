package document

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Vertical extent of a glyph box relative to the font size.
const (
	ascentRatio  = 0.718
	descentRatio = 0.207
)

// Options tunes how glyphs are grouped into lines and words.
type Options struct {
	// RowTolerance is the largest baseline difference, in points, between
	// glyphs of the same line.
	RowTolerance float64 `json:"row_tolerance" yaml:"row_tolerance"`

	// WordSpaceRatio is the horizontal gap, as a fraction of the font size,
	// above which two glyphs are separated by a space.
	WordSpaceRatio float64 `json:"word_space_ratio" yaml:"word_space_ratio"`
}

// DefaultOptions returns the layout settings used when none are given.
func DefaultOptions() Options {
	return Options{
		RowTolerance:   3.0,
		WordSpaceRatio: 0.15,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RowTolerance <= 0 {
		o.RowTolerance = d.RowTolerance
	}
	if o.WordSpaceRatio <= 0 {
		o.WordSpaceRatio = d.WordSpaceRatio
	}
	return o
}

// glyph is a single shown character in PDF user space (baseline origin,
// y growing upwards).
type glyph struct {
	s    string
	x, y float64
	w    float64
	size float64

	// joined is set when the glyph continues the run of the previous one
	// and must not be separated from it by a space.
	joined bool
}

// glyphsFrom converts extracted characters into glyphs. Fonts without a
// width table (the standard 14 fonts usually ship without one) report zero
// width and do not advance between characters, so every character of a run
// lands on the same x. Such runs get widths from the Helvetica metrics and
// are laid out one character after the other. Spaces are not kept as glyphs,
// but they advance the run and end the word before them.
func glyphsFrom(texts []pdf.Text) []glyph {
	out := make([]glyph, 0, len(texts))
	var (
		prev   pdf.Text
		cursor float64 // where the next character of a zero-width run starts
		spaced bool    // a space was shown since the last glyph of the run
	)
	for i, t := range texts {
		size := math.Abs(t.FontSize)
		run := i > 0 && t.W <= 0 && prev.W <= 0 && t.X == prev.X && t.Y == prev.Y
		prev = t

		x, w := t.X, t.W
		if w <= 0 {
			w = glyphWidth(t.S, size)
		}
		if run {
			x = cursor
		} else {
			spaced = false
		}
		cursor = x + w

		if strings.TrimSpace(t.S) == "" {
			spaced = true
			continue
		}
		out = append(out, glyph{s: t.S, x: x, y: t.Y, w: w, size: size, joined: run && !spaced})
		spaced = false
	}
	return out
}

// dedupe drops glyphs repeated at the same spot, as with overprinted (fake
// bold) text or a text layer drawn over the same words.
func dedupe(glyphs []glyph) []glyph {
	type key struct {
		s    string
		x, y int
	}
	seen := make(map[key]bool, len(glyphs))
	out := glyphs[:0]
	for _, g := range glyphs {
		k := key{g.s, int(math.Round(g.x)), int(math.Round(g.y))}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, g)
	}
	return out
}

// cell is one character of a line in page coordinates. Synthetic spaces are
// inserted between words and span the gap between them.
type cell struct {
	s        string
	box      Rect
	baseline float64
	size     float64
	space    bool
}

type line struct {
	cells  []cell
	text   string
	starts []int // byte offset of each cell within text
}

func newLine(cells []cell) line {
	ln := line{cells: cells, starts: make([]int, len(cells))}
	var b strings.Builder
	for i, c := range cells {
		ln.starts[i] = b.Len()
		b.WriteString(c.s)
	}
	ln.text = b.String()
	return ln
}

// span returns the union of the boxes of the cells covering text[start:end].
func (ln line) span(start, end int) (Rect, bool) {
	var r Rect
	found := false
	for i, c := range ln.cells {
		cs := ln.starts[i]
		ce := cs + len(c.s)
		if ce <= start || cs >= end {
			continue
		}
		if !found {
			r = c.box
			found = true
			continue
		}
		r = r.Union(c.box)
	}
	return r, found
}

// word is a run of cells between spaces, used to redraw the text layer.
type word struct {
	text     string
	x        float64
	width    float64
	baseline float64
	size     float64
}

func (ln line) words() []word {
	var words []word
	var cur []cell
	flush := func() {
		if len(cur) == 0 {
			return
		}
		var b strings.Builder
		w := word{x: cur[0].box.X0, baseline: cur[0].baseline}
		for _, c := range cur {
			b.WriteString(c.s)
			w.size = max(w.size, c.size)
		}
		w.text = b.String()
		w.width = cur[len(cur)-1].box.X1 - w.x
		words = append(words, w)
		cur = cur[:0]
	}
	for _, c := range ln.cells {
		if c.space {
			flush()
			continue
		}
		cur = append(cur, c)
	}
	flush()
	return words
}

// frame maps PDF user space onto page coordinates.
type frame struct {
	llx, lly float64
	height   float64
}

func (f frame) cell(g glyph) cell {
	baseline := f.height - (g.y - f.lly)
	return cell{
		s: g.s,
		box: Rect{
			X0: g.x - f.llx,
			Y0: baseline - ascentRatio*g.size,
			X1: g.x + g.w - f.llx,
			Y1: baseline + descentRatio*g.size,
		},
		baseline: baseline,
		size:     g.size,
	}
}

// layoutLines groups glyphs into lines from the top of the page down,
// orders each line left to right and inserts spaces at word gaps.
func layoutLines(glyphs []glyph, opts Options, f frame) []line {
	type row struct {
		yMin, yMax float64
		glyphs     []glyph
	}

	var rows []*row
	for _, g := range glyphs {
		var target *row
		for _, r := range rows {
			if g.y >= r.yMin-opts.RowTolerance && g.y <= r.yMax+opts.RowTolerance {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{yMin: g.y, yMax: g.y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, g)
		target.yMin = min(target.yMin, g.y)
		target.yMax = max(target.yMax, g.y)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].yMax > rows[j].yMax })

	lines := make([]line, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].x < r.glyphs[j].x })

		cells := make([]cell, 0, len(r.glyphs))
		for i, g := range r.glyphs {
			c := f.cell(g)
			if i > 0 && !g.joined {
				prev := r.glyphs[i-1]
				gap := g.x - (prev.x + prev.w)
				if gap > opts.WordSpaceRatio*max(g.size, prev.size) {
					last := cells[len(cells)-1]
					cells = append(cells, cell{
						s:     " ",
						space: true,
						box: Rect{
							X0: last.box.X1,
							Y0: min(last.box.Y0, c.box.Y0),
							X1: c.box.X0,
							Y1: max(last.box.Y1, c.box.Y1),
						},
						baseline: c.baseline,
						size:     c.size,
					})
				}
			}
			cells = append(cells, c)
		}
		lines = append(lines, newLine(cells))
	}
	return lines
}

func joinLines(lines []line) string {
	texts := make([]string, len(lines))
	for i, ln := range lines {
		texts[i] = ln.text
	}
	return strings.Join(texts, "\n")
}
