package document

import (
	"math"
	"slices"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestGlyphsFromLaysOutZeroWidthRuns(t *testing.T) {
	texts := []pdf.Text{
		{S: "A", X: 10, Y: 100, FontSize: 10},
		{S: "B", X: 10, Y: 100, FontSize: 10},
		{S: " ", X: 10, Y: 100, FontSize: 10},
		{S: "C", X: 10, Y: 100, FontSize: 10},
		{S: "D", X: 50, Y: 100, FontSize: 10, W: 6},
	}
	gs := glyphsFrom(texts)
	if len(gs) != 4 {
		t.Fatalf("got %d glyphs, want 4", len(gs))
	}
	if gs[0].joined || !gs[1].joined || gs[2].joined || gs[3].joined {
		t.Errorf("joined flags = %v %v %v %v", gs[0].joined, gs[1].joined, gs[2].joined, gs[3].joined)
	}
	if gs[0].w <= 0 {
		t.Error("zero width glyph was not given a width")
	}
	if gs[1].x != gs[0].x+gs[0].w {
		t.Errorf("B at %v, want %v", gs[1].x, gs[0].x+gs[0].w)
	}
	space := glyphWidth(" ", 10)
	if want := gs[1].x + gs[1].w + space; math.Abs(gs[2].x-want) > 1e-9 {
		t.Errorf("C at %v, want %v after the space", gs[2].x, want)
	}
	if gs[3].w != 6 || gs[3].x != 50 {
		t.Errorf("glyph with width changed: %+v", gs[3])
	}
}

func TestSingleRunLineKeepsWordGaps(t *testing.T) {
	var texts []pdf.Text
	for _, r := range "Invoice for Alpha Corp" {
		texts = append(texts, pdf.Text{S: string(r), X: 72, Y: 720, FontSize: 12})
	}
	lines := layoutLines(glyphsFrom(texts), DefaultOptions(), frame{height: 792})
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if got := lines[0].text; got != "Invoice for Alpha Corp" {
		t.Errorf("line text = %q", got)
	}
	var words []string
	for _, w := range lines[0].words() {
		words = append(words, w.text)
	}
	if want := []string{"Invoice", "for", "Alpha", "Corp"}; !slices.Equal(words, want) {
		t.Errorf("words = %q, want %q", words, want)
	}
}

func TestLayoutLines(t *testing.T) {
	g := func(s string, x, y float64) glyph { return glyph{s: s, x: x, y: y, w: 5, size: 10} }
	glyphs := []glyph{
		g("d", 20, 80),
		g("b", 15, 100),
		g("a", 10, 101),
		g("c", 40, 99),
	}
	lines := layoutLines(glyphs, DefaultOptions(), frame{height: 200})
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].text != "ab c" || lines[1].text != "d" {
		t.Errorf("lines = %q, %q", lines[0].text, lines[1].text)
	}

	words := lines[0].words()
	if len(words) != 2 || words[0].text != "ab" || words[1].text != "c" {
		t.Fatalf("words = %+v", words)
	}
	if words[0].width != 10 {
		t.Errorf("word width = %v, want 10", words[0].width)
	}

	r, ok := lines[0].span(0, 4)
	if !ok || r.X0 != 10 || r.X1 != 45 {
		t.Errorf("span = %+v, %v", r, ok)
	}
}

func TestFrameFlipsY(t *testing.T) {
	c := frame{llx: 10, lly: 20, height: 100}.cell(glyph{s: "x", x: 30, y: 70, w: 4, size: 10})
	if c.baseline != 50 {
		t.Errorf("baseline = %v, want 50", c.baseline)
	}
	if c.box.X0 != 20 || c.box.X1 != 24 {
		t.Errorf("box x = %v..%v, want 20..24", c.box.X0, c.box.X1)
	}
	if !(c.box.Y0 < 50 && c.box.Y1 > 50) {
		t.Errorf("box %+v does not straddle baseline", c.box)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{RowTolerance: 5}.withDefaults()
	if o.RowTolerance != 5 || o.WordSpaceRatio != DefaultOptions().WordSpaceRatio {
		t.Errorf("withDefaults = %+v", o)
	}
}

func TestBMP(t *testing.T) {
	if got := bmp("Łódź ok👍"); got != "Łódź ok\uFFFD" {
		t.Errorf("bmp = %q", got)
	}
}

func TestWinAnsi(t *testing.T) {
	if got := winAnsi("café€"); got != "caf\xe9\x80" {
		t.Errorf("winAnsi = %q", got)
	}
	if got := winAnsi("日"); got != "?" {
		t.Errorf("winAnsi of unsupported rune = %q", got)
	}
}

func TestDedupe(t *testing.T) {
	g := func(s string, x float64) glyph { return glyph{s: s, x: x, y: 100, w: 5, size: 10} }
	got := dedupe([]glyph{g("a", 10), g("b", 15), g("a", 10.2), g("b", 15.1), g("a", 40)})
	if len(got) != 3 || got[0].s != "a" || got[1].s != "b" || got[2].x != 40 {
		t.Errorf("dedupe = %+v", got)
	}
}
