package document

import (
	_ "embed"
	"strings"
	"sync"
	"unicode/utf8"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

// measureFont is the core font used to estimate glyph widths that the PDF
// does not carry.
const measureFont = "Helvetica"

// textFont is the family registered for the invisible text layer.
const textFont = "DejaVu"

//go:embed fonts/DejaVuSansCondensed.ttf
var textFontTTF []byte

var metrics struct {
	sync.Mutex
	pdf *fpdf.Fpdf
}

// glyphWidth returns the advance of s in Helvetica at the given size.
func glyphWidth(s string, size float64) float64 {
	metrics.Lock()
	defer metrics.Unlock()
	if metrics.pdf == nil {
		metrics.pdf = fpdf.New("P", "pt", "", "")
		metrics.pdf.SetFont(measureFont, "", 1)
	}
	return metrics.pdf.GetStringWidth(winAnsi(s)) * size
}

// winAnsi encodes s for the core fonts. Runes outside Windows-1252 become
// '?'.
func winAnsi(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c = '?'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// bmp replaces runes outside the Basic Multilingual Plane, which the
// embedded font writer cannot index, with U+FFFD.
func bmp(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return utf8.RuneError
		}
		return r
	}, s)
}
