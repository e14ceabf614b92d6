package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/ledongthuc/pdf"
)

// Load reads and parses the PDF at path.
func Load(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}
	doc, err := Read(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Read parses a PDF held in memory. The document keeps data for rendering;
// callers must not modify it afterwards. A document produced by Render is
// restored from the text layout attached to it, and opts do not apply.
func Read(data []byte, opts Options) (doc *Document, err error) {
	// The reader panics on some malformed files instead of returning errors.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, ErrNoPages
	}

	doc = &Document{src: data}

	// Documents rendered by this package carry their own layout.
	layout, ok, err := attachedLayout(reader)
	if ok {
		if err == nil {
			doc.Pages, err = decodeLayout(layout, total)
		}
		if err == nil {
			return doc, nil
		}
		slog.Warn("document: ignoring attached text layout", "error", err)
	}

	opts = opts.withDefaults()
	doc.Pages = make([]*Page, 0, total)
	for i := 1; i <= total; i++ {
		doc.Pages = append(doc.Pages, readPage(reader.Page(i), i, opts))
	}
	return doc, nil
}

func readPage(p pdf.Page, number int, opts Options) *Page {
	llx, lly, urx, ury := mediaBox(p.V)
	page := &Page{
		Number: number,
		Width:  urx - llx,
		Height: ury - lly,
	}
	if p.V.IsNull() {
		slog.Warn("document: page object missing", "page", number)
		return page
	}

	glyphs := dedupe(glyphsFrom(p.Content().Text))
	page.lines = layoutLines(glyphs, opts, frame{llx: llx, lly: lly, height: page.Height})
	page.text = joinLines(page.lines)
	return page
}

// mediaBox returns the page's MediaBox, inherited through the page tree when
// the page does not set one. Pages without any fall back to US Letter.
func mediaBox(v pdf.Value) (llx, lly, urx, ury float64) {
	for depth := 0; depth < 32 && v.Kind() == pdf.Dict; depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
			x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
			if x1 != x0 && y1 != y0 {
				return min(x0, x1), min(y0, y1), max(x0, x1), max(y0, y1)
			}
		}
		v = v.Key("Parent")
	}
	return 0, 0, 612, 792
}
