package document

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// Render produces a new PDF holding every page of d with its highlights.
// The original page content is imported unchanged. The extracted words are
// drawn again, fully transparent, so viewers can search and copy them, and
// the text layout is attached so Read gives back the same pages.
func (d *Document) Render() (out []byte, err error) {
	// gofpdi panics on content it cannot import.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("rendering PDF: %v", r)
		}
	}()

	layout, err := encodeLayout(d.Pages)
	if err != nil {
		return nil, fmt.Errorf("encoding text layout: %w", err)
	}

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddUTF8FontFromBytes(textFont, "", textFontTTF)
	pdf.SetFont(textFont, "", 10)
	pdf.SetAttachments([]fpdf.Attachment{{
		Content:     layout,
		Filename:    layoutAttachment,
		Description: "Text layout",
	}})

	textLayer := pdf.AddLayer("Text", true)
	markLayer := pdf.AddLayer("Highlights", true)

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(d.src))

	for _, page := range d.Pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})

		tpl := importer.ImportPageFromStream(pdf, &rs, page.Number, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, page.Width, page.Height)

		pdf.BeginLayer(textLayer)
		drawText(pdf, page)
		pdf.EndLayer()

		pdf.BeginLayer(markLayer)
		drawHighlights(pdf, page)
		pdf.EndLayer()

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", page.Number, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generating PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Save renders d and writes the result to path, replacing any existing file.
func (d *Document) Save(path string) error {
	data, err := d.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

// drawText writes every word at its extracted position, scaling the font so
// the word spans the same width it had on the page.
func drawText(pdf *fpdf.Fpdf, page *Page) {
	pdf.SetAlpha(0, "Normal")
	for _, ln := range page.lines {
		for _, w := range ln.words() {
			if w.size <= 0 {
				continue
			}
			text := bmp(w.text)
			pdf.SetFontSize(w.size)
			if sw := pdf.GetStringWidth(text); sw > 0 && w.width > 0 {
				pdf.SetFontSize(w.size * w.width / sw)
			}
			pdf.Text(w.x, w.baseline, text)
		}
	}
	pdf.SetAlpha(1, "Normal")
}

func drawHighlights(pdf *fpdf.Fpdf, page *Page) {
	for _, h := range page.highlights {
		if h.Rect.Empty() {
			continue
		}
		pdf.SetAlpha(h.Opacity, "Multiply")
		r, g, b := h.Color.rgb255()
		pdf.SetFillColor(r, g, b)
		pdf.Rect(h.Rect.X0, h.Rect.Y0, h.Rect.Width(), h.Rect.Height(), "F")
	}
	pdf.SetAlpha(1, "Normal")
}
