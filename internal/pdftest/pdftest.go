// Package pdftest builds small PDFs for tests.
package pdftest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
)

const (
	FontSize = 12.0
	Left     = 72.0 // x of the first word on every line
	Top      = 72.0 // baseline of the first line, from the top of the page
	Leading  = 20.0
)

// Build returns a US Letter PDF with one page per element of pages. Each
// page is a newline separated list of lines, drawn in Helvetica one word at a
// time so that word gaps survive text extraction.
func Build(t testing.TB, pages ...string) []byte {
	t.Helper()
	return build(t, false, pages)
}

// BuildRuns is like Build but shows every line with a single text operator,
// the way most producers write running text.
func BuildRuns(t testing.TB, pages ...string) []byte {
	t.Helper()
	return build(t, true, pages)
}

func build(t testing.TB, runs bool, pages []string) []byte {
	t.Helper()

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", FontSize)
	for _, page := range pages {
		pdf.AddPage()
		y := Top
		for _, line := range strings.Split(page, "\n") {
			if runs {
				pdf.Text(Left, y, line)
				y += Leading
				continue
			}
			x := Left
			for _, w := range strings.Fields(line) {
				pdf.Text(x, y, w)
				x += pdf.GetStringWidth(w + " ")
			}
			y += Leading
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building test PDF: %v", err)
	}
	return buf.Bytes()
}

// Write builds a PDF like Build and stores it as name inside dir.
func Write(t testing.TB, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(t, pages...), 0o644); err != nil {
		t.Fatalf("writing test PDF: %v", err)
	}
	return path
}

// WordX returns the x at which Build draws word number n (0-based) of line.
func WordX(line string, n int) float64 {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", FontSize)
	x := Left
	for i, w := range strings.Fields(line) {
		if i == n {
			break
		}
		x += pdf.GetStringWidth(w + " ")
	}
	return x
}
