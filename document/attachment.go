package document

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// layoutAttachment is the file attached to every rendered document. It holds
// the lines and glyph boxes the document was rendered from, and Read restores
// pages from it instead of extracting the text layer again. The text layer
// uses an Identity-H font whose code points above U+00FF the reader decodes
// wrongly, so extraction alone would not give back non-Latin text.
const layoutAttachment = "text-layout.json"

type pageRecord struct {
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Lines  [][]cellRecord `json:"lines"`
}

type cellRecord struct {
	S        string     `json:"s"`
	Box      [4]float64 `json:"box"`
	Baseline float64    `json:"baseline"`
	Size     float64    `json:"size"`
	Space    bool       `json:"space,omitempty"`
}

func encodeLayout(pages []*Page) ([]byte, error) {
	records := make([]pageRecord, len(pages))
	for i, p := range pages {
		rec := pageRecord{Width: p.Width, Height: p.Height, Lines: make([][]cellRecord, len(p.lines))}
		for j, ln := range p.lines {
			cells := make([]cellRecord, len(ln.cells))
			for k, c := range ln.cells {
				cells[k] = cellRecord{
					S:        c.s,
					Box:      [4]float64{c.box.X0, c.box.Y0, c.box.X1, c.box.Y1},
					Baseline: c.baseline,
					Size:     c.size,
					Space:    c.space,
				}
			}
			rec.Lines[j] = cells
		}
		records[i] = rec
	}
	return json.Marshal(records)
}

// decodeLayout rebuilds the pages of a document with total pages.
func decodeLayout(data []byte, total int) ([]*Page, error) {
	var records []pageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding text layout: %w", err)
	}
	if len(records) != total {
		return nil, fmt.Errorf("text layout has %d pages, document has %d", len(records), total)
	}

	pages := make([]*Page, len(records))
	for i, rec := range records {
		page := &Page{Number: i + 1, Width: rec.Width, Height: rec.Height}
		for _, cells := range rec.Lines {
			ln := make([]cell, len(cells))
			for k, c := range cells {
				ln[k] = cell{
					s:        c.S,
					box:      Rect{X0: c.Box[0], Y0: c.Box[1], X1: c.Box[2], Y1: c.Box[3]},
					baseline: c.Baseline,
					size:     c.Size,
					space:    c.Space,
				}
			}
			page.lines = append(page.lines, newLine(ln))
		}
		page.text = joinLines(page.lines)
		pages[i] = page
	}
	return pages, nil
}

// attachedLayout returns the content of the layout attachment, if the
// document has one.
func attachedLayout(r *pdf.Reader) ([]byte, bool, error) {
	files := r.Trailer().Key("Root").Key("Names").Key("EmbeddedFiles").Key("Names")
	for i := 0; i+1 < files.Len(); i += 2 {
		spec := files.Index(i + 1)
		if spec.Key("UF").Text() != layoutAttachment {
			continue
		}
		rc := spec.Key("EF").Key("F").Reader()
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, true, fmt.Errorf("reading text layout: %w", err)
		}
		return data, true, nil
	}
	return nil, false, nil
}
