package table

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeSheet(t *testing.T, rows ...[]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "names.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestReadNames(t *testing.T) {
	path := writeSheet(t,
		[]interface{}{"Name", "Note"},
		[]interface{}{"Alpha Corp", "x"},
		[]interface{}{"", "blank name"},
		[]interface{}{"  Beta  "},
		[]interface{}{"Alpha Corp"},
	)

	tests := []struct {
		name      string
		headerRow bool
		want      []string
	}{
		{"with header", true, []string{"Alpha Corp", "Beta", "Alpha Corp"}},
		{"without header", false, []string{"Name", "Alpha Corp", "Beta", "Alpha Corp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadNames(path, tt.headerRow)
			if err != nil {
				t.Fatalf("ReadNames returned error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ReadNames = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadNamesHeaderOnly(t *testing.T) {
	path := writeSheet(t, []interface{}{"Name"})
	got, err := ReadNames(path, true)
	if err != nil {
		t.Fatalf("ReadNames returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadNames = %q, want none", got)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.xlsx"), true); err == nil {
		t.Fatal("Read of missing file returned no error")
	}
}

func TestWriteColumnRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.xlsx")
	words := []string{"Corp", "corporate", "CORP"}
	if err := WriteColumn(path, "Words Containing 'orp'", words); err != nil {
		t.Fatalf("WriteColumn returned error: %v", err)
	}

	tbl, err := Read(path, true)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !slices.Equal(tbl.Header, []string{"Words Containing 'orp'"}) {
		t.Errorf("Header = %q", tbl.Header)
	}
	if got := tbl.Column(0); !slices.Equal(got, words) {
		t.Errorf("Column(0) = %q, want %q", got, words)
	}
}

func TestWriteNamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	in := &Table{Sheet: "Matches", Header: []string{"Word", "Count"}, Rows: [][]string{{"Corp", "2"}}}
	if err := Write(path, in); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	out, err := Read(path, true)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if out.Sheet != "Matches" || len(out.Rows) != 1 || !slices.Equal(out.Rows[0], []string{"Corp", "2"}) {
		t.Errorf("Read = %+v", out)
	}
}

func TestFilter(t *testing.T) {
	in := &Table{
		Header: []string{"Word"},
		Rows: [][]string{
			{"Corp", "1"},
			{""},
			{},
			{"alpha"},
			{"INCORPORATED"},
			{"", "orp in second column"},
		},
	}

	got := Filter(in, "orp")
	want := [][]string{{"Corp", "1"}, {"INCORPORATED"}}
	if len(got.Rows) != len(want) {
		t.Fatalf("Filter kept %d rows, want %d", len(got.Rows), len(want))
	}
	for i := range want {
		if !slices.Equal(got.Rows[i], want[i]) {
			t.Errorf("row %d = %q, want %q", i, got.Rows[i], want[i])
		}
	}
	if !slices.Equal(got.Header, in.Header) {
		t.Errorf("Header = %q", got.Header)
	}
	if len(in.Rows) != 6 {
		t.Error("Filter modified its input")
	}

	all := Filter(in, "")
	if len(all.Rows) != 3 {
		t.Errorf("empty substring kept %d rows, want 3", len(all.Rows))
	}
}
