package testutil

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

// CaseRow is one data row of a fixture upload, keyed by header name.
// A missing key or empty string leaves the cell blank.
type CaseRow map[string]string

// CaseWorkbook describes an upload in the layout users export from the
// case tracker: a banner row, then the header row, then data.
type CaseWorkbook struct {
	Banner  string
	Headers []string
	Rows    []CaseRow
	// SheetName defaults to "Sheet1".
	SheetName string
}

// Build renders the workbook to xlsx bytes.
func (w CaseWorkbook) Build(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if w.SheetName != "" && w.SheetName != sheet {
		if err := f.SetSheetName(sheet, w.SheetName); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
		sheet = w.SheetName
	}

	banner := w.Banner
	if banner == "" {
		banner = "Case Register Export"
	}
	if err := f.SetCellValue(sheet, "A1", banner); err != nil {
		t.Fatalf("write banner: %v", err)
	}

	header := make([]interface{}, len(w.Headers))
	for i, h := range w.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}

	for i, row := range w.Rows {
		for j, h := range w.Headers {
			v, ok := row[h]
			if !ok || v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+3)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				t.Fatalf("write cell %s: %v", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// DefaultCaseHeaders is a realistic header row, padded with whitespace the
// way the tracker export emits it.
func DefaultCaseHeaders() []string {
	return []string{"Case ID", " Manager ", "Report Manager", "Assigning Manager ", " Allotment Manager", "Status"}
}

// ExampleCaseWorkbook returns the three-row example used throughout the
// aggregation tests: Manager A twice, B once, one Report Manager set to X.
func ExampleCaseWorkbook() CaseWorkbook {
	return CaseWorkbook{
		Headers: []string{"Manager", "Report Manager", "Assigning Manager", "Allotment Manager"},
		Rows: []CaseRow{
			{"Manager": "A"},
			{"Manager": "A", "Report Manager": "X"},
			{"Manager": "B"},
		},
	}
}
