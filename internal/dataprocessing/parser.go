package dataprocessing

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "casecount/internal/errors"
)

// CaseRow is one data row keyed by trimmed header name.
type CaseRow map[string]string

// CaseTable is an uploaded case register after ingestion. It lives only for
// the duration of one analysis.
type CaseTable struct {
	Sheet   string
	Headers []string
	Rows    []CaseRow
}

// Len returns the number of data rows.
func (t *CaseTable) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the header row contains column.
func (t *CaseTable) HasColumn(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// MissingColumns returns the subset of required not present in the header,
// in the order given.
func (t *CaseTable) MissingColumns(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// ParseCaseWorkbook reads the first sheet of an xlsx workbook. Row 1 is a
// banner and is skipped, row 2 holds the column names and the remaining
// rows are data. Header names and cell values are trimmed; rows with no
// content at all are dropped. Every column in required must be present.
func ParseCaseWorkbook(r io.Reader, required ...string) (*CaseTable, error) {
	if r == nil {
		return nil, apierrors.NewMissingInputError("no file uploaded")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, apierrors.NewMissingInputError("uploaded file is empty")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apierrors.NewParsingError("file is not a readable Excel workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apierrors.NewParsingError("workbook contains no sheets", nil)
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("cannot read sheet %q", sheet), err)
	}
	defer rows.Close()

	table := &CaseTable{Sheet: sheet}
	// position of each kept header; duplicates keep their first column
	var columns []int

	rowNum := 0
	for rows.Next() {
		rowNum++
		cells, err := rows.Columns()
		if err != nil {
			return nil, apierrors.NewParsingError(fmt.Sprintf("cannot read row %d", rowNum), err)
		}

		switch {
		case rowNum == 1:
			continue
		case rowNum == 2:
			table.Headers, columns = parseHeader(cells)
			continue
		}

		row := make(CaseRow, len(table.Headers))
		blank := true
		for i, h := range table.Headers {
			col := columns[i]
			if col >= len(cells) {
				continue
			}
			v := strings.TrimSpace(cells[col])
			if v != "" {
				blank = false
			}
			row[h] = v
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Error(); err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("cannot read sheet %q", sheet), err)
	}

	if missing := table.MissingColumns(required...); len(missing) > 0 {
		return nil, apierrors.NewSchemaError(missing)
	}

	return table, nil
}

// parseHeader trims header cells and drops blank or repeated names. It
// returns the kept names with the column index each one came from.
func parseHeader(cells []string) ([]string, []int) {
	headers := make([]string, 0, len(cells))
	columns := make([]int, 0, len(cells))
	seen := make(map[string]bool, len(cells))

	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		headers = append(headers, name)
		columns = append(columns, i)
	}
	return headers, columns
}
