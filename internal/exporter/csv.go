package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"casecount/pkg/contracts/domain"
)

// utf8BOM makes Excel detect UTF-8 when opening a CSV directly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures WriteFrequencyCSV.
type CSVOptions struct {
	BOMPrefix bool
}

// WriteFrequencyCSV writes one frequency table as CSV with the same header
// row as the workbook sheets.
func WriteFrequencyCSV(w io.Writer, table domain.FrequencyTable, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{table.Column, domain.CountColumn}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range table.Entries {
		if err := cw.Write([]string{e.Label, strconv.Itoa(e.Count)}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
