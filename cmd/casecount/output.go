package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"casecount/pkg/contracts/domain"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatCSV, formatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want table, csv or json)", format)
	}
}

// renderTable prints one frequency table with a total footer.
func renderTable(w io.Writer, table domain.FrequencyTable) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"#", table.Column, domain.CountColumn})
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, e := range table.Entries {
		tw.Append([]string{strconv.Itoa(i + 1), e.Label, strconv.Itoa(e.Count)})
	}
	tw.SetFooter([]string{"", "Total", strconv.Itoa(table.Total())})
	tw.Render()
}
