package exporter

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "casecount/internal/errors"
	"casecount/pkg/contracts/domain"
)

// BuildWorkbook renders both frequency tables of result as an xlsx workbook
// held in memory. The first sheet is "Manager Cases", the second
// "{secondary column} Cases"; each has a header row followed by one row per
// entry in table order, with counts stored as numbers.
func BuildWorkbook(result *domain.AnalysisResult) ([]byte, error) {
	if result == nil {
		return nil, apierrors.NewExportError("no analysis result to export", nil)
	}

	secondaryColumn := secondaryColumnOf(result)
	managerSheet := domain.ManagerSheetName
	secondarySheet := domain.SecondarySheetName(secondaryColumn)

	for _, name := range []string{managerSheet, secondarySheet} {
		if err := validateSheetName(name); err != nil {
			return nil, err
		}
	}
	if strings.EqualFold(managerSheet, secondarySheet) {
		return nil, apierrors.NewExportError(fmt.Sprintf("secondary column %q duplicates the Manager sheet", secondaryColumn), nil)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), managerSheet); err != nil {
		return nil, apierrors.NewInternalExportError("failed to name manager sheet", err)
	}
	if _, err := f.NewSheet(secondarySheet); err != nil {
		return nil, apierrors.NewInternalExportError("failed to create secondary sheet", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, apierrors.NewInternalExportError("failed to create header style", err)
	}

	if err := writeFrequencySheet(f, managerSheet, domain.ManagerColumn, result.Manager, headerStyle); err != nil {
		return nil, err
	}
	if err := writeFrequencySheet(f, secondarySheet, secondaryColumn, result.Secondary, headerStyle); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apierrors.NewInternalExportError("failed to write workbook", err)
	}
	return buf.Bytes(), nil
}

func writeFrequencySheet(f *excelize.File, sheet, column string, table domain.FrequencyTable, headerStyle int) error {
	header := []interface{}{escapeCellText(column), domain.CountColumn}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return apierrors.NewInternalExportError(fmt.Sprintf("failed to write header of %q", sheet), err)
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return apierrors.NewInternalExportError(fmt.Sprintf("failed to style header of %q", sheet), err)
	}

	labels := make([]string, 0, len(table.Entries)+1)
	labels = append(labels, column)
	for i, e := range table.Entries {
		row := []interface{}{escapeCellText(e.Label), e.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apierrors.NewInternalExportError("failed to address row", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apierrors.NewInternalExportError(fmt.Sprintf("failed to write row %d of %q", i+2, sheet), err)
		}
		labels = append(labels, e.Label)
	}

	if err := f.SetColWidth(sheet, "A", "A", columnWidth(labels...)); err != nil {
		return apierrors.NewInternalExportError("failed to size columns", err)
	}
	if err := f.SetColWidth(sheet, "B", "B", columnWidth(domain.CountColumn)); err != nil {
		return apierrors.NewInternalExportError("failed to size columns", err)
	}
	return nil
}

// ReadWorkbook reads a workbook produced by BuildWorkbook back into its two
// frequency tables.
func ReadWorkbook(r io.Reader) (manager, secondary domain.FrequencyTable, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return manager, secondary, apierrors.NewParsingError("file is not a readable Excel workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		return manager, secondary, apierrors.NewParsingError(
			fmt.Sprintf("expected 2 sheets, found %d", len(sheets)), nil)
	}
	if sheets[0] != domain.ManagerSheetName {
		return manager, secondary, apierrors.NewParsingError(
			fmt.Sprintf("first sheet is %q, expected %q", sheets[0], domain.ManagerSheetName), nil)
	}

	if manager, err = readFrequencySheet(f, sheets[0]); err != nil {
		return manager, secondary, err
	}
	secondary, err = readFrequencySheet(f, sheets[1])
	return manager, secondary, err
}

func readFrequencySheet(f *excelize.File, sheet string) (domain.FrequencyTable, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.FrequencyTable{}, apierrors.NewParsingError(fmt.Sprintf("cannot read sheet %q", sheet), err)
	}
	if len(rows) == 0 || len(rows[0]) < 2 || rows[0][1] != domain.CountColumn {
		return domain.FrequencyTable{}, apierrors.NewParsingError(
			fmt.Sprintf("sheet %q has no [column, %s] header", sheet, domain.CountColumn), nil)
	}

	table := domain.FrequencyTable{Column: rows[0][0], Entries: make([]domain.FrequencyEntry, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return domain.FrequencyTable{}, apierrors.NewParsingError(
				fmt.Sprintf("sheet %q row %d is incomplete", sheet, i+2), nil)
		}
		count, err := strconv.Atoi(row[1])
		if err != nil {
			return domain.FrequencyTable{}, apierrors.NewParsingError(
				fmt.Sprintf("sheet %q row %d has a non-numeric count", sheet, i+2), err)
		}
		table.Entries = append(table.Entries, domain.FrequencyEntry{Label: row[0], Count: count})
	}
	return table, nil
}

func secondaryColumnOf(result *domain.AnalysisResult) string {
	switch {
	case result.ReportColumn != "":
		return result.ReportColumn
	case result.Secondary.Column != "":
		return result.Secondary.Column
	default:
		return result.Type.Column()
	}
}
