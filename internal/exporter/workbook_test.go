package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "casecount/internal/errors"
	"casecount/pkg/contracts/domain"
)

func sampleResult(t domain.AnalysisType) *domain.AnalysisResult {
	return domain.NewAnalysisResult(t,
		domain.FrequencyTable{Column: domain.ManagerColumn, Entries: []domain.FrequencyEntry{
			{Label: "Alice", Count: 5},
			{Label: "Bob", Count: 3},
			{Label: "007", Count: 1},
		}},
		domain.FrequencyTable{Column: t.Column(), Entries: []domain.FrequencyEntry{
			{Label: "Xavier", Count: 4},
			{Label: "Alice", Count: 4},
			{Label: "Bob", Count: 1},
		}},
	)
}

func TestBuildWorkbook_Layout(t *testing.T) {
	data, err := BuildWorkbook(sampleResult(domain.AnalysisTypeAssigning))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Manager Cases", "Assigning Manager Cases"}, f.GetSheetList())

	rows, err := f.GetRows("Manager Cases")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Manager", "Number of Cases"},
		{"Alice", "5"},
		{"Bob", "3"},
		{"007", "1"},
	}, rows)

	rows, err = f.GetRows("Assigning Manager Cases")
	require.NoError(t, err)
	assert.Equal(t, []string{"Assigning Manager", "Number of Cases"}, rows[0])
	assert.Equal(t, []string{"Xavier", "4"}, rows[1])

	// Counts are numbers, labels that look numeric stay text.
	countType, err := f.GetCellType("Manager Cases", "B2")
	require.NoError(t, err)
	assert.Contains(t, []excelize.CellType{excelize.CellTypeUnset, excelize.CellTypeNumber}, countType)

	labelType, err := f.GetCellType("Manager Cases", "A4")
	require.NoError(t, err)
	assert.Contains(t, []excelize.CellType{excelize.CellTypeSharedString, excelize.CellTypeInlineString}, labelType)
}

func TestBuildWorkbook_EmptyTables(t *testing.T) {
	result := domain.NewAnalysisResult(domain.AnalysisTypeReport,
		domain.FrequencyTable{Column: domain.ManagerColumn},
		domain.FrequencyTable{Column: "Report Manager"})

	data, err := BuildWorkbook(result)
	require.NoError(t, err)

	manager, secondary, err := ReadWorkbook(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, manager.Entries)
	assert.Empty(t, secondary.Entries)
	assert.Equal(t, "Report Manager", secondary.Column)
}

func TestBuildWorkbook_RoundTrip(t *testing.T) {
	for _, at := range domain.AnalysisTypes {
		t.Run(at.String(), func(t *testing.T) {
			result := sampleResult(at)

			data, err := BuildWorkbook(result)
			require.NoError(t, err)

			manager, secondary, err := ReadWorkbook(bytes.NewReader(data))
			require.NoError(t, err)

			assert.Equal(t, result.Manager, manager)
			assert.Equal(t, result.Secondary, secondary)
		})
	}
}

func TestBuildWorkbook_RoundTripEscapedLabels(t *testing.T) {
	labels := []string{
		"a\x01b",
		"_x0041_",
		"_x005F_",
		"_x0041_x0042_",
		"_x0041\x01",
		"snake_case_x",
		"bell\x07 and\ttab",
		"007",
		"=SUM(A1)",
		" pad ",
	}
	entries := make([]domain.FrequencyEntry, len(labels))
	for i, l := range labels {
		entries[i] = domain.FrequencyEntry{Label: l, Count: len(labels) - i}
	}
	result := domain.NewAnalysisResult(domain.AnalysisTypeReport,
		domain.FrequencyTable{Column: domain.ManagerColumn, Entries: entries},
		domain.FrequencyTable{Column: "Report Manager", Entries: entries})

	data, err := BuildWorkbook(result)
	require.NoError(t, err)

	manager, secondary, err := ReadWorkbook(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, result.Manager, manager)
	assert.Equal(t, result.Secondary, secondary)
}

func TestBuildWorkbook_Errors(t *testing.T) {
	_, err := BuildWorkbook(nil)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeExport))

	tooLong := sampleResult(domain.AnalysisTypeReport)
	tooLong.ReportColumn = strings.Repeat("R", 26)
	_, err = BuildWorkbook(tooLong)
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeExport))
	assert.Contains(t, err.Error(), "limit is 31")

	badChars := sampleResult(domain.AnalysisTypeReport)
	badChars.ReportColumn = "Report/Manager"
	_, err = BuildWorkbook(badChars)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeExport))

	clash := sampleResult(domain.AnalysisTypeReport)
	clash.ReportColumn = domain.ManagerColumn
	_, err = BuildWorkbook(clash)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeExport))
}

func TestValidateSheetName(t *testing.T) {
	assert.NoError(t, validateSheetName("Allotment Manager Cases"))
	assert.NoError(t, validateSheetName(strings.Repeat("é", 31)), "limit counts characters, not bytes")
	assert.Error(t, validateSheetName(strings.Repeat("é", 32)))
	assert.Error(t, validateSheetName("  "))
}

func TestReadWorkbook_Rejects(t *testing.T) {
	_, _, err := ReadWorkbook(strings.NewReader("not a workbook"))
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeParsing))

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Manager", "Number of Cases"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, _, err = ReadWorkbook(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 sheets")
}

func TestEscapeCellText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice", "Alice"},
		{"snake_case", "snake_case"},
		{"_x0041_", "_x005F_x0041_"},
		{"_xabcdZ", "_x005F_xabcdZ"},
		{"_x0041_x0042_", "_x005F_x0041_x005F_x0042_"},
		{"a\x01b", "a_x0001_b"},
		{"\uFFFE", "_xFFFE_"},
		{"tab\tline\n", "tab\tline\n"},
		{"é_x", "é_x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeCellText(tt.in))
		})
	}
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, float64(12), columnWidth("A"))
	assert.Equal(t, float64(19), columnWidth("Allotment Manager"))
	assert.Equal(t, float64(62), columnWidth(strings.Repeat("x", 200)))
}
