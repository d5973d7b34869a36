package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCaseWorkbookBuild(t *testing.T) {
	data := ExampleCaseWorkbook().Build(t)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "Case Register Export", rows[0][0])
	assert.Equal(t, []string{"Manager", "Report Manager", "Assigning Manager", "Allotment Manager"}, rows[1])
	assert.Equal(t, []string{"A"}, rows[2])
	assert.Equal(t, []string{"A", "X"}, rows[3])
}

func TestCaseWorkbookBuild_CustomSheet(t *testing.T) {
	data := CaseWorkbook{
		SheetName: "Export",
		Headers:   []string{"Manager"},
		Rows:      []CaseRow{{"Manager": "A"}},
	}.Build(t)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Export"}, f.GetSheetList())
}
