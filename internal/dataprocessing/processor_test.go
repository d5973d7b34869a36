package dataprocessing

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "casecount/internal/errors"
	"casecount/internal/shared/testutil"
	"casecount/pkg/contracts/domain"
)

func newTable(rows ...CaseRow) *CaseTable {
	return &CaseTable{
		Headers: []string{"Manager", "Report Manager", "Assigning Manager", "Allotment Manager"},
		Rows:    rows,
	}
}

func TestFillFallback(t *testing.T) {
	table := newTable(
		CaseRow{"Manager": "A", "Report Manager": ""},
		CaseRow{"Manager": "A", "Report Manager": "X"},
		CaseRow{"Manager": "", "Report Manager": ""},
		CaseRow{"Manager": "B"},
	)

	filled, err := FillFallback(table, "Report Manager")
	require.NoError(t, err)

	assert.Equal(t, 3, filled)
	assert.Equal(t, "A", table.Rows[0]["Report Manager"])
	assert.Equal(t, "X", table.Rows[1]["Report Manager"], "present values are kept")
	assert.Equal(t, domain.UnknownManager, table.Rows[2]["Report Manager"])
	assert.Equal(t, "B", table.Rows[3]["Report Manager"])

	// Other secondary columns are untouched.
	assert.Equal(t, "", table.Rows[0]["Assigning Manager"])
}

func TestFillFallback_Invariant(t *testing.T) {
	for _, at := range domain.AnalysisTypes {
		t.Run(at.String(), func(t *testing.T) {
			table := newTable(
				CaseRow{"Manager": "A"},
				CaseRow{"Manager": "B", at.Column(): "C"},
				CaseRow{"Manager": "D", at.Column(): "  "},
			)
			original := make([]string, table.Len())
			for i, row := range table.Rows {
				original[i] = row[at.Column()]
			}

			_, err := FillFallback(table, at.Column())
			require.NoError(t, err)

			for i, row := range table.Rows {
				if original[i] == "" {
					assert.Equal(t, row["Manager"], row[at.Column()])
				} else {
					assert.Equal(t, original[i], row[at.Column()])
				}
			}
		})
	}
}

func TestFillFallback_ManagerColumnIsNoop(t *testing.T) {
	table := newTable(CaseRow{"Manager": ""})
	filled, err := FillFallback(table, "Manager")
	require.NoError(t, err)
	assert.Zero(t, filled)
	assert.Equal(t, "", table.Rows[0]["Manager"])
}

func TestFillFallback_MissingColumn(t *testing.T) {
	table := &CaseTable{Headers: []string{"Manager"}}
	_, err := FillFallback(table, "Report Manager")
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeSchema))
}

func TestCountFrequencies(t *testing.T) {
	table := newTable(
		CaseRow{"Manager": "C"},
		CaseRow{"Manager": "A"},
		CaseRow{"Manager": "B"},
		CaseRow{"Manager": "A"},
		CaseRow{"Manager": "B"},
		CaseRow{"Manager": "D"},
		CaseRow{"Manager": ""},
	)

	freq, err := CountFrequencies(table, "Manager")
	require.NoError(t, err)

	assert.Equal(t, "Manager", freq.Column)
	assert.Equal(t, []domain.FrequencyEntry{
		{Label: "A", Count: 2},
		{Label: "B", Count: 2},
		{Label: "C", Count: 1},
		{Label: "D", Count: 1},
		{Label: domain.UnknownManager, Count: 1},
	}, freq.Entries)
	assert.Equal(t, table.Len(), freq.Total())
	assert.Equal(t, 2, freq.MaxCount())
}

func TestCountFrequencies_Properties(t *testing.T) {
	// Deterministic pseudo-random input covering many labels and ties.
	var rows []CaseRow
	for i := 0; i < 200; i++ {
		rows = append(rows, CaseRow{"Manager": fmt.Sprintf("M%d", (i*7+i/3)%13)})
	}
	table := newTable(rows...)

	freq, err := CountFrequencies(table, "Manager")
	require.NoError(t, err)

	assert.Equal(t, len(rows), freq.Total(), "counts sum to row count")
	seen := map[string]bool{}
	for i, e := range freq.Entries {
		assert.False(t, seen[e.Label], "label %q repeated", e.Label)
		seen[e.Label] = true
		if i > 0 {
			assert.GreaterOrEqual(t, freq.Entries[i-1].Count, e.Count, "descending order")
		}
	}
}

func TestCountFrequencies_Empty(t *testing.T) {
	freq, err := CountFrequencies(newTable(), "Manager")
	require.NoError(t, err)
	assert.Empty(t, freq.Entries)
	assert.Zero(t, freq.Total())
	assert.Equal(t, 1, freq.MaxCount())
}

func TestCountFrequencies_MissingColumn(t *testing.T) {
	_, err := CountFrequencies(&CaseTable{Headers: []string{"Manager"}}, "Status")
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeSchema))
}

func TestAggregate_WorkedExample(t *testing.T) {
	data := testutil.ExampleCaseWorkbook().Build(t)

	table, err := ParseCaseWorkbook(bytes.NewReader(data), domain.ManagerColumn, "Report Manager")
	require.NoError(t, err)

	result, err := Aggregate(table, domain.AnalysisTypeReport)
	require.NoError(t, err)

	assert.Equal(t, []domain.FrequencyEntry{
		{Label: "A", Count: 2},
		{Label: "B", Count: 1},
	}, result.Manager.Entries)
	assert.Equal(t, []domain.FrequencyEntry{
		{Label: "A", Count: 1},
		{Label: "X", Count: 1},
		{Label: "B", Count: 1},
	}, result.Secondary.Entries)

	assert.Equal(t, "Report Manager", result.ReportColumn)
	assert.Equal(t, "Report Manager", result.Secondary.Column)
	assert.Equal(t, "manager_case_analysis_report.xlsx", result.OutputFile)
	assert.Equal(t, 3, result.TotalCases)
	assert.Equal(t, 2, result.MaxManager)
	assert.Equal(t, 1, result.MaxSecondary)
	assert.Equal(t, 3, result.RowCount)
	assert.Equal(t, 2, result.FilledRows)
}

func TestAggregate_EmptyTable(t *testing.T) {
	result, err := Aggregate(newTable(), domain.AnalysisTypeAllotment)
	require.NoError(t, err)

	assert.Empty(t, result.Manager.Entries)
	assert.Empty(t, result.Secondary.Entries)
	assert.Zero(t, result.TotalCases)
	assert.Equal(t, 1, result.MaxManager)
	assert.Equal(t, 1, result.MaxSecondary)
}

func TestAggregate_InvalidType(t *testing.T) {
	_, err := Aggregate(newTable(), domain.AnalysisType("Case Owner"))
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeValidation))
}
