package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casecount/internal/shared/testutil"
)

const exampleCSV = "Manager,Number of Cases\nA,2\nB,1\n\n" +
	"Report Manager,Number of Cases\nA,1\nX,1\nB,1\n"

func writeExample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.xlsx")
	require.NoError(t, os.WriteFile(path, testutil.ExampleCaseWorkbook().Build(t), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyze_Table(t *testing.T) {
	stdout, _, err := execute(t, "analyze", "--file", writeExample(t))
	require.NoError(t, err)

	assert.Contains(t, stdout, "Manager Cases (3 cases)")
	assert.Contains(t, stdout, "Report Manager Cases")
	assert.Contains(t, stdout, "Number of Cases")
	assert.Contains(t, stdout, "Total")
}

func TestAnalyze_CSV(t *testing.T) {
	stdout, _, err := execute(t, "analyze", "--file", writeExample(t), "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, exampleCSV, stdout)
}

func TestAnalyze_JSON(t *testing.T) {
	stdout, _, err := execute(t, "analyze", "-f", writeExample(t), "-t", "Allotment Manager", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"analysis_type": "Allotment Manager"`)
	assert.Contains(t, stdout, `"output_file": "manager_case_analysis_allotment.xlsx"`)
	assert.Contains(t, stdout, `"total_cases": 3`)
}

func TestAnalyze_OutDirectoryThenVerify(t *testing.T) {
	outDir := t.TempDir()
	_, stderr, err := execute(t, "analyze", "--file", writeExample(t), "--out", outDir, "--format", "csv")
	require.NoError(t, err)

	written := filepath.Join(outDir, "manager_case_analysis_report.xlsx")
	assert.FileExists(t, written)
	assert.Contains(t, stderr, written)

	stdout, _, err := execute(t, "verify", "--file", written, "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, exampleCSV, stdout)
}

func TestAnalyze_OutFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "custom.xlsx")
	_, _, err := execute(t, "analyze", "--file", writeExample(t), "--type", "Assigning Manager", "--out", out)
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestAnalyze_Errors(t *testing.T) {
	example := writeExample(t)
	notExcel := filepath.Join(t.TempDir(), "notes.xlsx")
	require.NoError(t, os.WriteFile(notExcel, []byte("plain text"), 0o644))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing file flag", []string{"analyze"}, `required flag(s) "file" not set`},
		{"unknown type", []string{"analyze", "--file", example, "--type", "Owner"}, "unsupported analysis type"},
		{"unknown format", []string{"analyze", "--file", example, "--format", "xml"}, "unsupported format"},
		{"missing input", []string{"analyze", "--file", filepath.Join(t.TempDir(), "absent.xlsx")}, "does not exist"},
		{"verify directory", []string{"verify", "--file", t.TempDir()}, "is a directory"},
		{"not a workbook", []string{"analyze", "--file", notExcel}, "Excel"},
		{"verify source upload", []string{"verify", "--file", example}, "expected 2 sheets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Manager Case Analysis v")
}
