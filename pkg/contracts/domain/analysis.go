package domain

import (
	"fmt"
	"strings"
	"time"
)

// Column names shared by ingestion, aggregation and export.
const (
	ManagerColumn    = "Manager"
	CountColumn      = "Number of Cases"
	ManagerSheetName = "Manager Cases"
	SheetNameSuffix  = " Cases"
	UnknownManager   = "Unknown"
	WorkbookMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AnalysisType selects the secondary manager dimension analyzed alongside Manager.
type AnalysisType string

const (
	AnalysisTypeReport    AnalysisType = "Report Manager"
	AnalysisTypeAssigning AnalysisType = "Assigning Manager"
	AnalysisTypeAllotment AnalysisType = "Allotment Manager"

	DefaultAnalysisType = AnalysisTypeReport
)

// AnalysisTypes lists the selectable dimensions in display order.
var AnalysisTypes = []AnalysisType{
	AnalysisTypeReport,
	AnalysisTypeAssigning,
	AnalysisTypeAllotment,
}

var outputFiles = map[AnalysisType]string{
	AnalysisTypeReport:    "manager_case_analysis_report.xlsx",
	AnalysisTypeAssigning: "manager_case_analysis_assigning.xlsx",
	AnalysisTypeAllotment: "manager_case_analysis_allotment.xlsx",
}

// ParseAnalysisType converts a form value into an AnalysisType.
// An empty value selects Report Manager.
func ParseAnalysisType(s string) (AnalysisType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultAnalysisType, nil
	}
	t := AnalysisType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unsupported analysis type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the three supported dimensions.
func (t AnalysisType) Valid() bool {
	_, ok := outputFiles[t]
	return ok
}

// Column returns the secondary column name read from the upload.
func (t AnalysisType) Column() string {
	return string(t)
}

// OutputFile returns the suggested download filename.
func (t AnalysisType) OutputFile() string {
	return outputFiles[t]
}

// SheetName returns the name of the workbook sheet holding this dimension.
func (t AnalysisType) SheetName() string {
	return SecondarySheetName(t.Column())
}

func (t AnalysisType) String() string {
	return string(t)
}

// SecondarySheetName returns "{column} Cases".
func SecondarySheetName(column string) string {
	return column + SheetNameSuffix
}

// FrequencyEntry is a single (label, count) pair.
type FrequencyEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FrequencyTable is an ordered count breakdown for one column.
// Entries are sorted by count descending and labels are unique.
type FrequencyTable struct {
	Column  string           `json:"column"`
	Entries []FrequencyEntry `json:"entries"`
}

// Total returns the sum of all counts.
func (t FrequencyTable) Total() int {
	total := 0
	for _, e := range t.Entries {
		total += e.Count
	}
	return total
}

// MaxCount returns the largest count, or 1 for an empty table so it can
// safely be used as a divisor for relative bar widths.
func (t FrequencyTable) MaxCount() int {
	max := 1
	for _, e := range t.Entries {
		if e.Count > max {
			max = e.Count
		}
	}
	return max
}

// Len returns the number of distinct labels.
func (t FrequencyTable) Len() int {
	return len(t.Entries)
}

// Clone returns a deep copy of the table.
func (t FrequencyTable) Clone() FrequencyTable {
	entries := make([]FrequencyEntry, len(t.Entries))
	copy(entries, t.Entries)
	return FrequencyTable{Column: t.Column, Entries: entries}
}

// AnalysisResult is the outcome of one upload: both breakdowns plus the
// metadata needed to export them without the original file.
type AnalysisResult struct {
	Token        string         `json:"token,omitempty"`
	Type         AnalysisType   `json:"analysis_type"`
	ReportColumn string         `json:"report_col"`
	OutputFile   string         `json:"output_file"`
	Manager      FrequencyTable `json:"manager_cases"`
	Secondary    FrequencyTable `json:"other_cases"`
	TotalCases   int            `json:"total_cases"`
	MaxManager   int            `json:"max_manager"`
	MaxSecondary int            `json:"max_other"`
	RowCount     int            `json:"row_count"`
	FilledRows   int            `json:"filled_rows"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
}

// NewAnalysisResult assembles a result and derives totals and maxima.
func NewAnalysisResult(t AnalysisType, manager, secondary FrequencyTable) *AnalysisResult {
	return &AnalysisResult{
		Type:         t,
		ReportColumn: t.Column(),
		OutputFile:   t.OutputFile(),
		Manager:      manager,
		Secondary:    secondary,
		TotalCases:   manager.Total(),
		MaxManager:   manager.MaxCount(),
		MaxSecondary: secondary.MaxCount(),
		CreatedAt:    time.Now().UTC(),
	}
}

// Clone returns a deep copy so cached results cannot be mutated by callers.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Manager = r.Manager.Clone()
	c.Secondary = r.Secondary.Clone()
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}
