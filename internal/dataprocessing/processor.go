package dataprocessing

import (
	"sort"

	apierrors "casecount/internal/errors"
	"casecount/pkg/contracts/domain"
)

// FillFallback replaces every missing value in column with the row's
// Manager value and returns how many rows were filled. A row whose Manager
// is also missing is filled with domain.UnknownManager. Filling the
// Manager column itself is a no-op.
func FillFallback(table *CaseTable, column string) (int, error) {
	if missing := table.MissingColumns(domain.ManagerColumn, column); len(missing) > 0 {
		return 0, apierrors.NewSchemaError(missing)
	}
	if column == domain.ManagerColumn {
		return 0, nil
	}

	filled := 0
	for _, row := range table.Rows {
		if row[column] != "" {
			continue
		}
		manager := row[domain.ManagerColumn]
		if manager == "" {
			manager = domain.UnknownManager
		}
		row[column] = manager
		filled++
	}
	return filled, nil
}

// CountFrequencies counts the rows per distinct value of column. Entries are
// ordered by count descending; equal counts keep the order in which the
// labels first appear. Missing values are counted as domain.UnknownManager.
func CountFrequencies(table *CaseTable, column string) (domain.FrequencyTable, error) {
	if !table.HasColumn(column) {
		return domain.FrequencyTable{}, apierrors.NewSchemaError([]string{column})
	}

	index := make(map[string]int)
	entries := make([]domain.FrequencyEntry, 0)

	for _, row := range table.Rows {
		label := row[column]
		if label == "" {
			label = domain.UnknownManager
		}
		if i, ok := index[label]; ok {
			entries[i].Count++
			continue
		}
		index[label] = len(entries)
		entries = append(entries, domain.FrequencyEntry{Label: label, Count: 1})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	return domain.FrequencyTable{Column: column, Entries: entries}, nil
}

// Aggregate runs the fallback fill for the analysis type's column and
// counts both Manager and that column. The table is modified in place.
func Aggregate(table *CaseTable, analysisType domain.AnalysisType) (*domain.AnalysisResult, error) {
	if !analysisType.Valid() {
		return nil, apierrors.NewAppValidationError("unsupported analysis type " + analysisType.String())
	}
	column := analysisType.Column()

	filled, err := FillFallback(table, column)
	if err != nil {
		return nil, err
	}

	manager, err := CountFrequencies(table, domain.ManagerColumn)
	if err != nil {
		return nil, err
	}
	secondary, err := CountFrequencies(table, column)
	if err != nil {
		return nil, err
	}

	result := domain.NewAnalysisResult(analysisType, manager, secondary)
	result.RowCount = table.Len()
	result.FilledRows = filled
	return result, nil
}
