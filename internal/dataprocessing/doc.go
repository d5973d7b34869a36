// Package dataprocessing turns an uploaded case register into manager
// frequency tables.
//
// Ingestion reads the first sheet of an xlsx workbook with excelize. The
// first row is an export banner and is skipped; the second row names the
// columns. Header names and values are trimmed and fully blank rows are
// dropped.
//
// Aggregation fills the chosen secondary manager column from Manager where
// it is missing, then counts rows per distinct value:
//
//	table, err := dataprocessing.ParseCaseWorkbook(file, domain.ManagerColumn, t.Column())
//	if err != nil {
//	    return err
//	}
//	result, err := dataprocessing.Aggregate(table, t)
//
// Frequency tables are ordered by count descending with ties kept in
// first-occurrence order, so repeated runs over the same file always agree.
package dataprocessing
