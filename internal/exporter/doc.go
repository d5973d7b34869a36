// Package exporter turns analysis results into downloadable files.
//
// BuildWorkbook writes the Manager table and the secondary manager table to
// a two-sheet xlsx workbook in memory; ReadWorkbook reads such a workbook
// back. EncodeResult and DecodeResult carry a result through a client as
// URL-safe text so a download can be served without the stored token.
// WriteFrequencyCSV emits a single table as CSV for the command line.
package exporter
