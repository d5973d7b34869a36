package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"casecount/internal/exporter"
	"casecount/internal/validation"
	"casecount/pkg/contracts/domain"
)

type analyzeOptions struct {
	file     string
	analysis string
	out      string
	format   string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Count cases per manager in an uploaded workbook",
		Example: `  casecount analyze --file cases.xlsx
  casecount analyze --file cases.xlsx --type "Assigning Manager" --out reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "case export to analyze (.xlsx)")
	cmd.Flags().StringVarP(&opts.analysis, "type", "t", string(domain.DefaultAnalysisType),
		`secondary column: "Report Manager", "Assigning Manager" or "Allotment Manager"`)
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the result workbook to this file or directory")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "stdout format: table, csv or json")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	analysisType, err := domain.ParseAnalysisType(opts.analysis)
	if err != nil {
		return err
	}
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	files := validation.NewFileValidator(logger)
	if err := files.ValidateExcelFile(opts.file); err != nil {
		return err
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.file, err)
	}
	defer f.Close()

	ctx := cmd.Context()
	svc := newService()

	result, err := svc.Analyze(ctx, f, analysisType)
	if err != nil {
		return err
	}

	if err := printResult(cmd.OutOrStdout(), opts.format, result); err != nil {
		return err
	}

	if opts.out == "" {
		return nil
	}

	name, data, err := svc.Export(ctx, result)
	if err != nil {
		return err
	}
	path, err := files.ResolveOutputPath(opts.out, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.InfoContext(ctx, "workbook written", "path", path, "bytes", len(data))
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

func printResult(w io.Writer, format string, result *domain.AnalysisResult) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatCSV:
		if err := exporter.WriteFrequencyCSV(w, result.Manager, exporter.CSVOptions{}); err != nil {
			return err
		}
		fmt.Fprintln(w)
		return exporter.WriteFrequencyCSV(w, result.Secondary, exporter.CSVOptions{})
	default:
		fmt.Fprintf(w, "%s (%d cases)\n", domain.ManagerSheetName, result.TotalCases)
		renderTable(w, result.Manager)
		fmt.Fprintf(w, "\n%s\n", result.Type.SheetName())
		renderTable(w, result.Secondary)
		return nil
	}
}
