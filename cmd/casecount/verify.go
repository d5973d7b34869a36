package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"casecount/internal/validation"
	"casecount/pkg/contracts/domain"
)

func newVerifyCmd() *cobra.Command {
	var file, format string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Read an exported workbook back and print its tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if err := validation.NewFileValidator(logger).ValidateExcelFile(file); err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			manager, secondary, err := newService().Verify(cmd.Context(), data)
			if err != nil {
				return err
			}
			if manager.Total() != secondary.Total() {
				logger.WarnContext(cmd.Context(), "sheet totals differ",
					"manager_total", manager.Total(), "secondary_total", secondary.Total())
			}

			analysisType, err := domain.ParseAnalysisType(secondary.Column)
			if err != nil {
				return fmt.Errorf("unexpected secondary column %q: %w", secondary.Column, err)
			}
			return printResult(cmd.OutOrStdout(), format, domain.NewAnalysisResult(analysisType, manager, secondary))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "workbook produced by analyze or the web download")
	cmd.Flags().StringVar(&format, "format", formatTable, "stdout format: table, csv or json")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
