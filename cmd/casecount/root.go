package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"casecount/internal/config"
	"casecount/internal/infrastructure"
	"casecount/internal/services"
	"casecount/pkg/contracts"
)

var (
	logLevel string
	logger   *slog.Logger
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "casecount",
		Short: "Count cases per manager from an Excel export",
		Long: `casecount reads a case export (.xlsx, header on row 2), fills missing
secondary managers from the Manager column and prints the case counts per
Manager and per the chosen secondary column.`,
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := infrastructure.NewLogger(config.LoggingConfig{
				Level:  logLevel,
				Output: "console",
			}, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			logger = l
			cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.AddCommand(newAnalyzeCmd(), newVerifyCmd())
	return cmd
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newService builds a store-less analysis service; a CLI run never
// needs to fetch a result back by token.
func newService() *services.AnalysisService {
	return services.NewAnalysisService(nil, nil, nil, logger)
}
