package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convosearch/convosearch/internal/config"
	"github.com/convosearch/convosearch/internal/preflight"
)

// newDoctorCmd creates the doctor command.
func newDoctorCmd() *cobra.Command {
	var jsonOutput bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and embedding service health",
		Long: `Run preflight checks: configuration validity, index storage, and
embedding provider reachability.

Exits non-zero when a required check fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				// A broken config is itself a finding; check it anyway.
				cfg = nil
			}

			checker := preflight.New(
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose),
			)
			results := checker.RunAll(cmd.Context(), cfg)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return fmt.Errorf("system check failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details")

	return cmd
}
