package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/convosearch/convosearch/internal/router"
)

func newRouteCmd() *cobra.Command {
	var qctxPairs []string

	cmd := &cobra.Command{
		Use:   "route <query>",
		Short: "Show the retrieval plan a query would be routed to",
		Long: `Classify a query and print the retrieval plan without executing it.

Useful for debugging why a query hits one strategy instead of another.

Examples:
  convosearch route "what price did we quote"
  convosearch route "how did the call go" --context speaker=agent`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			qctx, err := parseQueryContext(qctxPairs)
			if err != nil {
				return err
			}

			rt, err := router.NewRouter(0)
			if err != nil {
				return err
			}
			plan := rt.Route(query, qctx)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}

	cmd.Flags().StringSliceVar(&qctxPairs, "context", nil, "Metadata filter as key=value (repeatable)")
	return cmd
}
