package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	convosearch "github.com/convosearch/convosearch"
	"github.com/convosearch/convosearch/internal/chunk"
	"github.com/convosearch/convosearch/internal/config"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit   int
	format  string // "text", "json"
	qctx    []string
	offline bool
	explain bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <transcript.json> <query>",
		Short: "Search a transcript with intent-routed hybrid retrieval",
		Long: `Index a transcript and answer a query over it.

The query is classified by intent, routed to a retrieval strategy
(keyword-heavy hybrid, semantic, or hierarchical summary-first), and
the resulting rankings are fused with Reciprocal Rank Fusion.

Examples:
  convosearch search call.json "what price did we quote"
  convosearch search call.json "how did the demo go" --limit 5
  convosearch search call.json "objections about pricing" --context speaker=customer
  convosearch search call.json "renewal terms" --format json --explain`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args[1:], " ")
			return runSearch(cmd.Context(), cmd, args[0], query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from query plan)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringSliceVar(&opts.qctx, "context", nil, "Metadata filter as key=value (repeatable, e.g. --context speaker=agent)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (no embedding service needed)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Show the routed query plan alongside results")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, path, query string, opts searchOptions) error {
	tf, err := loadTranscript(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if opts.offline {
		cfg.Embeddings.Provider = "static"
	}

	client, err := convosearch.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = client.Close() }()

	children, parents, err := client.IngestTranscript(ctx, tf.TranscriptID, 1, tf.Turns, tf.Phases)
	if err != nil {
		return fmt.Errorf("failed to index transcript: %w", err)
	}

	byID := make(map[string]*chunk.Chunk, len(children)+len(parents))
	for _, ch := range children {
		byID[ch.ID] = ch
	}
	for _, ch := range parents {
		byID[ch.ID] = ch
	}

	qctx, err := parseQueryContext(opts.qctx)
	if err != nil {
		return err
	}
	qctx["transcript_id"] = tf.TranscriptID

	plan := client.Route(query, qctx)
	if opts.limit > 0 {
		plan.TopK = opts.limit
	}

	result, err := client.Retrieve(ctx, plan, query)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if opts.format == "json" {
		return writeJSONResults(cmd, query, plan, result, byID, opts.explain)
	}
	return writeTextResults(cmd, query, plan, result, byID, opts.explain)
}

// parseQueryContext converts key=value flags into the router's query
// context. Pairs become metadata filters under the "filters" key.
func parseQueryContext(pairs []string) (map[string]any, error) {
	qctx := make(map[string]any, 2)
	if len(pairs) == 0 {
		return qctx, nil
	}

	raw := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --context %q (expected key=value)", pair)
		}
		raw[key] = value
	}
	qctx["filters"] = raw
	return qctx, nil
}
