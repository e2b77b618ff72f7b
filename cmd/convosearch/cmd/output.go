package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/convosearch/convosearch/internal/chunk"
	"github.com/convosearch/convosearch/internal/router"
	"github.com/convosearch/convosearch/internal/search"
)

// resultView is the JSON output shape for one hit.
type resultView struct {
	ChunkID    string  `json:"chunk_id"`
	Score      float64 `json:"score"`
	Kind       string  `json:"kind,omitempty"`
	Speaker    string  `json:"speaker,omitempty"`
	SalesStage string  `json:"sales_stage,omitempty"`
	Phase      string  `json:"phase,omitempty"`
	Text       string  `json:"text,omitempty"`
}

// searchView is the JSON output shape for a whole search.
type searchView struct {
	Query    string            `json:"query"`
	Intent   string            `json:"intent"`
	Strategy string            `json:"strategy"`
	Degraded bool              `json:"degraded,omitempty"`
	Plan     *router.QueryPlan `json:"plan,omitempty"`

	Results   []resultView `json:"results,omitempty"`
	Summaries []resultView `json:"summaries,omitempty"`
	Details   []resultView `json:"details,omitempty"`
}

func toViews(scored []*search.ScoredChunk, byID map[string]*chunk.Chunk) []resultView {
	views := make([]resultView, 0, len(scored))
	for _, sc := range scored {
		v := resultView{ChunkID: sc.ChunkID, Score: sc.Score}
		if ch, ok := byID[sc.ChunkID]; ok {
			v.Kind = string(ch.Kind)
			v.Speaker = ch.Speaker
			v.SalesStage = string(ch.SalesStage)
			v.Phase = ch.ConversationPhase
			v.Text = ch.Text
		}
		views = append(views, v)
	}
	return views
}

func writeJSONResults(
	cmd *cobra.Command,
	query string,
	plan *router.QueryPlan,
	result *search.RetrievalResult,
	byID map[string]*chunk.Chunk,
	explain bool,
) error {
	view := searchView{
		Query:    query,
		Intent:   string(plan.Intent),
		Strategy: result.Strategy,
		Degraded: result.Degraded,
		Results:  toViews(result.Results, byID),
	}
	if explain {
		view.Plan = plan
	}
	if result.Hierarchical != nil {
		view.Summaries = toViews(result.Hierarchical.Summaries, byID)
		view.Details = toViews(result.Hierarchical.Details, byID)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func writeTextResults(
	cmd *cobra.Command,
	query string,
	plan *router.QueryPlan,
	result *search.RetrievalResult,
	byID map[string]*chunk.Chunk,
	explain bool,
) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Query: %s\n", query)
	fmt.Fprintf(out, "Intent: %s  Strategy: %s\n", plan.Intent, result.Strategy)
	if result.Degraded {
		fmt.Fprintln(out, "Note: results are degraded (an upstream backend was unavailable)")
	}
	if explain {
		fmt.Fprintf(out, "Plan: sources=%v topK=%d sparse=%.2f dense=%.2f rerank=%v cacheable=%v\n",
			plan.Sources, plan.TopK, plan.SparseWeight, plan.DenseWeight, plan.Rerank, plan.Cacheable)
		for field, value := range plan.Filters {
			fmt.Fprintf(out, "Filter: %s = %s\n", field, value)
		}
	}
	fmt.Fprintln(out)

	if result.Hierarchical != nil {
		fmt.Fprintf(out, "Summaries (%d):\n", len(result.Hierarchical.Summaries))
		printChunks(out, result.Hierarchical.Summaries, byID)
		fmt.Fprintf(out, "\nSupporting turns (%d):\n", len(result.Hierarchical.Details))
		printChunks(out, result.Hierarchical.Details, byID)
		return nil
	}

	if len(result.Results) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}
	printChunks(out, result.Results, byID)
	return nil
}

func printChunks(out io.Writer, scored []*search.ScoredChunk, byID map[string]*chunk.Chunk) {
	for i, sc := range scored {
		ch, ok := byID[sc.ChunkID]
		if !ok {
			fmt.Fprintf(out, "%2d. [%.4f] %s\n", i+1, sc.Score, sc.ChunkID)
			continue
		}

		label := string(ch.Kind)
		if ch.Speaker != "" {
			label = ch.Speaker
		}
		fmt.Fprintf(out, "%2d. [%.4f] %s (%s)\n", i+1, sc.Score, label, ch.SalesStage)
		fmt.Fprintf(out, "    %s\n", truncate(ch.Text, 160))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
