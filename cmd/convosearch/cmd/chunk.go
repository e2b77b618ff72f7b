package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convosearch/convosearch/internal/chunk"
	"github.com/convosearch/convosearch/internal/config"
)

// chunkOptions holds CLI flags for chunk.
type chunkOptions struct {
	turnsPerParent int
	kind           string // "all", "children", "parents"
}

func newChunkCmd() *cobra.Command {
	var opts chunkOptions

	cmd := &cobra.Command{
		Use:   "chunk <transcript.json>",
		Short: "Chunk a transcript into child and parent chunks",
		Long: `Chunk a dialogue transcript into the two-level retrieval hierarchy.

Each turn becomes a child chunk carrying speaker, timing, sales stage,
and topic metadata. Turns from the same conversation phase are grouped
into parent chunk windows.

Examples:
  convosearch chunk call.json
  convosearch chunk call.json --kind parents
  convosearch chunk call.json --turns-per-parent 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunk(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.turnsPerParent, "turns-per-parent", 0, "Target turns per parent window (default from config)")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "all", "Which chunks to emit: all, children, parents")

	return cmd
}

func runChunk(cmd *cobra.Command, path string, opts chunkOptions) error {
	tf, err := loadTranscript(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if opts.turnsPerParent > 0 {
		cfg.Chunking.TurnsPerParent = opts.turnsPerParent
	}

	chunker := chunk.New(chunk.Options{
		TurnsPerParent:       cfg.Chunking.TurnsPerParent,
		MinTurnsPerParent:    cfg.Chunking.MinTurnsPerParent,
		MaxTurnsPerParent:    cfg.Chunking.MaxTurnsPerParent,
		CounterpartyKeywords: cfg.Chunking.CounterpartyKeywords,
	})
	children, parents := chunker.Chunk(tf.Turns, tf.Phases)

	out := struct {
		TranscriptID string         `json:"transcript_id"`
		Children     []*chunk.Chunk `json:"children,omitempty"`
		Parents      []*chunk.Chunk `json:"parents,omitempty"`
	}{TranscriptID: tf.TranscriptID}

	switch opts.kind {
	case "all":
		out.Children, out.Parents = children, parents
	case "children":
		out.Children = children
	case "parents":
		out.Parents = parents
	default:
		return fmt.Errorf("unknown --kind %q (valid: all, children, parents)", opts.kind)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
