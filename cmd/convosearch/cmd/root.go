// Package cmd provides the CLI commands for convosearch.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/convosearch/convosearch/internal/chunk"
	"github.com/convosearch/convosearch/internal/logging"
	"github.com/convosearch/convosearch/pkg/version"
)

// Debug logging flag shared by all commands.
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the convosearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convosearch",
		Short: "Hybrid retrieval over sales-call transcripts",
		Long: `Convosearch chunks dialogue transcripts into a parent/child hierarchy
and answers queries over them with hybrid search (BM25 + semantic)
fused via Reciprocal Rank Fusion.

Queries are routed by intent: fact lookups hit keyword-heavy hybrid
search over individual turns, broad questions hit semantic search over
phase windows, and aggregations resolve summaries down to their turns.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("convosearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to stderr")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRun = stopLogging

	cmd.AddCommand(newChunkCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newRouteCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg.Level = "debug"
	} else {
		cfg.Level = "warn"
	}

	_, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// transcriptFile is the on-disk input format shared by the chunk and
// search commands.
type transcriptFile struct {
	TranscriptID string                `json:"transcript_id"`
	Turns        []chunk.Turn          `json:"turns"`
	Phases       []chunk.PhaseBoundary `json:"phases,omitempty"`
}

// loadTranscript reads and validates a transcript JSON file.
func loadTranscript(path string) (*transcriptFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var tf transcriptFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse transcript %s: %w", path, err)
	}
	if len(tf.Turns) == 0 {
		return nil, fmt.Errorf("transcript %s contains no turns", path)
	}
	if tf.TranscriptID == "" {
		tf.TranscriptID = path
	}
	return &tf, nil
}
