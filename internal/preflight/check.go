// Package preflight validates the environment before indexing or serving
// queries: configuration sanity, index storage, and embedding provider
// reachability.
package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/convosearch/convosearch/internal/config"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every preflight check against the given configuration.
func (c *Checker) RunAll(ctx context.Context, cfg *config.Config) []CheckResult {
	var results []CheckResult

	results = append(results, c.CheckConfig(cfg))
	results = append(results, c.CheckIndexStorage(cfg))
	results = append(results, c.CheckEmbeddingProvider(ctx, cfg))

	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "Convosearch System Check")
	_, _ = fmt.Fprintln(c.output, "========================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", c.SummaryStatus(results))
}

// CheckConfig validates the loaded configuration.
func (c *Checker) CheckConfig(cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "config",
		Required: true,
	}

	if cfg == nil {
		result.Status = StatusFail
		result.Message = "no configuration loaded"
		return result
	}
	if err := cfg.Validate(); err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = "OK"
	result.Details = fmt.Sprintf("sparse backend: %s, embeddings: %s",
		cfg.Search.SparseBackend, providerName(cfg))
	return result
}

// CheckIndexStorage verifies the sparse index location is usable. The
// in-memory backend needs nothing; the sqlite backend needs a writable
// directory with free space.
func (c *Checker) CheckIndexStorage(cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "index_storage",
		Required: true,
	}

	if cfg == nil || cfg.Search.SparseBackend != "sqlite" {
		result.Status = StatusPass
		result.Message = "in-memory index, no storage needed"
		return result
	}

	dir := filepath.Dir(cfg.Search.SparseIndexPath)
	if dir == "" || dir == "." {
		dir, _ = os.Getwd()
	}

	testFile := filepath.Join(dir, ".convosearch-preflight-test")
	f, err := os.Create(testFile)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("index directory not writable: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	return c.checkDiskSpace(dir, result)
}
