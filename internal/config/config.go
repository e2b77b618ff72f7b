// Package config loads and validates convosearch configuration. Precedence,
// lowest to highest: hardcoded defaults, project config file
// (.convosearch.yaml), CONVOSEARCH_* environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/convosearch/convosearch/internal/errors"
)

// Config is the complete convosearch configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// ChunkingConfig tunes the dialogue chunker.
type ChunkingConfig struct {
	// TurnsPerParent is the parent window size.
	TurnsPerParent int `yaml:"turns_per_parent" json:"turns_per_parent"`

	// MinTurnsPerParent is the threshold below which a trailing group is
	// merged into the previous parent.
	MinTurnsPerParent int `yaml:"min_turns_per_parent" json:"min_turns_per_parent"`

	// MaxTurnsPerParent is the soft cap on the window size.
	MaxTurnsPerParent int `yaml:"max_turns_per_parent" json:"max_turns_per_parent"`

	// CounterpartyKeywords are speaker labels counted as the client side
	// when computing speaker balance.
	CounterpartyKeywords []string `yaml:"counterparty_keywords" json:"counterparty_keywords"`
}

// SearchConfig tunes retrieval.
type SearchConfig struct {
	// SparseWeight and DenseWeight are the default fusion weights. They
	// must sum to 1.0.
	SparseWeight float64 `yaml:"sparse_weight" json:"sparse_weight"`
	DenseWeight  float64 `yaml:"dense_weight" json:"dense_weight"`

	// RRFConstant is the fusion smoothing parameter k. Default 60, the
	// industry standard (Azure AI Search, OpenSearch).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// BM25K1 and BM25B are the Okapi BM25 parameters.
	BM25K1 float64 `yaml:"bm25_k1" json:"bm25_k1"`
	BM25B  float64 `yaml:"bm25_b" json:"bm25_b"`

	// SparseBackend selects the sparse index: "memory" or "sqlite".
	SparseBackend string `yaml:"sparse_backend" json:"sparse_backend"`

	// SparseIndexPath is the SQLite index location when the sqlite
	// backend is selected. Empty means in-memory.
	SparseIndexPath string `yaml:"sparse_index_path" json:"sparse_index_path"`

	// IndexCacheSize bounds the per-corpus sparse index cache.
	IndexCacheSize int `yaml:"index_cache_size" json:"index_cache_size"`

	// MaxResults caps top_k for any plan.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// UpstreamTimeout caps each embedding/vector-store call.
	UpstreamTimeout Duration `yaml:"upstream_timeout" json:"upstream_timeout"`
}

// Duration wraps time.Duration so YAML values like "5s" parse, alongside
// plain nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("invalid duration value")
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "static", "ollama", or "openai". Empty means static.
	Provider string `yaml:"provider" json:"provider"`

	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`

	// OllamaHost is the Ollama endpoint. Empty uses the default.
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// OpenAIBaseURL points the OpenAI provider at a compatible endpoint.
	// The API key is env-only (CONVOSEARCH_OPENAI_API_KEY or
	// OPENAI_API_KEY), never a config file value.
	OpenAIBaseURL string `yaml:"openai_base_url" json:"openai_base_url"`

	// CacheSize bounds the query embedding cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// FilePath is the log file location. Empty logs to stderr only.
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Known option values.
var (
	validBackends  = []string{"memory", "sqlite"}
	validProviders = []string{"", "static", "ollama", "openai"}
)

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Chunking: ChunkingConfig{
			TurnsPerParent:       7,
			MinTurnsPerParent:    5,
			MaxTurnsPerParent:    10,
			CounterpartyKeywords: []string{"client", "customer", "prospect", "buyer"},
		},
		Search: SearchConfig{
			SparseWeight:    0.4,
			DenseWeight:     0.6,
			RRFConstant:     60,
			BM25K1:          1.5,
			BM25B:           0.75,
			SparseBackend:   "memory",
			IndexCacheSize:  64,
			MaxResults:      50,
			UpstreamTimeout: Duration(5 * time.Second),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "", // static unless configured otherwise
			BatchSize: 32,
			CacheSize: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration rooted at dir, applying file and environment
// overrides on top of defaults, then validates the result.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads .convosearch.yaml (or .yml) if present. A missing
// config file is fine; defaults apply.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".convosearch.yaml", ".convosearch.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c. Zero values in a
// config file mean "keep the default"; explicit zeroes go through env vars.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Chunking.TurnsPerParent != 0 {
		c.Chunking.TurnsPerParent = other.Chunking.TurnsPerParent
	}
	if other.Chunking.MinTurnsPerParent != 0 {
		c.Chunking.MinTurnsPerParent = other.Chunking.MinTurnsPerParent
	}
	if other.Chunking.MaxTurnsPerParent != 0 {
		c.Chunking.MaxTurnsPerParent = other.Chunking.MaxTurnsPerParent
	}
	if len(other.Chunking.CounterpartyKeywords) > 0 {
		c.Chunking.CounterpartyKeywords = other.Chunking.CounterpartyKeywords
	}

	if other.Search.SparseWeight != 0 {
		c.Search.SparseWeight = other.Search.SparseWeight
	}
	if other.Search.DenseWeight != 0 {
		c.Search.DenseWeight = other.Search.DenseWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.BM25K1 != 0 {
		c.Search.BM25K1 = other.Search.BM25K1
	}
	if other.Search.BM25B != 0 {
		c.Search.BM25B = other.Search.BM25B
	}
	if other.Search.SparseBackend != "" {
		c.Search.SparseBackend = other.Search.SparseBackend
	}
	if other.Search.SparseIndexPath != "" {
		c.Search.SparseIndexPath = other.Search.SparseIndexPath
	}
	if other.Search.IndexCacheSize != 0 {
		c.Search.IndexCacheSize = other.Search.IndexCacheSize
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.UpstreamTimeout != 0 {
		c.Search.UpstreamTimeout = other.Search.UpstreamTimeout
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.OpenAIBaseURL != "" {
		c.Embeddings.OpenAIBaseURL = other.Embeddings.OpenAIBaseURL
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
}

// applyEnvOverrides applies CONVOSEARCH_* environment variable overrides.
// Env vars have the highest precedence and support explicit zero values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CONVOSEARCH_SPARSE_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.SparseWeight = w
		}
	}
	if v := os.Getenv("CONVOSEARCH_DENSE_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.DenseWeight = w
		}
	}
	if v := os.Getenv("CONVOSEARCH_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("CONVOSEARCH_SPARSE_BACKEND"); v != "" {
		c.Search.SparseBackend = v
	}
	if v := os.Getenv("CONVOSEARCH_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CONVOSEARCH_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("CONVOSEARCH_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("CONVOSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// OpenAIAPIKey resolves the OpenAI key from the environment.
func OpenAIAPIKey() string {
	if v := os.Getenv("CONVOSEARCH_OPENAI_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Validate checks the final configuration for contradictions.
func (c *Config) Validate() error {
	var problems []string

	if sum := c.Search.SparseWeight + c.Search.DenseWeight; math.Abs(sum-1.0) > 0.001 {
		problems = append(problems, fmt.Sprintf("sparse_weight + dense_weight must sum to 1.0, got %.3f", sum))
	}
	if c.Search.RRFConstant <= 0 {
		problems = append(problems, "rrf_constant must be positive")
	}
	if c.Search.BM25K1 < 0 {
		problems = append(problems, "bm25_k1 must be non-negative")
	}
	if c.Search.BM25B < 0 || c.Search.BM25B > 1 {
		problems = append(problems, "bm25_b must be within [0, 1]")
	}
	if !contains(validBackends, c.Search.SparseBackend) {
		problems = append(problems, fmt.Sprintf("unknown sparse_backend %q (want one of %v)", c.Search.SparseBackend, validBackends))
	}
	if !contains(validProviders, c.Embeddings.Provider) {
		problems = append(problems, fmt.Sprintf("unknown embeddings provider %q", c.Embeddings.Provider))
	}
	if c.Chunking.MinTurnsPerParent > c.Chunking.TurnsPerParent {
		problems = append(problems, "min_turns_per_parent cannot exceed turns_per_parent")
	}
	if c.Chunking.TurnsPerParent > c.Chunking.MaxTurnsPerParent {
		problems = append(problems, "turns_per_parent cannot exceed max_turns_per_parent")
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeConfigInvalid, strings.Join(problems, "; "), nil)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
