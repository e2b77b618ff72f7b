// Package errors provides structured error handling for the retrieval core.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Upstream errors (embedding service, vector store)
//   - 3XX: Retrieval errors (index, fusion, strategy dispatch)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryUpstream indicates embedding or vector-store errors.
	CategoryUpstream Category = "UPSTREAM"
	// CategoryRetrieval indicates index and strategy errors.
	CategoryRetrieval Category = "RETRIEVAL"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category. The 2XX and 3XX codes are recovered
// locally by the component that detects them; none crosses the library
// boundary as a panic.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Upstream errors (200-299)
	ErrCodeUpstreamTimeout     = "ERR_201_UPSTREAM_TIMEOUT"
	ErrCodeUpstreamUnavailable = "ERR_202_UPSTREAM_UNAVAILABLE"
	ErrCodeEmbeddingFailed     = "ERR_203_EMBEDDING_FAILED"

	// Retrieval errors (300-399)
	ErrCodeIndexBuild      = "ERR_301_INDEX_BUILD"
	ErrCodeUnknownStrategy = "ERR_302_UNKNOWN_STRATEGY"
	ErrCodeSearchFailed    = "ERR_303_SEARCH_FAILED"

	// Validation errors (400-499)
	ErrCodeMalformedFilter   = "ERR_401_MALFORMED_FILTER"
	ErrCodeInvalidQuery      = "ERR_402_INVALID_QUERY"
	ErrCodeDimensionMismatch = "ERR_403_DIMENSION_MISMATCH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryUpstream
	case '3':
		return CategoryRetrieval
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Degradation-path codes: the request proceeds with partial results.
	switch code {
	case ErrCodeUpstreamTimeout, ErrCodeUpstreamUnavailable,
		ErrCodeIndexBuild, ErrCodeUnknownStrategy, ErrCodeMalformedFilter:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeUpstreamTimeout, ErrCodeUpstreamUnavailable, ErrCodeEmbeddingFailed:
		return true
	default:
		return false
	}
}
