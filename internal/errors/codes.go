// Package errors provides structured error handling for palicanon.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Local data errors (corpus, index, legacy map)
//   - 3XX: Upstream errors (remote services, corpus sync)
//   - 4XX: Request and concurrency errors
//   - 5XX: Pipeline and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryData indicates missing or unreadable local data.
	CategoryData Category = "DATA"
	// CategoryUpstream indicates remote service or sync failures.
	CategoryUpstream Category = "UPSTREAM"
	// CategoryRequest indicates invalid or rejected requests.
	CategoryRequest Category = "REQUEST"
	// CategoryInternal indicates pipeline and unexpected internal errors.
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

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Local data errors (200-299)
	ErrCodeNotFound           = "ERR_201_NOT_FOUND"
	ErrCodeFilePermission     = "ERR_202_FILE_PERMISSION"
	ErrCodeCorruptIndex       = "ERR_205_CORRUPT_INDEX"
	ErrCodeMalformedLocalData = "ERR_206_MALFORMED_LOCAL_DATA"

	// Upstream errors (300-399)
	ErrCodeUpstreamTimeout     = "ERR_301_UPSTREAM_TIMEOUT"
	ErrCodeUpstreamUnavailable = "ERR_302_UPSTREAM_UNAVAILABLE"
	ErrCodeSyncFailed          = "ERR_303_SYNC_FAILED"

	// Request errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPath   = "ERR_406_INVALID_PATH"
	ErrCodeConcurrentRun = "ERR_409_CONCURRENT_RUN"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeStartFailed   = "ERR_502_START_FAILED"
	ErrCodeBundleFailed  = "ERR_504_BUNDLE_FAILED"
	ErrCodePipelineStage = "ERR_505_PIPELINE_STAGE"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryData
	case '3':
		return CategoryUpstream
	case '4':
		return CategoryRequest
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodePipelineStage, ErrCodeBundleFailed:
		return SeverityFatal
	case ErrCodeMalformedLocalData:
		return SeverityWarning
	}

	// Upstream failures degrade to stale data
	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeUpstreamTimeout, ErrCodeUpstreamUnavailable, ErrCodeSyncFailed:
		return true
	default:
		return false
	}
}
