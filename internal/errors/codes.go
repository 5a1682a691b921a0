// Package errors provides structured error handling for blogsearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (missing or corrupt index, bad config)
//   - 2XX: IO errors (articles, stopwords, index files, locks)
//   - 3XX: Search errors (analysis, index scan)
//   - 4XX: Validation errors
//   - 5XX: Schema errors
//   - 6XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategorySearch indicates a failed query stage.
	CategorySearch Category = "SEARCH"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategorySchema indicates the index does not carry the expected fields.
	CategorySchema Category = "SCHEMA"
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

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeIndexNotFound  = "ERR_104_INDEX_NOT_FOUND"
	ErrCodeCorruptIndex   = "ERR_105_CORRUPT_INDEX"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileRead     = "ERR_203_FILE_READ"
	ErrCodeFileWrite    = "ERR_204_FILE_WRITE"
	ErrCodeLockHeld     = "ERR_205_LOCK_HELD"

	// Search errors (300-399)
	ErrCodeAnalysisFailed = "ERR_301_ANALYSIS_FAILED"
	ErrCodeSearchFailed   = "ERR_305_SEARCH_FAILED"
	ErrCodeNoResults      = "ERR_306_NO_RESULTS"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"

	// Schema errors (500-599)
	ErrCodeSchemaMismatch = "ERR_501_SCHEMA_MISMATCH"

	// Internal errors (600-699)
	ErrCodeInternal         = "ERR_601_INTERNAL"
	ErrCodeIndexFailed      = "ERR_602_INDEX_FAILED"
	ErrCodeMetadataNotFound = "ERR_604_METADATA_NOT_FOUND"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategorySearch
	case '4':
		return CategoryValidation
	case '5':
		return CategorySchema
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexNotFound, ErrCodeCorruptIndex, ErrCodeConfigInvalid:
		return SeverityFatal
	case ErrCodeNoResults:
		return SeverityWarning
	}
	return SeverityError
}
