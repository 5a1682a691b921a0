package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// Error is the structured error type for blogsearch.
// It carries enough context to log a failure and present it to a user.
type Error struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is derived from the code.
	Category Category

	// Severity is derived from the code.
	Severity Severity

	// Details contains additional context as key-value pairs,
	// e.g. the query text and the failing stage.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code, so errors.Is(err, ErrMetadataNotFound) works for
// any error carrying that code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is checks. Matching is by code only.
var (
	ErrIndexNotFound    = New(ErrCodeIndexNotFound, "index not found", nil)
	ErrCorruptIndex     = New(ErrCodeCorruptIndex, "index corrupt", nil)
	ErrSchemaMismatch   = New(ErrCodeSchemaMismatch, "schema mismatch", nil)
	ErrMetadataNotFound = New(ErrCodeMetadataNotFound, "metadata not found", nil)
	ErrNoResults        = New(ErrCodeNoResults, "no results", nil)
	ErrLockHeld         = New(ErrCodeLockHeld, "lock held", nil)
)

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O error. Missing files get ERR_201, everything
// else ERR_203.
func IOError(message string, cause error) *Error {
	code := ErrCodeFileRead
	if isNotExist(cause) {
		code = ErrCodeFileNotFound
	}
	return New(code, message, cause)
}

// WriteError creates an I/O error for a failed write.
func WriteError(message string, cause error) *Error {
	return New(ErrCodeFileWrite, message, cause)
}

// SchemaError creates an error for an index that lacks an expected field.
func SchemaError(message string, cause error) *Error {
	return New(ErrCodeSchemaMismatch, message, cause)
}

// SearchError creates an error for a failed query stage.
func SearchError(stage, query string, cause error) *Error {
	return New(ErrCodeSearchFailed, fmt.Sprintf("search failed during %s", stage), cause).
		WithDetail("stage", stage).
		WithDetail("query", query)
}

// MetadataNotFound creates an error for an index hit whose path the
// front-matter registry does not know.
func MetadataNotFound(path string) *Error {
	return New(ErrCodeMetadataNotFound, fmt.Sprintf("no front matter for %q", path), nil).
		WithDetail("path", path)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *Error {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first Error in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from the first Error in the chain.
func GetCategory(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return ""
}

// As finds the first Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

func isNotExist(err error) bool {
	return err != nil && stderrors.Is(err, fs.ErrNotExist)
}
