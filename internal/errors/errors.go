// Package errors provides structured error types for the sindex catalog.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryTarget     ErrorCategory = "TARGET"
	ErrCategoryCatalog    ErrorCategory = "CATALOG"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Target codes
	CodeColumnNotFound     = "COLUMN_NOT_FOUND"
	CodeMalformedComposite = "MALFORMED_COMPOSITE"
	CodeInvalidIndexConfig = "INVALID_INDEX_CONFIG"
	CodeInvalidTarget      = "INVALID_TARGET"

	// Catalog codes
	CodeTableNotFound = "TABLE_NOT_FOUND"
	CodeTableExists   = "TABLE_EXISTS"
	CodeIndexNotFound = "INDEX_NOT_FOUND"
	CodeIndexExists   = "INDEX_EXISTS"

	// Storage codes
	CodeUploadFailed    = "UPLOAD_FAILED"
	CodeDownloadFailed  = "DOWNLOAD_FAILED"
	CodeSnapshotCorrupt = "SNAPSHOT_CORRUPT"

	// Validation codes
	CodeInvalidSchema = "INVALID_SCHEMA"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// Sentinels for errors.Is checks against the target error kinds.
var (
	ErrColumnNotFound     = New(ErrCategoryTarget, CodeColumnNotFound, "column not found")
	ErrMalformedComposite = New(ErrCategoryTarget, CodeMalformedComposite, "malformed composite target")
	ErrConfiguration      = New(ErrCategoryTarget, CodeInvalidIndexConfig, "invalid index configuration")
)

// Error is the structured error type used throughout the system.
type Error struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new Error.
func New(category ErrorCategory, code, message string) *Error {
	return &Error{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *Error {
	return &Error{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not an *Error.
func GetCategory(err error) ErrorCategory {
	var se *Error
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetCode extracts the outermost error code from an error chain.
// Returns empty string if the error is not an *Error.
func GetCode(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

// ColumnNotFound reports a column name that the table schema cannot resolve.
func ColumnNotFound(name string) *Error {
	return New(ErrCategoryTarget, CodeColumnNotFound, fmt.Sprintf("Column %s not found", name)).
		WithDetails(map[string]interface{}{"column": name})
}

// MalformedCompositeMessage is the message for a pk or ck field that is not an array.
const MalformedCompositeMessage = "pk and ck fields of JSON definition must be arrays"

// MalformedComposite reports a JSON target with an unusable pk or ck field.
func MalformedComposite(message string) *Error {
	return New(ErrCategoryTarget, CodeMalformedComposite, message)
}

// ConfigurationError reports that the stored target of an index cannot be
// parsed. Only the cause's message survives: the result does not unwrap to
// the cause, so callers see a single error kind.
func ConfigurationError(indexName, rawTarget string, cause error) *Error {
	msg := fmt.Sprintf("Unable to parse targets for index %s (%s)", indexName, rawTarget)
	if cause != nil {
		detail := cause.Error()
		var se *Error
		if errors.As(cause, &se) {
			detail = se.Message
		}
		msg += ": " + detail
	}
	return New(ErrCategoryTarget, CodeInvalidIndexConfig, msg).
		WithDetails(map[string]interface{}{"index": indexName, "target": rawTarget})
}

func NewTargetError(code, message string) *Error {
	return New(ErrCategoryTarget, code, message)
}

func NewCatalogError(code, message string, cause error) *Error {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewStorageError(code, message string, cause error) *Error {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewValidationError(code, message string) *Error {
	return New(ErrCategoryValidation, code, message)
}

func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
