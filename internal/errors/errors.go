package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeUnsupportedFile  = "UNSUPPORTED_FILE"
	CodeDecodeFailed     = "DECODE_FAILED"
	CodeNoNumericColumns = "NO_NUMERIC_COLUMNS"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeFormulaParse     = "FORMULA_PARSE"
	CodeUnknownColumn    = "UNKNOWN_COLUMN"
	CodeAllMissing       = "ALL_MISSING"
	CodeFitFailed        = "FIT_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
)

// IsTerminal reports whether an error halts the session's data flow.
// Ingestion failures are terminal; analysis failures leave the loaded
// dataset usable.
func IsTerminal(err error) bool {
	switch GetCode(err) {
	case CodeUnsupportedFile, CodeDecodeFailed, CodeNoNumericColumns:
		return true
	}
	return false
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func UnsupportedFile(ext string) *AppError {
	return New(CodeUnsupportedFile, fmt.Sprintf("unsupported file type %q: upload a .csv, .xlsx, or .xls file", ext))
}

func DecodeFailed(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeDecodeFailed,
		Message: message,
		Cause:   cause,
	}
}

func NoNumericColumns() *AppError {
	return New(CodeNoNumericColumns, "dataset needs at least one numeric column")
}

func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}

func FormulaParse(message string) *AppError {
	return New(CodeFormulaParse, message)
}

func UnknownColumn(name string) *AppError {
	return New(CodeUnknownColumn, fmt.Sprintf("unknown column %q: check for a typo, or quote names with spaces as Q('%s')", name, name))
}

func AllMissing(name string) *AppError {
	return New(CodeAllMissing, fmt.Sprintf("column %q has no usable values: every row is missing", name))
}

func FitFailed(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeFitFailed,
		Message: message,
		Cause:   cause,
	}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
