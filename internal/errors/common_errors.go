package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMissingInput ErrorType = "MISSING_INPUT"
	ErrTypeParsing      ErrorType = "PARSING"
	ErrTypeSchema       ErrorType = "SCHEMA"
	ErrTypeExport       ErrorType = "EXPORT"
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeConfig       ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewMissingInputError reports that no file (or payload) was supplied.
func NewMissingInputError(message string) *AppError {
	return NewAppError(ErrTypeMissingInput, message, nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewSchemaError reports required columns absent from the header row.
func NewSchemaError(missing []string) *AppError {
	msg := fmt.Sprintf("missing required column %q", missing[0])
	if len(missing) > 1 {
		quoted := make([]string, len(missing))
		for i, c := range missing {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		msg = "missing required columns " + strings.Join(quoted, ", ")
	}
	return NewAppError(ErrTypeSchema, msg, nil).WithContext("missing_columns", missing)
}

// NewExportError creates an error raised while building or decoding an export.
func NewExportError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExport, message, cause)
}

// NewInternalExportError marks an export failure that was not caused by the
// caller's input, such as the workbook writer failing.
func NewInternalExportError(message string, cause error) *AppError {
	return NewExportError(message, cause).WithContext("internal", true)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// TypeOf returns the ErrorType of the first AppError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}
