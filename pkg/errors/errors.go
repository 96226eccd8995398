package errors

import (
	"errors"
	"fmt"
)

// Generic error kinds shared by every layer

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrRateLimitExceeded indicates a caller exceeded its request budget
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Ingestion errors

var (
	// ErrDocumentsMissing indicates the historical or live workbook cannot be read.
	// Fatal to a whole batch.
	ErrDocumentsMissing = errors.New("excel files not found")

	// ErrBatchInProgress indicates another batch holds the run lock
	ErrBatchInProgress = errors.New("processing batch already in progress")

	// ErrInvalidUpload indicates an uploaded file was rejected
	ErrInvalidUpload = errors.New("invalid upload")

	// ErrSheetNotFound indicates a named sheet does not exist in a workbook
	ErrSheetNotFound = errors.New("sheet not found")
)

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets callers match validation failures with ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// SymbolError ties an extraction or persistence failure to one security
type SymbolError struct {
	Symbol string
	Err    error
}

// Error renders as "SYMBOL: cause", the form stored in batch error lists
func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Symbol, e.Err)
}

// Unwrap returns the wrapped error
func (e *SymbolError) Unwrap() error {
	return e.Err
}

// NewSymbolError creates a new per-symbol error
func NewSymbolError(symbol string, err error) *SymbolError {
	return &SymbolError{Symbol: symbol, Err: err}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Messages returns up to limit error strings in insertion order.
// limit <= 0 returns all of them.
func (m *MultiError) Messages(limit int) []string {
	n := len(m.Errors)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]string, 0, n)
	for _, err := range m.Errors[:n] {
		out = append(out, err.Error())
	}
	return out
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
