// Package errors provides custom error types for the featuresync system.
// These errors enable better error handling, programmatic error checking,
// and improved debugging throughout the application.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As re-export the standard library helpers so callers need one import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the featuresync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrExecution indicates a data tool or store reported a failed execution
	ErrExecution = errors.New("execution failed")

	// ErrTransaction indicates an edit session was aborted and rolled back
	ErrTransaction = errors.New("transaction aborted")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing input files
type ParseError struct {
	Format  string // "csv", "xlsx", "yaml"
	File    string
	Line    int
	Column  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		if e.Column != "" {
			return fmt.Sprintf("parse error in %s at %s:%d (%s): %s", e.Format, e.File, e.Line, e.Column, e.Message)
		}
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// NewRowError creates a ParseError pointing at a line and column of a file
func NewRowError(format, file string, line int, column, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Line:    line,
		Column:  column,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "open", "load", "delete", "append", "stage"
	Resource  string // "layer", "workspace", "store"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Severity ranks a diagnostic message attached to an ExecuteError.
type Severity int

const (
	// SeverityInfo marks informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning marks warnings that did not stop execution.
	SeverityWarning
	// SeverityError marks the messages that caused the failure.
	SeverityError
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Message is one diagnostic line reported by a data tool.
type Message struct {
	Severity Severity
	Code     string
	Text     string
}

// String formats the message the way it is printed on the console.
func (m Message) String() string {
	if m.Code != "" {
		return fmt.Sprintf("%s %s: %s", strings.ToUpper(m.Severity.String()), m.Code, m.Text)
	}
	return fmt.Sprintf("%s: %s", strings.ToUpper(m.Severity.String()), m.Text)
}

// ExecuteError is returned when a data tool (table conversion, point
// construction, a store statement) fails. It carries the tool's diagnostic
// messages so the caller can print them separately from the error text.
type ExecuteError struct {
	Tool        string
	Diagnostics []Message
	Err         error
}

// Error implements the error interface
func (e *ExecuteError) Error() string {
	for _, m := range e.Diagnostics {
		if m.Severity == SeverityError {
			return fmt.Sprintf("failed to execute %s: %s", e.Tool, m.Text)
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to execute %s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("failed to execute %s", e.Tool)
}

// Unwrap implements errors.Unwrap
func (e *ExecuteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ExecuteError) Is(target error) bool {
	return target == ErrExecution
}

// Messages returns the diagnostics at or above the given severity, one per line.
func (e *ExecuteError) Messages(min Severity) string {
	var lines []string
	for _, m := range e.Diagnostics {
		if m.Severity >= min {
			lines = append(lines, m.String())
		}
	}
	return strings.Join(lines, "\n")
}

// NewExecuteError creates an ExecuteError with a single error-severity diagnostic
// derived from err, followed by any extra messages.
func NewExecuteError(tool string, err error, extra ...Message) *ExecuteError {
	e := &ExecuteError{Tool: tool, Err: err}
	if err != nil {
		e.Diagnostics = append(e.Diagnostics, Message{Severity: SeverityError, Text: err.Error()})
	}
	e.Diagnostics = append(e.Diagnostics, extra...)
	return e
}

// TransactionError reports a failure inside an edit session. The session
// has already been rolled back when this error is returned.
type TransactionError struct {
	Operation string // "begin", "delete", "append", "commit"
	Layer     string
	Err       error
}

// Error implements the error interface
func (e *TransactionError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("edit session on %s aborted during %s: %v", e.Layer, e.Operation, e.Err)
	}
	return fmt.Sprintf("edit session aborted during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransactionError) Is(target error) bool {
	return target == ErrTransaction
}

// NewTransactionError creates a new TransactionError
func NewTransactionError(operation, layer string, err error) *TransactionError {
	return &TransactionError{Operation: operation, Layer: layer, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsExecution checks if an error came from a failed tool execution
func IsExecution(err error) bool {
	return errors.Is(err, ErrExecution)
}

// IsTransaction checks if an error aborted an edit session
func IsTransaction(err error) bool {
	return errors.Is(err, ErrTransaction)
}

// AsExecuteError extracts an ExecuteError from the chain, if any
func AsExecuteError(err error) (*ExecuteError, bool) {
	var execErr *ExecuteError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapExecute wraps an error as an ExecuteError
func WrapExecute(tool string, err error) error {
	if err == nil {
		return nil
	}
	var execErr *ExecuteError
	if errors.As(err, &execErr) {
		return err
	}
	return NewExecuteError(tool, err)
}
