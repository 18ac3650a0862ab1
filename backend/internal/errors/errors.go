// Package errors provides the error types shared by the usage-widen packages.
// Callers check them with errors.Is / errors.As rather than string matching.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow indicates a data row with too few fields for the columns read from it.
	ErrMalformedRow = errors.New("malformed row")

	// ErrInvalidInput indicates invalid configuration or arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that a named source or column does not exist.
	ErrNotFound = errors.New("not found")
)

// MalformedRowError describes a row that is shorter than the highest field index read from it.
type MalformedRowError struct {
	Source   string
	Line     int
	Fields   int
	Required int
}

// Error implements the error interface
func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%s:%d: row has %d fields, need at least %d", e.Source, e.Line, e.Fields, e.Required)
}

// Is implements errors.Is support
func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRow
}

// NewMalformedRowError creates a new MalformedRowError
func NewMalformedRowError(source string, line, fields, required int) *MalformedRowError {
	return &MalformedRowError{Source: source, Line: line, Fields: fields, Required: required}
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Key     string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("config %s=%v: %s", e.Key, e.Value, e.Message)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewConfigError creates a new ConfigError
func NewConfigError(key string, value any, message string) *ConfigError {
	return &ConfigError{Key: key, Value: value, Message: message}
}

// NotFoundError represents a missing source file or column
type NotFoundError struct {
	Resource string
	Name     string
	Err      error
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q not found: %v", e.Resource, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// Unwrap implements errors.Unwrap
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, name string, err error) *NotFoundError {
	return &NotFoundError{Resource: resource, Name: name, Err: err}
}

// IsMalformedRow reports whether err is or wraps a MalformedRowError.
func IsMalformedRow(err error) bool {
	return errors.Is(err, ErrMalformedRow)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
