// Package errors provides the error types shared by the corpus readers.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a file, tag or level was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates malformed input or a validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutOfRange indicates an author, work or section index past the end
	ErrOutOfRange = errors.New("out of range")
	// ErrNoID indicates a citation that cannot be located in a text
	ErrNoID = errors.New("no such citation")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "corpus", "level", "file")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "seek", "open")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents malformed binary data. Offset is the byte position
// in the source where decoding failed, or -1 when unknown.
type ParseError struct {
	Format  string // Format being parsed (e.g., "citation", "IDT", "AUTHTAB")
	Path    string // File path, if applicable
	Offset  int64  // Byte offset of the failure
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	where := ""
	if e.Path != "" {
		where = " " + e.Path
	}
	if e.Offset >= 0 {
		where += fmt.Sprintf(" at offset %d", e.Offset)
	}
	return fmt.Sprintf("failed to parse %s%s: %s", e.Format, where, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Is matches ErrInvalidInput even when the error wraps a cause.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NoIDError is returned when a citation cannot be resolved to a block or line.
type NoIDError struct {
	Citation string // Rendered citation
	Reason   string
}

func (e *NoIDError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("no such citation %q: %s", e.Citation, e.Reason)
	}
	return fmt.Sprintf("no such citation %q", e.Citation)
}

func (e *NoIDError) Unwrap() error {
	return ErrNoID
}

// RangeError reports an index outside the valid range of a hierarchy level.
type RangeError struct {
	Level string // "corpus", "author", "work", "section", ...
	Index int
	Count int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.Level, e.Index, e.Count)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format string, offset int64, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Offset:  offset,
		Message: message,
	}
}

// NewNoID creates a NoIDError
func NewNoID(citation, reason string) *NoIDError {
	return &NoIDError{
		Citation: citation,
		Reason:   reason,
	}
}

// NewRange creates a RangeError
func NewRange(level string, index, count int) *RangeError {
	return &RangeError{
		Level: level,
		Index: index,
		Count: count,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// CheckIndex returns a RangeError when i is not in [0,count).
func CheckIndex(level string, i, count int) error {
	if i < 0 || i >= count {
		return NewRange(level, i, count)
	}
	return nil
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
