// Package errors provides structured error handling for textreader
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeSource represents open, read and decode failures of a line source
	ErrorTypeSource ErrorType = "source"
	// ErrorTypeStructure represents malformed row structure (column count, quoting)
	ErrorTypeStructure ErrorType = "structure"
	// ErrorTypeConversion represents a token that does not match its target type
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeConfiguration represents invalid option combinations
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// Sentinel causes. Wrap them with a category so callers can use errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrDecode            = errors.New("invalid bytes for encoding")
	ErrRead              = errors.New("read failed")
	ErrFieldCount        = errors.New("changed number of fields")
	ErrUnterminatedQuote = errors.New("unterminated quoted field")
	ErrTooManyFields     = errors.New("too many fields")
	ErrTooManyChars      = errors.New("field too long")
	ErrNoData            = errors.New("no data")
	ErrBadField          = errors.New("bad field")
	ErrConverterFailed   = errors.New("converter failed")
	ErrColumnIndex       = errors.New("invalid column index")
	ErrUnsupportedType   = errors.New("unsupported type")
	ErrInvalidOption     = errors.New("invalid option")
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value and whether it was set
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the category of err, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

// Is is errors.Is re-exported so callers do not need both packages
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As re-exported so callers do not need both packages
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
