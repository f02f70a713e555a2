package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrUnterminatedBlock reports a code block that was opened but never closed.
	ErrUnterminatedBlock = errors.New("unterminated code block")

	// ErrNestedFence reports a start fence found inside an already open block.
	ErrNestedFence = errors.New("nested code fence")

	// ErrConfiguration reports an invalid run configuration.
	ErrConfiguration = errors.New("configuration error")
)

// DocTestError is the base error type with context.
type DocTestError struct {
	Phase      string // "config", "scan", "read", "parse", "sandbox", "hook"
	File       string
	LineNumber int
	Message    string
	Suggestion string
	Cause      error
}

func (e *DocTestError) Error() string {
	s := fmt.Sprintf("[%s]", e.Phase)
	if e.File != "" {
		s += fmt.Sprintf(" %s", e.File)
	}
	if e.LineNumber > 0 {
		s += fmt.Sprintf(":%d", e.LineNumber)
	}
	s += fmt.Sprintf(": %s", e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

func (e *DocTestError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DocTestError.
func NewError(phase, file string, line int, message string, cause error) *DocTestError {
	return &DocTestError{
		Phase:      phase,
		File:       file,
		LineNumber: line,
		Message:    message,
		Cause:      cause,
	}
}

// NewErrorWithSuggestion creates a DocTestError carrying a user-facing fix.
func NewErrorWithSuggestion(phase, file string, line int, message, suggestion string, cause error) *DocTestError {
	err := NewError(phase, file, line, message, cause)
	err.Suggestion = suggestion
	return err
}
