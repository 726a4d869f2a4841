// Package errors provides structured error types for reana.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the analysis engine and the CLI
//   - Machine-readable error codes for programmatic handling
//   - A clear split between fatal graph errors and per-configuration errors
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (graphs, models, expressions)
//   - CYCLIC_DEPENDENCY: the dependency graph is not acyclic (fatal for a run)
//   - UNKNOWN_FEATURE: a configuration or expression names a feature outside the
//     feature model (scoped to one configuration)
//   - *_FAILED: failures reported by the model checker or the expression solver
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGraph, "unknown dependency %q", id)
//	if errors.Is(err, errors.ErrCodeInvalidGraph) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeModelChecker, origErr, "checking %s", nodeID)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidExpression Code = "INVALID_EXPRESSION"
	ErrCodeInvalidModel      Code = "INVALID_MODEL"
	ErrCodeInvalidGraph      Code = "INVALID_GRAPH"
	ErrCodeInvalidStrategy   Code = "INVALID_STRATEGY"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// ErrCodeInvalidConfiguration marks a configuration that violates the
	// feature model. It is scoped to that configuration.
	ErrCodeInvalidConfiguration Code = "INVALID_CONFIGURATION"

	// Analysis errors
	ErrCodeCyclicDependency Code = "CYCLIC_DEPENDENCY"
	ErrCodeUnknownFeature   Code = "UNKNOWN_FEATURE"
	ErrCodeModelChecker     Code = "MODEL_CHECKER_FAILED"
	ErrCodeSolver           Code = "SOLVER_FAILED"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// coder is implemented by every error type of this package.
type coder interface {
	error
	Code() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Kind    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Code returns the machine-readable error code.
func (e *Error) Code() Code { return e.Kind }

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Kind:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err carries the given error code.
// It unwraps the error chain and matches the outermost coded error first,
// then keeps looking further down the chain.
func Is(err error, code Code) bool {
	for err != nil {
		var c coder
		if !errors.As(err, &c) {
			return false
		}
		if c.Code() == code {
			return true
		}
		err = errors.Unwrap(c)
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For coded errors, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var uf *UnknownFeatureError
	if errors.As(err, &uf) {
		return "unrecognized feature: " + uf.Feature
	}
	var cd *CyclicDependencyError
	if errors.As(err, &cd) {
		return cd.message()
	}
	return err.Error()
}

// UnknownFeatureError reports a feature name outside the feature model universe.
// It is scoped to the configuration or expression being evaluated.
type UnknownFeatureError struct {
	Feature string
}

// Error implements the error interface.
func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("%s: unrecognized feature %q", ErrCodeUnknownFeature, e.Feature)
}

// Code returns the error code for this error type.
func (e *UnknownFeatureError) Code() Code {
	return ErrCodeUnknownFeature
}

// CyclicDependencyError reports a cycle in the dependency graph.
// Path lists the node IDs of the cycle, starting and ending at the same node.
type CyclicDependencyError struct {
	Path []string
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeCyclicDependency, e.message())
}

func (e *CyclicDependencyError) message() string {
	if len(e.Path) == 0 {
		return "cyclic dependency detected"
	}
	return "cyclic dependency detected: " + strings.Join(e.Path, " -> ")
}

// Code returns the error code for this error type.
func (e *CyclicDependencyError) Code() Code {
	return ErrCodeCyclicDependency
}
