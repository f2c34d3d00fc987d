// Package duckdb provides a CGO-free Go binding and SQL driver for the DuckDB C API.
package duckdb

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of DuckDB errors.
type ErrorType int

const (
	// ErrGeneric is a generic error.
	ErrGeneric ErrorType = iota
	// ErrInit is a library loading or symbol binding error.
	ErrInit
	// ErrOpen is a database open error.
	ErrOpen
	// ErrConnection is a connection error.
	ErrConnection
	// ErrQuery is a query error carrying the engine's message.
	ErrQuery
	// ErrClosed reports use of a released handle.
	ErrClosed
	// ErrType is a type mismatch or conversion error.
	ErrType
	// ErrBounds reports a column or row index outside the result.
	ErrBounds
	// ErrBusy reports a close refused while dependent handles are live.
	ErrBusy
	// ErrPrepare is a statement preparation error.
	ErrPrepare
	// ErrTransaction is a transaction error.
	ErrTransaction
)

// Error is a DuckDB-specific error type. Code carries the raw engine
// status for operations that return one.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("duckdb: %s", e.Message)
}

// NewError creates a new Error.
func NewError(typ ErrorType, message string) *Error {
	return &Error{
		Type:    typ,
		Message: message,
	}
}

// IsError checks if an error is of a specific type, unwrapping as needed.
func IsError(err error, typ ErrorType) bool {
	var duckErr *Error
	if !errors.As(err, &duckErr) {
		return false
	}
	return duckErr.Type == typ
}
