package graphdb

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Every typed error below matches exactly one of them through
// errors.Is, so callers can branch on the kind without a type assertion.
var (
	ErrConnection = errors.New("graphdb: connection error")
	ErrSession    = errors.New("graphdb: session error")
	ErrQuery      = errors.New("graphdb: query error")
)

// State errors returned when the session manager is used out of order.
var (
	ErrTxNotActive      = errors.New("transaction is not active")
	ErrTxAlreadyStarted = errors.New("transaction already started")
	ErrNoSession        = errors.New("no session has been created")
	ErrClosed           = errors.New("session manager is closed")
)

// ErrUnreachable is wrapped by an Engine into failures that mean the engine could
// not be reached at all, as opposed to the engine answering with a refusal.
var ErrUnreachable = errors.New("graphdb: engine unreachable")

// ErrColumnMismatch is returned by the mapper when a row does not have one column
// per schema field.
var ErrColumnMismatch = errors.New("column count does not match schema")

// ConnectionError is raised when the channel cannot be opened or when a begin or
// commit call fails at the transport level.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("graphdb: %s: connection error: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports ErrConnection as a match.
func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// SessionError is raised when the engine rejects session creation.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("graphdb: %s: session error: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// Is reports ErrSession as a match.
func (e *SessionError) Is(target error) bool { return target == ErrSession }

// QueryError wraps any failure while running a statement or fetching its rows.
type QueryError struct {
	Op      string
	Dialect Dialect
	Err     error
}

func (e *QueryError) Error() string {
	if e.Dialect != "" {
		return fmt.Sprintf("graphdb: %s (%s): query error: %v", e.Op, e.Dialect, e.Err)
	}
	return fmt.Sprintf("graphdb: %s: query error: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is reports ErrQuery as a match.
func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// IsConnectionError checks if err is, or wraps, a ConnectionError.
func IsConnectionError(err error) bool { return errors.Is(err, ErrConnection) }

// IsSessionError checks if err is, or wraps, a SessionError.
func IsSessionError(err error) bool { return errors.Is(err, ErrSession) }

// IsQueryError checks if err is, or wraps, a QueryError.
func IsQueryError(err error) bool { return errors.Is(err, ErrQuery) }
