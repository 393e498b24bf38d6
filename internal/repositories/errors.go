package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")
	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")
	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx, so repository methods run
// inside or outside a transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// PostgreSQL error codes we react to.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

// IsRetryable reports infrastructure failures that may succeed if the whole
// unit of work is run again. Business errors are never retryable.
func IsRetryable(err error) bool {
	switch pqCode(err) {
	case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
		return true
	default:
		return false
	}
}

// dbError wraps a driver error, keeping ErrNotFound and ErrDuplicateKey distinguishable.
func dbError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return &opError{op: op, kind: ErrDuplicateKey, cause: err}
	}
	return &opError{op: op, kind: ErrDatabaseError, cause: err}
}

type opError struct {
	op    string
	kind  error
	cause error
}

func (e *opError) Error() string {
	return e.kind.Error() + ": " + e.op + ": " + e.cause.Error()
}

// Is lets errors.Is match the kind sentinel while errors.As still reaches the driver error.
func (e *opError) Is(target error) bool {
	return target == e.kind
}

func (e *opError) Unwrap() error {
	return e.cause
}
