package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"-"` // callers may safely retry the operation
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a fail-fast input validation error. Never retried.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Wallet Ledger (WAL) ----

func ErrInsufficientBalance() *AppError {
	return New("WAL_001", "Insufficient token balance", http.StatusPaymentRequired)
}

func ErrNotFound(entity string) *AppError {
	return New("WAL_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Payment Gateway (GW) ----

// ErrGatewayRejected covers 4xx provider responses and malformed payloads.
// The request itself is at fault; retrying the same call will not help.
func ErrGatewayRejected(message string, err error) *AppError {
	return Wrap("GW_001", message, http.StatusBadRequest, err)
}

// ErrGatewayUnavailable covers transport failures, timeouts and 5xx provider
// responses. The cause is transient, so the error is marked retryable.
func ErrGatewayUnavailable(message string, err error) *AppError {
	e := Wrap("GW_002", message, http.StatusBadGateway, err)
	e.Retryable = true
	return e
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrConcurrencyFailure marks a lock-wait timeout, serialization failure or
// unique-constraint violation from the storage layer. Retryable.
func ErrConcurrencyFailure(err error) *AppError {
	e := Wrap("SYS_002", "Concurrent update conflict", http.StatusServiceUnavailable, err)
	e.Retryable = true
	return e
}

// PostgreSQL error codes that signal a concurrency conflict rather than a
// genuine storage fault.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// StorageError translates a raw storage error: concurrency conflicts become
// a distinct retryable kind, everything else an internal error.
func StorageError(err error) *AppError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return ErrConcurrencyFailure(err)
		}
	}
	return InternalError(err)
}

// IsRetryable reports whether err carries a retryable AppError.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}
