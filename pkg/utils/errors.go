package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")
	ErrConflict       = errors.New("resource conflict")
	ErrTransient      = errors.New("transient failure")
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewAppError(code string, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeDuplicate    = "DUPLICATE_WORKOUT"
)

// WrapKind attaches an error kind sentinel to a descriptive message so the
// HTTP layer can map it without string matching.
func WrapKind(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{kind}, args...)...)
}

func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}

// IsUniqueViolation reports whether err is a unique-constraint collision.
// The postgres driver surfaces SQLSTATE 23505 as *pgconn.PgError; the sqlite
// driver used in tests only exposes the constraint name in the message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// Retry runs fn up to 3 times with exponential backoff (50/200/1000 ms) for
// transient failures. The final error is returned unwrapped.
func Retry(ctx context.Context, fn func() error) error {
	backoffs := []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, 1000 * time.Millisecond}
	var err error
	for i, wait := range backoffs {
		if err = fn(); err == nil {
			return nil
		}
		if i == len(backoffs)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}
