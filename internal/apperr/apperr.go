package apperr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Application error codes. The HTTP layer maps each one to a status.
const (
	ECONFLICT     = "conflict"     // 409 - uniqueness or referential guard
	EINTERNAL     = "internal"     // 500 - unclassified failure (details hidden)
	EINVALID      = "invalid"      // 400 - malformed input or structural violation
	ENOTFOUND     = "not_found"    // 404 - missing entity
	EUNAUTHORIZED = "unauthorized" // 401 - missing or bad credentials
	ERATELIMIT    = "rate_limit"   // 429
)

// Postgres SQLSTATE codes the store layer translates.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Error is an application error with a machine-readable code, a message safe
// to show to users and the operation it came from.
type Error struct {
	Code    string
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the code of the first *Error in err's chain, EINTERNAL for any
// other non-nil error.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// Message returns the user-facing message. The wrapped error is never part of
// it, and errors outside the taxonomy get a generic message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// Op returns the operation recorded on err, if any.
func Op(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return Code(err) == code
}

func Errorf(code, op, format string, args ...any) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. Returns nil if err is nil.
func Wrap(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

func NotFound(op, resource string) error {
	return &Error{Code: ENOTFOUND, Op: op, Message: resource + " not found"}
}

func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

// FromStore translates a store failure into the application taxonomy.
// Errors that already carry a code pass through unchanged; known Postgres
// codes are mapped; everything else becomes EINTERNAL with context attached.
func FromStore(err error, op, context string) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &Error{Code: ENOTFOUND, Op: op, Message: "Resource not found", Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return &Error{Code: EINVALID, Op: op, Message: "Foreign key constraint failed", Err: err}
		case pgUniqueViolation:
			return &Error{Code: ECONFLICT, Op: op, Message: "Resource already exists", Err: err}
		}
	}

	return &Error{Code: EINTERNAL, Op: op, Message: "An error occurred while " + context, Err: err}
}
