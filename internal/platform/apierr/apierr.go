package apierr

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
)

// Error carries the HTTP status and machine code a handler should answer with.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// BadRequest wraps a user-facing validation message.
func BadRequest(code, msg string) *Error {
	return New(http.StatusBadRequest, code, pkgerrors.ErrInvalidArgument).withMessage(msg)
}

func (e *Error) withMessage(msg string) *Error {
	e.Err = &messageError{msg: msg, cause: e.Err}
	return e
}

type messageError struct {
	msg   string
	cause error
}

func (m *messageError) Error() string { return m.msg }
func (m *messageError) Unwrap() error { return m.cause }

// Classify maps any error onto a status and code. Explicit *Error values win,
// then the package sentinels, then 500.
func Classify(err error) (int, string) {
	var ae *Error
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &ae):
		return ae.Status, ae.Code
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, pkgerrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, pkgerrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// WithMessage builds an Error whose text is msg while errors.Is still sees cause.
func WithMessage(status int, code, msg string, cause error) *Error {
	return New(status, code, cause).withMessage(msg)
}
