package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

// statusError attaches an HTTP status to an error that has none of its own.
type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string { return e.err.Error() }

func (e *statusError) Unwrap() error { return e.err }

// WithStatus tags err with status unless it already carries one, either as an
// echo.HTTPError, an earlier tag, or a domain error kind.
func WithStatus(err error, status int) error {
	if err == nil {
		return nil
	}
	if _, ok := StatusOf(err); ok {
		return err
	}
	return &statusError{err: err, status: status}
}

// StatusOf reports the HTTP status an error maps to, if any.
func StatusOf(err error) (int, bool) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status, true
	}

	var ve *domain.ValidationError
	var sve *domain.StorageValidationError
	switch {
	case errors.As(err, &ve), errors.As(err, &sve):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrInvalidBugID):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrBugNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, true
	}
	return 0, false
}

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Timestamp string `json:"timestamp"`
	Stack     string `json:"stack,omitempty"`
}
