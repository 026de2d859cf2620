package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mern-bugtracker/bug-tracker/internal/api/handler"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Resolves the status from echo errors, attached statuses and domain kinds.
//   - Logs every failure with the request coordinates.
//   - Renders the {"success":false,"error":{...}} envelope, with a stack
//     trace for every error in development. Errors that carry no trace of
//     their own get one captured here.
func NewHTTPErrorHandler(log zerolog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		now := time.Now().UTC()

		stack := ""
		var st stackTracer
		if errors.As(err, &st) {
			stack = fmt.Sprintf("%+v", st.StackTrace())
		} else if development {
			stack = fmt.Sprintf("%+v", pkgerrors.WithStack(err))
		}

		ev := log.Warn()
		if code >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Err(err).
			Int("status", code).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("stack", stack).
			Msg(msg)

		body := handler.ErrorEnvelope{
			Success: false,
			Error: handler.ErrorBody{
				Message:   msg,
				Status:    code,
				Timestamp: now.Format(time.RFC3339Nano),
			},
		}
		if development {
			body.Error.Stack = stack
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error) (int, string) {
	if errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
		return http.StatusNotFound, "Route not found"
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	if code, ok := handler.StatusOf(err); ok {
		return code, err.Error()
	}
	return http.StatusInternalServerError, messageOr(err, http.StatusText(http.StatusInternalServerError))
}

func messageOr(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
