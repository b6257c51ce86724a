// Package httperr defines the error taxonomy the API boundary translates into
// HTTP responses. Services return these errors; the echo error handler maps
// them onto the standard {success:false, message} envelope so that nothing
// internal leaks to the client.
package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Kind classifies an error for HTTP status mapping.
type Kind int

const (
	KindValidation  Kind = iota + 1 // 400 bad or missing input
	KindAuth                        // 401 bad credentials or invalid token
	KindForbidden                   // 403 authenticated but not allowed
	KindNotFound                    // 404 unknown resource
	KindUnavailable                 // 503 engine or store unreachable
)

// Error is a classified error with an optional client-visible detail payload.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithDetail attaches a client-visible key/value to the error envelope.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error for logs without exposing it.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Auth(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuth, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unavailable(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Handler returns an echo.HTTPErrorHandler that renders every error as the
// standard envelope. Unclassified errors become an opaque 500.
func Handler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := map[string]interface{}{
			"success": false,
			"message": "internal server error",
		}

		var apiErr *Error
		var echoErr *echo.HTTPError

		switch {
		case errors.As(err, &apiErr):
			status = apiErr.Status()
			body["message"] = apiErr.Message
			for k, v := range apiErr.Details {
				body[k] = v
			}
		case errors.As(err, &echoErr):
			status = echoErr.Code
			if msg, ok := echoErr.Message.(string); ok {
				body["message"] = msg
			}
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
