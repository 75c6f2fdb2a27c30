package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Structural errors, per spec.md §7. Each maps to a fixed HTTP status;
// handlers call c.Error(...) and return without writing a response.
type ErrBadRequest struct{ Err error }

func (e *ErrBadRequest) Error() string { return e.Err.Error() }
func (e *ErrBadRequest) Unwrap() error { return e.Err }

type ErrUnauthorized struct{ Err error }

func (e *ErrUnauthorized) Error() string { return e.Err.Error() }
func (e *ErrUnauthorized) Unwrap() error { return e.Err }

type ErrPaymentRequired struct{ Err error }

func (e *ErrPaymentRequired) Error() string { return e.Err.Error() }
func (e *ErrPaymentRequired) Unwrap() error { return e.Err }

type ErrInternal struct{ Err error }

func (e *ErrInternal) Error() string { return e.Err.Error() }
func (e *ErrInternal) Unwrap() error { return e.Err }

// ErrorPayload is the structured JSON error response.
type ErrorPayload struct {
	Error string `json:"error"`
}

// ErrorHandler centralizes error handling: handlers call c.Error(err) and
// return without writing a response; this middleware maps the error to a
// status code and consistent JSON body. Grounded on the teacher's
// internal/http/middleware/error_handler.go.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := statusForError(err)
		slog.Debug("error handler", "status", status, "error", err.Error())
		c.JSON(status, ErrorPayload{Error: err.Error()})
	}
}

func statusForError(err error) int {
	switch {
	case errors.As(err, new(*ErrBadRequest)):
		return http.StatusBadRequest
	case errors.As(err, new(*ErrUnauthorized)):
		return http.StatusUnauthorized
	case errors.As(err, new(*ErrPaymentRequired)):
		return http.StatusPaymentRequired
	case errors.As(err, new(*ErrInternal)):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
