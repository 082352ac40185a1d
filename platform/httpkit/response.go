// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"relocation_quiz_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternal = "Something went wrong. Please try again."

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// HandleError maps domain errors to HTTP responses.
// A typed *apperr.Error uses its Kind to determine the status code.
// Internal and configuration errors, and any untyped error, are answered
// with a generic 500 message so no internal detail reaches the caller.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) || !domainErr.Exposed() {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
		return true
	}

	if domainErr.Kind == apperr.KindRateLimited && domainErr.RetryAfter > 0 {
		seconds := int(math.Ceil(domainErr.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(seconds))
	}

	c.JSON(domainErr.HTTPStatus(), ErrorResponse{
		Error:   domainErr.Message,
		Details: domainErr.Details,
	})
	return true
}
