package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the standard API response body.
// Success: {message, data}. Failure: {message, error, data: null}.
type Envelope struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data"`
}

// OK sends a 200 response with the standard envelope.
func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Message: message, Data: data})
}

// Created sends a 201 response with the standard envelope.
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Message: message, Data: data})
}

// Fail sends an error response with the standard envelope.
func Fail(c *gin.Context, status int, message, errMsg string) {
	c.JSON(status, Envelope{Message: message, Error: errMsg, Data: nil})
}

// BadRequest sends a 400 Bad Request response.
func BadRequest(c *gin.Context, errMsg string) {
	Fail(c, http.StatusBadRequest, "invalid request", errMsg)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, errMsg string) {
	Fail(c, http.StatusNotFound, "not found", errMsg)
}

// PaymentRequired sends a 402 response for a rejected gateway operation.
func PaymentRequired(c *gin.Context, message, errMsg string) {
	Fail(c, http.StatusPaymentRequired, message, errMsg)
}

// InternalError sends a 500 Internal Server Error response.
func InternalError(c *gin.Context, errMsg string) {
	if errMsg == "" {
		errMsg = "internal error"
	}
	Fail(c, http.StatusInternalServerError, "internal error", errMsg)
}

// ErrorMapping maps domain errors to HTTP status codes.
type ErrorMapping struct {
	Err     error
	Status  int
	Message string
}

// HandleError handles an error using the provided mappings.
// Returns true if the error was handled, false otherwise.
func HandleError(c *gin.Context, err error, mappings []ErrorMapping) bool {
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			msg := m.Message
			if msg == "" {
				msg = m.Err.Error()
			}
			Fail(c, m.Status, msg, m.Err.Error())
			return true
		}
	}
	return false
}

// HandleErrorWithDefault handles an error with a 500 fallback.
func HandleErrorWithDefault(c *gin.Context, err error, mappings []ErrorMapping) {
	if !HandleError(c, err, mappings) {
		InternalError(c, "")
	}
}
