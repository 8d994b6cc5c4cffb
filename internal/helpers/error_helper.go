package helpers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed API call. Error carries the
// standard status text and Message the client-facing explanation.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func errorBody(statusCode int, message string) ErrorResponse {
	return ErrorResponse{Error: http.StatusText(statusCode), Message: message}
}

func RespondWithError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, errorBody(statusCode, message))
}

// AbortWithError is RespondWithError for middleware: later handlers in the
// chain do not run.
func AbortWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, errorBody(statusCode, message))
}
