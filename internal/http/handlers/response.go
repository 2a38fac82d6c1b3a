// Package handlers implements the HTTP endpoints of the chat backend:
// knowledge base documents (user and admin surfaces), the system prompt,
// chat answers (buffered JSON or a streamed text body) and health.
//
// Every failure is written as an ErrorResponse with a stable code from
// errors.go. 5xx responses are logged with the request-scoped logger.
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "Document not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rag-chat-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID for log correlation
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"Document not found"`
}

// SuccessResponse acknowledges a mutation without a resource body.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// fail aborts with an ErrorResponse; 5xx are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// internalMessages are the client-facing texts for server-side failures.
var internalMessages = map[string]string{
	ErrCodeInternal:     "Internal server error",
	ErrCodeUnavailable:  "Store unreachable",
	ErrCodeCreateFailed: "Failed to save",
	ErrCodeUploadFailed: "Failed to store document",
	ErrCodeListFailed:   "Failed to list documents",
	ErrCodeDeleteFailed: "Failed to delete document",
}

// failErr aborts with a fixed message for code. The cause is logged with
// the request id and never returned to the client.
func failErr(c *gin.Context, status int, code string, err error) {
	middleware.LoggerFrom(c).Error().
		Err(err).
		Int("status", status).
		Str("code", code).
		Msg("api error")
	msg, ok := internalMessages[code]
	if !ok {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for packages outside handlers (router fallbacks).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func succeeded(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
