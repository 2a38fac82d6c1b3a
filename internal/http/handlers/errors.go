package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these, so
// existing values never change meaning.
const (
	ErrCodeBadRequest           = "bad_request"
	ErrCodeNotFound             = "not_found"
	ErrCodeMethodNotAllowed     = "method_not_allowed"
	ErrCodeRateLimited          = "too_many_requests"
	ErrCodePayloadTooLarge      = "payload_too_large"
	ErrCodeUnsupportedMediaType = "unsupported_media_type"
	ErrCodeInternal             = "internal_error"
	ErrCodeUnavailable          = "unavailable"

	// Domain-specific:
	ErrCodeLLMNotConfigured = "llm_not_configured"
	ErrCodeAnswerFailed     = "answer_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeUploadFailed     = "upload_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeDeleteFailed     = "delete_failed"
)
