package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rag-chat-backend/internal/services"
)

// PromptPayload carries the system prompt in both directions.
type PromptPayload struct {
	Prompt string `json:"prompt" example:"You are a helpful business assistant."`
}

// GetSystemPrompt godoc
// @ID          getSystemPrompt
// @Summary     Read the system prompt
// @Description Returns the saved system prompt, or the built-in default when none was saved.
// @Tags        System prompt
// @Produce     json
// @Success     200  {object}  handlers.PromptPayload
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /system-prompt [get]
func (h *Handlers) GetSystemPrompt(c *gin.Context) {
	p, err := h.prompts.Get(c.Request.Context())
	if err != nil {
		failErr(c, http.StatusInternalServerError, ErrCodeInternal, err)
		return
	}
	ok(c, http.StatusOK, PromptPayload{Prompt: p})
}

// SaveSystemPrompt godoc
// @ID          saveSystemPrompt
// @Summary     Replace the system prompt
// @Description Stores the prompt verbatim. A blank prompt is rejected.
// @Tags        System prompt
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.PromptPayload  true  "New prompt"
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /system-prompt [post]
func (h *Handlers) SaveSystemPrompt(c *gin.Context) {
	var req PromptPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.prompts.Save(c.Request.Context(), req.Prompt); err != nil {
		if errors.Is(err, services.ErrEmptyPrompt) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		failErr(c, http.StatusInternalServerError, ErrCodeCreateFailed, err)
		return
	}
	succeeded(c)
}
