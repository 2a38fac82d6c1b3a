// Chat HTTP handler.
//
//   - POST /chat  (buffered JSON answer or a streamed text/plain body)
//
// A streamed answer commits its 200 status with the first non-empty
// fragment. Errors before that point are ordinary JSON errors; errors after
// it are appended to the body as "\n\n[error: <message>]" and end the
// stream. A client disconnect cancels the request context, which stops the
// model stream.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rag-chat-backend/internal/http/middleware"
	"github.com/tbourn/rag-chat-backend/internal/services"
)

// ChatRequest is the JSON payload of POST /chat.
type ChatRequest struct {
	// Message is the user question.
	Message string `json:"message" example:"How much does web hosting cost?"`
	// Stream overrides the server's default delivery mode when set.
	Stream *bool `json:"stream,omitempty" example:"false"`
}

// ChatResponse is the buffered answer.
type ChatResponse struct {
	Response string `json:"response" example:"Web hosting starts at $20 per month."`
}

// Chat godoc
// @ID          chat
// @Summary     Ask a question against the knowledge base
// @Description Retrieves the most relevant document chunks, builds a prompt with the system prompt and asks the model.
// @Description With stream=true (or CHAT_MODE=streaming and no stream field) the answer is written as a chunked
// @Description text/plain body. A model failure after the first fragment appends "\n\n[error: <message>]".
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Produce     plain
// @Param       body  body  handlers.ChatRequest  true  "Question"
// @Success     200  {object}  handlers.ChatResponse  "Buffered answer (streamed answers are text/plain)"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing message"
// @Failure     502  {object}  handlers.ErrorResponse  "Model call failed"
// @Failure     503  {object}  handlers.ErrorResponse  "No model credential configured"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	stream := h.opts.StreamByDefault
	if req.Stream != nil {
		stream = *req.Stream
	}

	if !stream {
		answer, err := h.chat.Answer(c.Request.Context(), req.Message)
		if err != nil {
			failChat(c, err)
			return
		}
		ok(c, http.StatusOK, ChatResponse{Response: answer})
		return
	}
	h.streamChat(c, req.Message)
}

func (h *Handlers) streamChat(c *gin.Context, message string) {
	ctx := c.Request.Context()
	seq, err := h.chat.Stream(ctx, message)
	if err != nil {
		failChat(c, err)
		return
	}

	started := false
	begin := func() {
		// Headers are set only here: a JSON error before the first fragment
		// must not inherit a text/plain Content-Type.
		hd := c.Writer.Header()
		hd.Set("Content-Type", "text/plain; charset=utf-8")
		hd.Set("Cache-Control", "no-cache")
		hd.Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		started = true
	}

	for frag, err := range seq {
		if err != nil {
			if !started {
				failChat(c, err)
				return
			}
			if ctx.Err() != nil {
				middleware.LoggerFrom(c).Info().Msg("chat stream cancelled by client")
				return
			}
			_, _ = c.Writer.WriteString("\n\n[error: " + err.Error() + "]")
			c.Writer.Flush()
			return
		}
		if frag == "" {
			continue
		}
		if !started {
			begin()
		}
		if _, werr := c.Writer.WriteString(frag); werr != nil {
			// Client went away; returning stops the sequence.
			return
		}
		c.Writer.Flush()
	}
	if !started {
		begin()
		c.Writer.WriteHeaderNow()
	}
}

func failChat(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrLLMNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeLLMNotConfigured, err.Error())
	case errors.Is(err, services.ErrModelFailed):
		fail(c, http.StatusBadGateway, ErrCodeAnswerFailed, err.Error())
	default:
		failErr(c, http.StatusInternalServerError, ErrCodeInternal, err)
	}
}
