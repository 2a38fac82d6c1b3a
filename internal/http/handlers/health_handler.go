package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Health godoc
// @ID          health
// @Summary     Liveness and store reachability
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Store unreachable"
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.HealthTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			failErr(c, http.StatusServiceUnavailable, ErrCodeUnavailable, err)
			return
		}
	}
	ok(c, http.StatusOK, HealthResponse{Status: "ok"})
}
