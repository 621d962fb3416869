package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/services"
)

// Composer produces validated notation from a prompt
type Composer interface {
	Compose(ctx context.Context, req *services.ComposeRequest) (*services.ComposeResult, error)
}

type ComposeHandler struct {
	composer Composer
}

// NewComposeHandler creates the compose handler. A nil composer answers 503.
func NewComposeHandler(composer Composer) *ComposeHandler {
	return &ComposeHandler{composer: composer}
}

func (h *ComposeHandler) Compose(c *gin.Context) {
	var req services.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.composer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No LLM provider configured"})
		return
	}

	req.UserID = middleware.UserID(c)
	req.RequestID = middleware.RequestID(c)
	log.Printf("🎹 Compose request from user %s", req.UserID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), composeTimeout)
	defer cancel()

	result, err := h.composer.Compose(ctx, &req)
	if err != nil {
		log.Printf("❌ Compose failed: %v", err)
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
