package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/services"
)

type RenderHandler struct {
	service *services.RenderService
}

func NewRenderHandler(service *services.RenderService) *RenderHandler {
	return &RenderHandler{service: service}
}

// Render synthesizes events and tracks. The WAV is returned as the body,
// or as JSON metadata when the render was stored or ?format=json is set.
func (h *RenderHandler) Render(c *gin.Context) {
	var req services.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.UserID = middleware.UserID(c)
	req.RequestID = middleware.RequestID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), renderTimeout)
	defer cancel()

	result, err := h.service.Render(ctx, &req)
	if err != nil {
		log.Printf("❌ Render failed: %v", err)
		respondError(c, http.StatusBadRequest, err)
		return
	}

	if result.Object != nil || c.Query("format") == "json" {
		c.JSON(http.StatusOK, result)
		return
	}

	c.Header("X-Render-ID", result.ID)
	c.Header("X-Render-Seconds", fmt.Sprintf("%.3f", result.Seconds))
	c.Header("X-Render-Peak", fmt.Sprintf("%.4f", result.Peak))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.wav"`, result.ID))
	c.Data(http.StatusOK, contentTypeWAV, result.WAV)
}

// GetRender returns a stored render record
func (h *RenderHandler) GetRender(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid render ID"})
		return
	}

	render, err := h.service.GetRender(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, render)
}
