package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/music/voicelead"
	"github.com/Conceptual-Machines/magda-composer/internal/services"
)

type VoiceLeadHandler struct{}

func NewVoiceLeadHandler() *VoiceLeadHandler {
	return &VoiceLeadHandler{}
}

// Solve voices a progression; unsatisfiable ranges fall back to root position
func (h *VoiceLeadHandler) Solve(c *gin.Context) {
	var cfg voicelead.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.SolveOrFallback(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if result.Fallback {
		log.Printf("🎼 Voice leading fell back to root position for %d chords", len(cfg.Progression))
	}
	c.JSON(http.StatusOK, result)
}
