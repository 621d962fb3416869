package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/agents/drummer"
	"github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/llm"
	"github.com/Conceptual-Machines/magda-composer/internal/music/synth"
	"github.com/Conceptual-Machines/magda-composer/internal/services"
)

const defaultDrumTempo = 120.0

type DrummerHandler struct {
	providers services.ProviderSource
}

// NewDrummerHandler creates the drum handler. providers may be nil, which
// disables generation but keeps DSL parsing.
func NewDrummerHandler(providers services.ProviderSource) *DrummerHandler {
	return &DrummerHandler{providers: providers}
}

type DrumParseRequest struct {
	DSL   string  `json:"dsl" binding:"required"`
	Tempo float64 `json:"tempo,omitempty"`
	Loops int     `json:"loops,omitempty"`
}

type DrumResponse struct {
	DSL      string            `json:"dsl"`
	Patterns []drummer.Pattern `json:"patterns"`
	Beats    float64           `json:"beats"`
	Events   []synth.NoteEvent `json:"events"`
	Usage    *llm.TokenUsage   `json:"usage,omitempty"`
}

func drumResponse(dsl string, patterns []drummer.Pattern, tempo float64, loops int) DrumResponse {
	if tempo <= 0 {
		tempo = defaultDrumTempo
	}
	loops = max(loops, 1)
	return DrumResponse{
		DSL:      dsl,
		Patterns: patterns,
		Beats:    drummer.Beats(patterns) * float64(loops),
		Events:   drummer.Events(patterns, tempo, loops),
	}
}

// Parse turns drum DSL into lanes and timed drum events
func (h *DrummerHandler) Parse(c *gin.Context) {
	var req DrumParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := services.CheckLoops(req.Loops); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	parser, err := drummer.NewDSLParser()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	patterns, err := parser.ParseDSL(req.DSL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, drumResponse(req.DSL, patterns, req.Tempo, req.Loops))
}

type DrumGenerateRequest struct {
	Model      string           `json:"model"`
	Provider   string           `json:"provider"`
	InputArray []map[string]any `json:"input_array" binding:"required"`
	Tempo      float64          `json:"tempo,omitempty"`
	Loops      int              `json:"loops,omitempty"`
}

// Generate asks the drummer agent for a pattern
func (h *DrummerHandler) Generate(c *gin.Context) {
	var req DrumGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := services.CheckLoops(req.Loops); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if h.providers == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No LLM provider configured"})
		return
	}

	log.Printf("🥁 Drummer request from user %s", middleware.UserID(c))

	// Use requested model or default
	model := req.Model
	if model == "" {
		model = defaultDrummerModel
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), drummerTimeout)
	defer cancel()

	provider, err := h.providers.GetProvider(ctx, model, req.Provider)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	agent, err := drummer.NewAgent(provider)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	result, err := agent.Generate(ctx, model, req.InputArray)
	if err != nil {
		log.Printf("❌ Drummer generation failed: %v", err)
		respondError(c, http.StatusBadGateway, err)
		return
	}

	response := drumResponse(result.DSL, result.Patterns, req.Tempo, req.Loops)
	response.Usage = &result.Usage
	c.JSON(http.StatusOK, response)
}
