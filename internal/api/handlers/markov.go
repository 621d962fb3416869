package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/music/markov"
	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

const defaultMarkovKey = "C major"

type MarkovHandler struct{}

func NewMarkovHandler() *MarkovHandler {
	return &MarkovHandler{}
}

type MarkovRequest struct {
	Config markov.Config `json:"config"`
	Key    string        `json:"key,omitempty"`
}

type MarkovGenerateResponse struct {
	*markov.Result
	Beats  float64        `json:"beats"`
	Issues []markov.Issue `json:"issues,omitempty"`
}

// Generate runs a Markov chain. Config problems the generator tolerates are
// returned as issues next to the notes.
func (h *MarkovHandler) Generate(c *gin.Context) {
	var req MarkovRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	keyName := req.Key
	if keyName == "" {
		keyName = defaultMarkovKey
	}
	key, err := theory.ParseKey(keyName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := markov.Generate(req.Config, key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, MarkovGenerateResponse{
		Result: result,
		Beats:  result.TotalBeats(),
		Issues: markov.Validate(req.Config),
	})
}

// Validate reports config problems without generating
func (h *MarkovHandler) Validate(c *gin.Context) {
	var req MarkovRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issues := markov.Validate(req.Config)
	if issues == nil {
		issues = []markov.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}
