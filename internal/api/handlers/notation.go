package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/music/notation"
	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/services"
)

// NotationHandler exposes the notation parser and pattern measurements
type NotationHandler struct{}

func NewNotationHandler() *NotationHandler {
	return &NotationHandler{}
}

type ParseRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

type ParseResponse struct {
	Elements []notation.Element `json:"elements"`
	Beats    float64            `json:"beats"`
}

// Parse explodes a compact pattern into notes, rests and chords
func (h *NotationHandler) Parse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	elements, err := notation.ParsePattern(req.Pattern)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	beats := 0.0
	for _, el := range elements {
		beats += el.Beats()
	}
	c.JSON(http.StatusOK, ParseResponse{Elements: elements, Beats: beats})
}

type ChordRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Duration string `json:"duration,omitempty"`
	Octave   *int   `json:"octave,omitempty"`
}

type ChordResponse struct {
	notation.ParsedChord
	Pitches []string `json:"pitches"`
}

// Chord resolves a chord symbol to MIDI notes
func (h *NotationHandler) Chord(c *gin.Context) {
	var req ChordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	duration := req.Duration
	if duration == "" {
		duration = defaultChordLength
	}
	octave := notation.DefaultChordOctave
	if req.Octave != nil {
		octave = *req.Octave
	}

	chord, err := notation.ParseChord("["+req.Symbol+"]:"+duration, octave)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	pitches := make([]string, len(chord.Notes))
	for i, midi := range chord.Notes {
		pitches[i] = theory.MIDIToPitch(midi)
	}
	c.JSON(http.StatusOK, ChordResponse{ParsedChord: chord, Pitches: pitches})
}

// Length measures a notation or Markov pattern in beats and bars
func (h *NotationHandler) Length(c *gin.Context) {
	var req services.LengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.PatternLength(req)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if !result.BarAligned {
		log.Printf("📏 Pattern is %.3g bars, not bar-aligned", result.Bars)
	}
	c.JSON(http.StatusOK, result)
}
