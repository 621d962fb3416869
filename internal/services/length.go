package services

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/magda-composer/internal/music/markov"
	"github.com/Conceptual-Machines/magda-composer/internal/music/notation"
)

const (
	defaultBeatsPerBar = 4
	barTolerance       = 1e-6
)

// LengthRequest asks for the length of one pattern: either a notation string
// or a Markov config.
type LengthRequest struct {
	Notation    string         `json:"notation,omitempty"`
	Markov      *markov.Config `json:"markov,omitempty"`
	BeatsPerBar int            `json:"beats_per_bar,omitempty"`
}

// LengthResult reports a pattern's length
type LengthResult struct {
	Beats      float64 `json:"beats"`
	Bars       float64 `json:"bars"`
	BarAligned bool    `json:"bar_aligned"`
	Elements   int     `json:"elements"`
}

// PatternLength measures a pattern without rendering it. Markov lengths only
// depend on the step count and duration cycle, so no sequence is generated.
func PatternLength(req LengthRequest) (*LengthResult, error) {
	beatsPerBar := req.BeatsPerBar
	if beatsPerBar <= 0 {
		beatsPerBar = defaultBeatsPerBar
	}

	var beats float64
	var elements int
	switch {
	case req.Notation != "" && req.Markov != nil:
		return nil, fmt.Errorf("provide either notation or markov, not both")
	case req.Notation != "":
		parsed, err := notation.ParsePattern(req.Notation)
		if err != nil {
			return nil, err
		}
		for _, el := range parsed {
			beats += el.Beats()
		}
		elements = len(parsed)
	case req.Markov != nil:
		if err := req.Markov.CheckLimits(); err != nil {
			return nil, err
		}
		for i := 0; i < req.Markov.Steps; i++ {
			beats += req.Markov.Duration.At(i)
		}
		elements = req.Markov.Steps
	default:
		return nil, fmt.Errorf("provide notation or markov")
	}

	bars := beats / float64(beatsPerBar)
	return &LengthResult{
		Beats:      beats,
		Bars:       bars,
		BarAligned: math.Abs(bars-math.Round(bars)) < barTolerance,
		Elements:   elements,
	}, nil
}
