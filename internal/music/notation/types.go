package notation

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

// Articulation shapes how a note or chord is played.
type Articulation string

const (
	ArticulationNone     Articulation = ""
	ArticulationStaccato Articulation = "staccato"
	ArticulationLegato   Articulation = "legato"
	ArticulationAccent   Articulation = "accent"
	ArticulationMarcato  Articulation = "marcato"
)

// Ornament decorates a single note.
type Ornament string

const (
	OrnamentNone    Ornament = ""
	OrnamentTrill   Ornament = "trill"
	OrnamentMordent Ornament = "mordent"
	OrnamentTurn    Ornament = "turn"
)

// Jazz articulation kinds
const (
	JazzFall  = "fall"
	JazzDoit  = "doit"
	JazzScoop = "scoop"
	JazzBend  = "bend"
)

// JazzArticulation is a pitch gesture attached to a note. Semitones is only set for bends.
type JazzArticulation struct {
	Kind      string `json:"kind"`
	Semitones int    `json:"semitones,omitempty"`
}

// Velocity is a note velocity in [0,1], optionally written as a dynamic marking.
type Velocity struct {
	Value   float64 `json:"value"`
	Dynamic string  `json:"dynamic,omitempty"`
}

// Dynamics maps dynamic markings onto velocities.
var Dynamics = map[string]float64{
	"ppp": 0.15,
	"pp":  0.25,
	"p":   0.4,
	"mp":  0.5,
	"mf":  0.65,
	"f":   0.8,
	"ff":  0.9,
	"fff": 1.0,
}

// ParsedNote is a single pitched note with its modifiers.
type ParsedNote struct {
	Pitch         theory.Pitch      `json:"pitch"`
	MIDI          int               `json:"midi"`
	DurationBeats float64           `json:"duration_beats"`
	Dotted        bool              `json:"dotted,omitempty"`
	Tuplet        int               `json:"tuplet,omitempty"`
	Articulation  Articulation      `json:"articulation,omitempty"`
	Velocity      *Velocity         `json:"velocity,omitempty"`
	Probability   *float64          `json:"probability,omitempty"`
	OffsetMS      *float64          `json:"offset_ms,omitempty"`
	Portamento    bool              `json:"portamento,omitempty"`
	Jazz          *JazzArticulation `json:"jazz,omitempty"`
	Ornament      Ornament          `json:"ornament,omitempty"`
}

// ParsedRest is a silence of a given length.
type ParsedRest struct {
	DurationBeats float64 `json:"duration_beats"`
	Dotted        bool    `json:"dotted,omitempty"`
}

// ParsedChord is a chord symbol resolved to concrete MIDI notes.
type ParsedChord struct {
	Symbol        string       `json:"symbol"`
	Root          string       `json:"root"`
	Quality       string       `json:"quality"`
	Bass          string       `json:"bass,omitempty"`
	Octave        int          `json:"octave"`
	DurationBeats float64      `json:"duration_beats"`
	Dotted        bool         `json:"dotted,omitempty"`
	Tuplet        int          `json:"tuplet,omitempty"`
	Notes         []int        `json:"notes"`
	Articulation  Articulation `json:"articulation,omitempty"`
}

// ElementKind identifies which field of an Element is set.
type ElementKind string

const (
	KindNote  ElementKind = "note"
	KindRest  ElementKind = "rest"
	KindChord ElementKind = "chord"
)

// Element is one parsed token of a compact pattern.
type Element struct {
	Kind  ElementKind  `json:"type"`
	Token string       `json:"token"`
	Note  *ParsedNote  `json:"note,omitempty"`
	Rest  *ParsedRest  `json:"rest,omitempty"`
	Chord *ParsedChord `json:"chord,omitempty"`
}

// Beats returns the element's length in beats.
func (e Element) Beats() float64 {
	switch e.Kind {
	case KindNote:
		return e.Note.DurationBeats
	case KindRest:
		return e.Rest.DurationBeats
	case KindChord:
		return e.Chord.DurationBeats
	}
	return 0
}

// ParseError reports a notation token that does not match the grammar.
type ParseError struct {
	Input    string `json:"input"`
	Fragment string `json:"fragment"`
	Expected string `json:"expected"`
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("invalid notation %q: expected %s", e.Input, e.Expected)
	}
	return fmt.Sprintf("invalid notation %q at %q: expected %s", e.Input, e.Fragment, e.Expected)
}
