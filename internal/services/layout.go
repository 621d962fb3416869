package services

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-composer/internal/music/markov"
	"github.com/Conceptual-Machines/magda-composer/internal/music/notation"
	"github.com/Conceptual-Machines/magda-composer/internal/music/synth"
	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

const (
	defaultNoteVelocity = 0.8

	staccatoLength = 0.5
	marcatoLength  = 0.75
	legatoLength   = 1.1
	accentBoost    = 1.2
	marcatoBoost   = 1.3

	// ornament subdivision, in beats
	ornamentStep = 0.125
)

// LayoutOptions places a single pattern on the timeline
type LayoutOptions struct {
	Tempo        float64 // BPM
	StartSeconds float64
	Instrument   string
	Transpose    int
	Seed         *uint32 // probability gate; nil draws a random seed
}

// Layout is a laid-out pattern
type Layout struct {
	Events []synth.NoteEvent `json:"events"`
	Beats  float64           `json:"beats"`
	Seed   uint32            `json:"seed"`
}

// LayoutPattern turns parsed elements into timed synth events. Articulations
// shape duration and velocity, timing offsets shift the start, probabilities
// gate notes through a seeded stream and chords expand to simultaneous events.
func LayoutPattern(elements []notation.Element, opts LayoutOptions) (*Layout, error) {
	if opts.Tempo <= 0 {
		return nil, fmt.Errorf("tempo must be positive, got %g", opts.Tempo)
	}

	seed := markov.RandomSeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	gate := markov.NewStream(seed)
	secondsPerBeat := 60 / opts.Tempo

	layout := &Layout{Seed: seed}
	at := func(beat float64) float64 {
		return opts.StartSeconds + beat*secondsPerBeat
	}

	cursor := 0.0
	for _, el := range elements {
		beats := el.Beats()
		switch el.Kind {
		case notation.KindNote:
			n := el.Note
			if n.Probability != nil && gate.Float64() >= *n.Probability {
				break
			}
			start := at(cursor)
			if n.OffsetMS != nil {
				start = max(0, start+*n.OffsetMS/1000)
			}
			length, velocity := articulate(n.Articulation, beats*secondsPerBeat, noteVelocity(n.Velocity))
			layout.Events = append(layout.Events,
				ornament(n.MIDI+opts.Transpose, n.Ornament, start, length, velocity, secondsPerBeat, opts.Instrument)...)

		case notation.KindChord:
			c := el.Chord
			length, velocity := articulate(c.Articulation, beats*secondsPerBeat, defaultNoteVelocity)
			for _, midi := range c.Notes {
				layout.Events = append(layout.Events, synth.NoteEvent{
					Pitch:      theory.MIDIToPitch(theory.ClampMIDI(midi + opts.Transpose)),
					Time:       at(cursor),
					Duration:   length,
					Velocity:   velocity,
					Instrument: opts.Instrument,
				})
			}
		}
		cursor += beats
	}

	layout.Beats = cursor
	return layout, nil
}

func noteVelocity(v *notation.Velocity) float64 {
	if v == nil {
		return defaultNoteVelocity
	}
	return v.Value
}

// articulate applies an articulation to a sounding length (seconds) and velocity.
func articulate(a notation.Articulation, length, velocity float64) (float64, float64) {
	switch a {
	case notation.ArticulationStaccato:
		length *= staccatoLength
	case notation.ArticulationLegato:
		length *= legatoLength
	case notation.ArticulationAccent:
		velocity *= accentBoost
	case notation.ArticulationMarcato:
		length *= marcatoLength
		velocity *= marcatoBoost
	}
	return length, min(velocity, 1)
}

// ornament expands a note into its ornament figure. Neighbours are a whole
// step above and a half step below.
func ornament(midi int, o notation.Ornament, start, length, velocity, secondsPerBeat float64, instrument string) []synth.NoteEvent {
	event := func(m int, t, d float64) synth.NoteEvent {
		return synth.NoteEvent{
			Pitch:      theory.MIDIToPitch(theory.ClampMIDI(m)),
			Time:       t,
			Duration:   d,
			Velocity:   velocity,
			Instrument: instrument,
		}
	}

	step := ornamentStep * secondsPerBeat
	var figure []int
	switch o {
	case notation.OrnamentTrill:
		n := max(2, int(length/step))
		step = length / float64(n)
		for i := 0; i < n; i++ {
			figure = append(figure, midi+2*(i%2))
		}
	case notation.OrnamentMordent:
		if length > 2*step {
			out := []synth.NoteEvent{
				event(midi, start, step),
				event(midi+2, start+step, step),
				event(midi, start+2*step, length-2*step),
			}
			return out
		}
	case notation.OrnamentTurn:
		figure = []int{midi + 2, midi, midi - 1, midi}
		step = length / float64(len(figure))
	}

	if len(figure) == 0 {
		return []synth.NoteEvent{event(midi, start, length)}
	}
	out := make([]synth.NoteEvent, len(figure))
	for i, m := range figure {
		out[i] = event(m, start+float64(i)*step, step)
	}
	return out
}
