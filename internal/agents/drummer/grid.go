package drummer

import (
	"sort"

	"github.com/Conceptual-Machines/magda-composer/internal/music/synth"
)

// StepsPerBeat is the grid resolution: one character is a 16th note.
const StepsPerBeat = 4

const restStep = '-'

// gridVelocities maps hit characters onto MIDI velocities.
var gridVelocities = map[rune]int{
	'x': 100,
	'X': 127,
	'o': 60,
}

// Hit is a single drum strike on the grid.
type Hit struct {
	Drum     string `json:"drum"`
	Step     int    `json:"step"`
	Velocity int    `json:"velocity"`
}

// Hits returns the strikes of a lane. Character velocities are scaled by the
// lane velocity relative to the default of 100.
func (p Pattern) Hits() []Hit {
	laneVelocity := p.Velocity
	if laneVelocity == 0 {
		laneVelocity = defaultPatternVelocity
	}

	var hits []Hit
	for step, c := range []rune(p.Grid) {
		v, ok := gridVelocities[c]
		if !ok {
			continue
		}
		v = v * laneVelocity / defaultPatternVelocity
		hits = append(hits, Hit{Drum: p.Drum, Step: step, Velocity: max(1, min(v, maxMIDIVelocity))})
	}
	return hits
}

// Steps returns the loop length in steps: the longest grid.
func Steps(patterns []Pattern) int {
	steps := 0
	for _, p := range patterns {
		steps = max(steps, len([]rune(p.Grid)))
	}
	return steps
}

// Beats returns the loop length in beats.
func Beats(patterns []Pattern) float64 {
	return float64(Steps(patterns)) / StepsPerBeat
}

// Events lays the lanes out at tempo (BPM) for the given number of loops and
// returns synth events ordered by time. Each hit lasts one step.
func Events(patterns []Pattern, tempo float64, loops int) []synth.NoteEvent {
	if tempo <= 0 || len(patterns) == 0 {
		return nil
	}
	loops = max(loops, 1)

	stepSeconds := 60 / tempo / StepsPerBeat
	loopSteps := Steps(patterns)

	var events []synth.NoteEvent
	for loop := 0; loop < loops; loop++ {
		offset := loop * loopSteps
		for _, p := range patterns {
			for _, h := range p.Hits() {
				events = append(events, synth.NoteEvent{
					Pitch:    h.Drum,
					Time:     float64(offset+h.Step) * stepSeconds,
					Duration: stepSeconds,
					Velocity: float64(h.Velocity) / maxMIDIVelocity,
				})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
	return events
}
