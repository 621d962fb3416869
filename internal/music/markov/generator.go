package markov

import (
	"fmt"
	"regexp"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

const (
	velocityBase   = 0.7
	velocityJitter = 0.2
)

var degreePattern = regexp.MustCompile(`^[#b]?[1-9][0-9]*$`)

// Result is a generated sequence plus the intermediate state sequence it was resolved from.
type Result struct {
	Seed   uint32          `json:"seed"`
	Key    theory.Key      `json:"key"`
	States []string        `json:"states"`
	Notes  []GeneratedNote `json:"notes"`
}

// Pitched returns only the sounding notes.
func (r *Result) Pitched() []GeneratedNote {
	out := make([]GeneratedNote, 0, len(r.Notes))
	for _, n := range r.Notes {
		if !n.IsRest() {
			out = append(out, n)
		}
	}
	return out
}

// TotalBeats returns the summed duration of every step, rests included.
func (r *Result) TotalBeats() float64 {
	total := 0.0
	for _, n := range r.Notes {
		total += n.DurationBeats
	}
	return total
}

// Generate runs the chain for cfg.Steps states in the given key.
//
// Dead-end states self-loop and under-specified distributions fall back to
// their first target, so only structural problems (no states, steps outside
// 1..MaxSteps, non-positive durations, unknown preset or chord) are returned
// as errors. Use Validate to surface
// the rest.
func Generate(cfg Config, key theory.Key) (*Result, error) {
	cfg, err := cfg.withPreset()
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckLimits(); err != nil {
		return nil, err
	}
	states := cfg.declaredStates()
	if len(states) == 0 {
		return nil, fmt.Errorf("markov config has no states")
	}

	effective := key
	if cfg.ChordScale != "" {
		effective, err = theory.ChordScale(cfg.ChordScale)
		if err != nil {
			return nil, fmt.Errorf("chord scale: %w", err)
		}
	}

	seed := RandomSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	stream := NewStream(seed)

	start := cfg.InitialState
	if start == "" {
		start = states[0]
	}

	sequence := walk(cfg.Transitions, start, cfg.Steps, stream)
	pitches := resolve(sequence, effective, cfg.octave(), cfg.ConstrainToScale)

	notes := make([]GeneratedNote, len(sequence))
	beat := 0.0
	for i, state := range sequence {
		duration := cfg.Duration.At(i)
		notes[i] = GeneratedNote{
			State:         state,
			DurationBeats: duration,
			StartBeat:     beat,
		}
		if midi := pitches[i]; midi != nil {
			name := theory.MIDIToPitch(*midi)
			notes[i].Pitch = &name
			notes[i].MIDI = midi
			notes[i].Velocity = velocityBase + velocityJitter*stream.Float64()
		}
		beat += duration
	}

	return &Result{Seed: seed, Key: effective, States: sequence, Notes: notes}, nil
}

// walk produces exactly steps states starting at start.
func walk(table Table, start string, steps int, stream *Stream) []string {
	sequence := make([]string, 0, steps)
	current := start
	for len(sequence) < steps {
		sequence = append(sequence, current)
		if len(sequence) == steps {
			break
		}
		current = next(table, current, stream.Float64())
	}
	return sequence
}

// next samples a successor: first target whose running sum exceeds r, else the first target.
// States without outgoing transitions loop on themselves.
func next(table Table, current string, r float64) string {
	targets, _ := table.Targets(current)
	if len(targets) == 0 {
		return current
	}
	cumulative := 0.0
	for _, t := range targets {
		cumulative += t.Probability
		if cumulative > r {
			return t.Target
		}
	}
	return targets[0].Target
}

// resolve maps the state sequence to MIDI pitches right to left, so an approach
// tone can see its already-resolved successor.
func resolve(sequence []string, key theory.Key, octave int, constrain bool) []*int {
	pitches := make([]*int, len(sequence))
	tonic := (octave+1)*12 + key.RootPC

	var successor *int
	for i := len(sequence) - 1; i >= 0; i-- {
		state := sequence[i]
		var midi int

		switch {
		case state == StateRest:
			continue
		case state == StateApproach:
			target := tonic
			if successor != nil {
				target = *successor
			}
			midi = target - 1
		default:
			m, ok := resolveToken(state, key, octave)
			if !ok {
				// unresolvable tokens are reported by Validate and sound as rests
				continue
			}
			midi = m
			if constrain {
				midi = snapToScale(midi, key)
			}
		}

		midi = clampMIDI(midi)
		pitches[i] = &midi
		successor = pitches[i]
	}
	return pitches
}

// resolveToken resolves a scale degree or absolute pitch.
func resolveToken(state string, key theory.Key, octave int) (int, bool) {
	if degreePattern.MatchString(state) {
		m, err := theory.DegreeToMIDI(key, state, octave)
		return m, err == nil
	}
	m, err := theory.PitchToMIDI(state)
	return m, err == nil
}

// snapToScale moves an out-of-scale pitch to the nearest scale tone, trying -1, +1, -2, +2.
func snapToScale(midi int, key theory.Key) int {
	if key.Contains(midi) {
		return midi
	}
	for _, delta := range []int{-1, 1, -2, 2} {
		if key.Contains(midi + delta) {
			return midi + delta
		}
	}
	return midi
}

func clampMIDI(midi int) int {
	if midi < 0 {
		return 0
	}
	if midi > 127 {
		return 127
	}
	return midi
}
