package markov

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reserved state tokens
const (
	StateRest     = "rest"
	StateApproach = "approach"
)

const (
	// DefaultOctave is the octave scale degrees resolve in when none is configured.
	DefaultOctave = 4
	// DefaultDuration is the note length in beats when none is configured.
	DefaultDuration = 1.0
	// MaxSteps bounds a single chain.
	MaxSteps = 4096
)

// Transition is one weighted edge out of a state.
type Transition struct {
	Target      string  `json:"target"`
	Probability float64 `json:"probability"`
}

// Row holds a state's outgoing transitions in declared order.
type Row struct {
	State   string       `json:"state"`
	Targets []Transition `json:"targets"`
}

// Table is a transition table whose rows and targets keep their declared order.
// It decodes from {"1": {"2": 0.5, "3": 0.5}, ...}.
type Table []Row

// Targets returns the outgoing transitions of a state.
func (t Table) Targets(state string) ([]Transition, bool) {
	for _, row := range t {
		if row.State == state {
			return row.Targets, true
		}
	}
	return nil, false
}

// States returns the row states in declared order.
func (t Table) States() []string {
	states := make([]string, 0, len(t))
	for _, row := range t {
		states = append(states, row.State)
	}
	return states
}

// UnmarshalJSON decodes a JSON object while preserving key order.
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("transitions: %w", err)
	}
	var table Table
	for dec.More() {
		state, err := readKey(dec)
		if err != nil {
			return fmt.Errorf("transitions: %w", err)
		}
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("transitions[%q]: %w", state, err)
		}
		row := Row{State: state}
		for dec.More() {
			target, err := readKey(dec)
			if err != nil {
				return fmt.Errorf("transitions[%q]: %w", state, err)
			}
			tok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("transitions[%q][%q]: %w", state, target, err)
			}
			num, ok := tok.(json.Number)
			if !ok {
				return fmt.Errorf("transitions[%q][%q]: probability must be a number", state, target)
			}
			p, err := num.Float64()
			if err != nil {
				return fmt.Errorf("transitions[%q][%q]: %w", state, target, err)
			}
			row.Targets = append(row.Targets, Transition{Target: target, Probability: p})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return fmt.Errorf("transitions[%q]: %w", state, err)
		}
		table = append(table, row)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return fmt.Errorf("transitions: %w", err)
	}
	*t = table
	return nil
}

// MarshalJSON encodes the table as a JSON object in declared order.
func (t Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, row := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(row.State)
		buf.Write(key)
		buf.WriteString(":{")
		for j, tr := range row.Targets {
			if j > 0 {
				buf.WriteByte(',')
			}
			target, _ := json.Marshal(tr.Target)
			p, err := json.Marshal(tr.Probability)
			if err != nil {
				return nil, err
			}
			buf.Write(target)
			buf.WriteByte(':')
			buf.Write(p)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// Durations is a single duration or a list cycled round-robin, in beats.
// It decodes from either a number or an array of numbers.
type Durations []float64

// UnmarshalJSON accepts 0.5 or [1, 0.5, 0.5].
func (d *Durations) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*d = nil
		return nil
	}
	var single float64
	if err := json.Unmarshal(data, &single); err == nil {
		*d = Durations{single}
		return nil
	}
	var list []float64
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("duration must be a number or a list of numbers")
	}
	*d = list
	return nil
}

// CheckLimits reports a step count outside 1..MaxSteps or a non-positive duration.
func (c Config) CheckLimits() error {
	if c.Steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", c.Steps)
	}
	if c.Steps > MaxSteps {
		return fmt.Errorf("steps must be at most %d, got %d", MaxSteps, c.Steps)
	}
	for i, d := range c.Duration {
		if d <= 0 {
			return fmt.Errorf("duration[%d] must be positive, got %g", i, d)
		}
	}
	return nil
}

// At returns the duration for step i.
func (d Durations) At(i int) float64 {
	if len(d) == 0 {
		return DefaultDuration
	}
	return d[i%len(d)]
}

// Config describes a Markov-chain pattern.
type Config struct {
	States           []string  `json:"states,omitempty"`
	Transitions      Table     `json:"transitions,omitempty"`
	Preset           string    `json:"preset,omitempty"`
	InitialState     string    `json:"initial_state,omitempty"`
	Steps            int       `json:"steps"`
	Duration         Durations `json:"duration,omitempty"`
	Octave           *int      `json:"octave,omitempty"`
	Seed             *uint32   `json:"seed,omitempty"`
	ConstrainToScale bool      `json:"constrain_to_scale,omitempty"`
	ChordScale       string    `json:"chord_scale,omitempty"`
}

// octave returns the configured octave or the default.
func (c Config) octave() int {
	if c.Octave == nil {
		return DefaultOctave
	}
	return *c.Octave
}

// withPreset fills states and transitions from the named preset when the config leaves them empty.
func (c Config) withPreset() (Config, error) {
	if c.Preset == "" {
		return c, nil
	}
	preset, ok := Presets[c.Preset]
	if !ok {
		return c, fmt.Errorf("unknown preset %q", c.Preset)
	}
	if len(c.States) == 0 {
		c.States = append([]string(nil), preset.States...)
	}
	if len(c.Transitions) == 0 {
		c.Transitions = preset.Transitions
	}
	return c, nil
}

// declaredStates returns the state alphabet, falling back to the table's row order.
func (c Config) declaredStates() []string {
	if len(c.States) > 0 {
		return c.States
	}
	return c.Transitions.States()
}

// GeneratedNote is one step of a generated sequence. Pitch and MIDI are nil for rests.
type GeneratedNote struct {
	Pitch         *string `json:"pitch"`
	MIDI          *int    `json:"midi,omitempty"`
	State         string  `json:"state"`
	DurationBeats float64 `json:"duration_beats"`
	StartBeat     float64 `json:"start_beat"`
	Velocity      float64 `json:"velocity"`
}

// IsRest reports whether the step is silent.
func (n GeneratedNote) IsRest() bool {
	return n.Pitch == nil
}
