package voicelead

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

const (
	MinVoices = 2
	MaxVoices = 6

	// BeamWidth is the number of partial sequences kept per chord.
	BeamWidth = 50
	// MaxCandidates caps the voicings enumerated per chord.
	MaxCandidates = 1000
)

// Style selects a preset constraint set.
type Style string

const (
	StyleBach   Style = "bach"
	StyleJazz   Style = "jazz"
	StylePop    Style = "pop"
	StyleCustom Style = "custom"
)

// Constraint names a voice-leading rule.
type Constraint string

const (
	NoParallelFifths    Constraint = "no_parallel_fifths"
	NoParallelOctaves   Constraint = "no_parallel_octaves"
	ResolveLeadingTones Constraint = "resolve_leading_tones"
	ResolveSevenths     Constraint = "resolve_sevenths"
	SmoothMotion        Constraint = "smooth_motion"
	ContraryOuterMotion Constraint = "contrary_outer_motion"
	NoVoiceCrossing     Constraint = "no_voice_crossing"
)

// styleConstraints are the rules each style switches on.
var styleConstraints = map[Style][]Constraint{
	StyleBach: {
		NoParallelFifths,
		NoParallelOctaves,
		ResolveLeadingTones,
		ResolveSevenths,
		SmoothMotion,
		ContraryOuterMotion,
		NoVoiceCrossing,
	},
	StyleJazz:   {SmoothMotion, NoVoiceCrossing},
	StylePop:    {SmoothMotion},
	StyleCustom: {},
}

var knownConstraints = map[Constraint]bool{
	NoParallelFifths:    true,
	NoParallelOctaves:   true,
	ResolveLeadingTones: true,
	ResolveSevenths:     true,
	SmoothMotion:        true,
	ContraryOuterMotion: true,
	NoVoiceCrossing:     true,
}

// defaultRanges are MIDI ranges per voice, bass first, indexed by voice count.
var defaultRanges = map[int][]Range{
	2: {{40, 62}, {60, 81}},
	3: {{40, 62}, {52, 72}, {60, 81}},
	4: {{40, 60}, {48, 67}, {55, 74}, {60, 81}},
	5: {{40, 60}, {48, 67}, {53, 72}, {57, 76}, {62, 81}},
	6: {{36, 55}, {43, 62}, {48, 67}, {55, 72}, {57, 76}, {62, 81}},
}

// Range is an inclusive MIDI range for one voice.
type Range struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Contains reports whether midi lies in the range.
func (r Range) Contains(midi int) bool {
	return midi >= r.Low && midi <= r.High
}

// Config describes a voice-leading problem.
type Config struct {
	Progression []string     `json:"progression"`
	Voices      int          `json:"voices"`
	Style       Style        `json:"style,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty"`
	Ranges      []Range      `json:"ranges,omitempty"`
}

// Voicing assigns one pitch per voice to a chord, bass first.
type Voicing struct {
	Chord   string   `json:"chord"`
	Notes   []int    `json:"notes"`
	Pitches []string `json:"pitches"`
}

func newVoicing(chord string, notes []int) Voicing {
	pitches := make([]string, len(notes))
	for i, n := range notes {
		pitches[i] = theory.MIDIToPitch(n)
	}
	return Voicing{Chord: chord, Notes: notes, Pitches: pitches}
}

// NoVoicingError means a chord has no voicing within the configured ranges.
type NoVoicingError struct {
	Chord    string
	Position int
}

func (e *NoVoicingError) Error() string {
	return fmt.Sprintf("no voicing for chord %q at position %d", e.Chord, e.Position)
}

// rules is the resolved constraint set for one solve.
type rules map[Constraint]bool

// resolveRules unions the style preset with caller constraints.
func resolveRules(style Style, extra []Constraint) (rules, error) {
	if style == "" {
		style = StyleCustom
	}
	preset, ok := styleConstraints[style]
	if !ok {
		return nil, fmt.Errorf("unknown style %q", style)
	}
	r := make(rules, len(preset)+len(extra))
	for _, c := range preset {
		r[c] = true
	}
	for _, c := range extra {
		if !knownConstraints[c] {
			return nil, fmt.Errorf("unknown constraint %q", c)
		}
		r[c] = true
	}
	return r, nil
}

// list returns the active constraints in a stable order.
func (r rules) list() []Constraint {
	out := make([]Constraint, 0, len(r))
	for _, c := range styleConstraints[StyleBach] {
		if r[c] {
			out = append(out, c)
		}
	}
	return out
}

func (c Config) validate() error {
	if len(c.Progression) == 0 {
		return fmt.Errorf("progression is empty")
	}
	if c.Voices < MinVoices || c.Voices > MaxVoices {
		return fmt.Errorf("voices must be between %d and %d, got %d", MinVoices, MaxVoices, c.Voices)
	}
	if len(c.Ranges) > 0 {
		if len(c.Ranges) != c.Voices {
			return fmt.Errorf("expected %d ranges, got %d", c.Voices, len(c.Ranges))
		}
		for i, r := range c.Ranges {
			if r.Low > r.High || r.Low < 0 || r.High > 127 {
				return fmt.Errorf("invalid range for voice %d: %d-%d", i, r.Low, r.High)
			}
		}
	}
	return nil
}

func (c Config) ranges() []Range {
	if len(c.Ranges) > 0 {
		return c.Ranges
	}
	return defaultRanges[c.Voices]
}
