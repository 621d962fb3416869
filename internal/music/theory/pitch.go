package theory

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultOctave is used when a pitch string omits its octave (C = C4).
	DefaultOctave = 4

	semitonesPerOctave = 12
	minMIDI            = 0
	maxMIDI            = 127
)

// letterOffsets maps natural note letters to semitone offsets from C.
var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var sharpNames = [semitonesPerOctave]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// Pitch is a spelled pitch: letter, accidental and octave.
type Pitch struct {
	Letter     string `json:"letter"`
	Accidental string `json:"accidental,omitempty"` // "", "#" or "b"
	Octave     int    `json:"octave"`
}

// String returns the pitch in "C#4" form.
func (p Pitch) String() string {
	return fmt.Sprintf("%s%s%d", p.Letter, p.Accidental, p.Octave)
}

// PitchClass returns the pitch class (0-11) of the spelled pitch.
func (p Pitch) PitchClass() int {
	pc, _ := PitchClassOf(p.Letter + p.Accidental)
	return pc
}

// MIDI returns the MIDI note number, where C4 = 60 and C-1 = 0.
func (p Pitch) MIDI() int {
	offset := letterOffsets[p.Letter[0]] + accidentalOffset(p.Accidental)
	return (p.Octave+1)*semitonesPerOctave + offset
}

// PitchClassOf returns the pitch class of a note name without octave ("C#", "Bb", "e").
func PitchClassOf(name string) (int, error) {
	name = normalizeAccidentals(strings.TrimSpace(name))
	if name == "" {
		return 0, fmt.Errorf("empty note name")
	}
	letter := strings.ToUpper(name[:1])[0]
	offset, ok := letterOffsets[letter]
	if !ok {
		return 0, fmt.Errorf("invalid note letter: %q", name[:1])
	}
	rest := name[1:]
	switch rest {
	case "":
	case "#", "b":
		offset += accidentalOffset(rest)
	default:
		return 0, fmt.Errorf("invalid accidental in note name %q", name)
	}
	return mod12(offset), nil
}

// ParsePitch parses "C4", "F#3", "Bb-1" or "E" (octave defaults to 4).
func ParsePitch(s string) (Pitch, error) {
	s = normalizeAccidentals(strings.TrimSpace(s))
	if s == "" {
		return Pitch{}, fmt.Errorf("empty pitch")
	}

	letter := strings.ToUpper(s[:1])
	if _, ok := letterOffsets[letter[0]]; !ok {
		return Pitch{}, fmt.Errorf("invalid note letter in pitch %q", s)
	}

	idx := 1
	accidental := ""
	if idx < len(s) && (s[idx] == '#' || s[idx] == 'b') {
		accidental = string(s[idx])
		idx++
	}

	octave := DefaultOctave
	if idx < len(s) {
		o, err := strconv.Atoi(s[idx:])
		if err != nil {
			return Pitch{}, fmt.Errorf("invalid octave in pitch %q: %w", s, err)
		}
		octave = o
	}

	return Pitch{Letter: letter, Accidental: accidental, Octave: octave}, nil
}

// PitchToMIDI converts a pitch string to a MIDI note number (C4 = 60).
func PitchToMIDI(s string) (int, error) {
	p, err := ParsePitch(s)
	if err != nil {
		return 0, err
	}
	midi := p.MIDI()
	if midi < minMIDI || midi > maxMIDI {
		return 0, fmt.Errorf("pitch %q out of MIDI range (%d)", s, midi)
	}
	return midi, nil
}

// ClampMIDI moves a note by whole octaves into the MIDI range, keeping its pitch class.
func ClampMIDI(midi int) int {
	for midi > maxMIDI {
		midi -= semitonesPerOctave
	}
	for midi < minMIDI {
		midi += semitonesPerOctave
	}
	return midi
}

// MIDIToPitch converts a MIDI note number to a sharp-spelled pitch string.
func MIDIToPitch(midi int) string {
	octave := floorDiv(midi, semitonesPerOctave) - 1
	return fmt.Sprintf("%s%d", sharpNames[mod12(midi)], octave)
}

// PitchClassName returns the sharp spelling of a pitch class.
func PitchClassName(pc int) string {
	return sharpNames[mod12(pc)]
}

// MIDIToFrequency converts a MIDI note number to Hz (A4 = 440).
func MIDIToFrequency(midi float64) float64 {
	return 440.0 * pow2((midi-69)/semitonesPerOctave)
}

func accidentalOffset(acc string) int {
	switch acc {
	case "#":
		return 1
	case "b":
		return -1
	}
	return 0
}

// normalizeAccidentals maps the Unicode sharp/flat signs onto '#' and 'b'.
func normalizeAccidentals(s string) string {
	return strings.NewReplacer("♯", "#", "♭", "b").Replace(s)
}

func mod12(n int) int {
	return ((n % semitonesPerOctave) + semitonesPerOctave) % semitonesPerOctave
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
