package theory

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Scale modes
const (
	ModeMajor           = "major"
	ModeMinor           = "minor"
	ModeDorian          = "dorian"
	ModePhrygian        = "phrygian"
	ModeLydian          = "lydian"
	ModeMixolydian      = "mixolydian"
	ModeLocrian         = "locrian"
	ModeHarmonicMinor   = "harmonic_minor"
	ModeMelodicMinor    = "melodic_minor"
	ModeMajorPentatonic = "major_pentatonic"
	ModeMinorPentatonic = "minor_pentatonic"
	ModeBlues           = "blues"
	ModeChromatic       = "chromatic"
)

// scaleIntervals holds semitone offsets from the tonic for each mode.
var scaleIntervals = map[string][]int{
	ModeMajor:           {0, 2, 4, 5, 7, 9, 11},
	ModeMinor:           {0, 2, 3, 5, 7, 8, 10},
	ModeDorian:          {0, 2, 3, 5, 7, 9, 10},
	ModePhrygian:        {0, 1, 3, 5, 7, 8, 10},
	ModeLydian:          {0, 2, 4, 6, 7, 9, 11},
	ModeMixolydian:      {0, 2, 4, 5, 7, 9, 10},
	ModeLocrian:         {0, 1, 3, 5, 6, 8, 10},
	ModeHarmonicMinor:   {0, 2, 3, 5, 7, 8, 11},
	ModeMelodicMinor:    {0, 2, 3, 5, 7, 9, 11},
	ModeMajorPentatonic: {0, 2, 4, 7, 9},
	ModeMinorPentatonic: {0, 3, 5, 7, 10},
	ModeBlues:           {0, 3, 5, 6, 7, 10},
	ModeChromatic:       {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

// modeAliases maps free-text mode names onto canonical modes.
var modeAliases = map[string]string{
	"":                 ModeMajor,
	"maj":              ModeMajor,
	"major":            ModeMajor,
	"ionian":           ModeMajor,
	"m":                ModeMinor,
	"min":              ModeMinor,
	"minor":            ModeMinor,
	"aeolian":          ModeMinor,
	"natural minor":    ModeMinor,
	"dorian":           ModeDorian,
	"phrygian":         ModePhrygian,
	"lydian":           ModeLydian,
	"mixolydian":       ModeMixolydian,
	"locrian":          ModeLocrian,
	"harmonic minor":   ModeHarmonicMinor,
	"harmonic_minor":   ModeHarmonicMinor,
	"melodic minor":    ModeMelodicMinor,
	"melodic_minor":    ModeMelodicMinor,
	"major pentatonic": ModeMajorPentatonic,
	"major_pentatonic": ModeMajorPentatonic,
	"pentatonic":       ModeMajorPentatonic,
	"minor pentatonic": ModeMinorPentatonic,
	"minor_pentatonic": ModeMinorPentatonic,
	"blues":            ModeBlues,
	"chromatic":        ModeChromatic,
}

// fold case-folds free text. A Caser is stateful, so each call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ScaleIntervals returns the semitone offsets of a mode. Unknown modes fall back to major.
func ScaleIntervals(mode string) []int {
	if canonical, ok := modeAliases[fold(strings.TrimSpace(mode))]; ok {
		mode = canonical
	}
	intervals, ok := scaleIntervals[mode]
	if !ok {
		intervals = scaleIntervals[ModeMajor]
	}
	out := make([]int, len(intervals))
	copy(out, intervals)
	return out
}

// Key is a tonic pitch class plus mode.
type Key struct {
	Root   string `json:"root"`
	RootPC int    `json:"root_pc"`
	Mode   string `json:"mode"`
}

// String renders the key as "A minor".
func (k Key) String() string {
	return k.Root + " " + k.Mode
}

// Intervals returns the scale intervals of the key's mode.
func (k Key) Intervals() []int {
	return ScaleIntervals(k.Mode)
}

// Contains reports whether a MIDI note belongs to the key's scale.
func (k Key) Contains(midi int) bool {
	pc := mod12(midi - k.RootPC)
	for _, iv := range k.Intervals() {
		if iv == pc {
			return true
		}
	}
	return false
}

// CMajor is the ambient key used when none is supplied.
var CMajor = Key{Root: "C", RootPC: 0, Mode: ModeMajor}

// ParseKey parses free-text keys: "C major", "A minor", "F# dorian", "Bbm", "Am", "eb".
func ParseKey(s string) (Key, error) {
	s = normalizeAccidentals(strings.TrimSpace(s))
	if s == "" {
		return Key{}, fmt.Errorf("empty key")
	}

	letter := strings.ToUpper(s[:1])
	if _, ok := letterOffsets[letter[0]]; !ok {
		return Key{}, fmt.Errorf("invalid key root in %q", s)
	}
	root := letter
	rest := s[1:]
	if len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		// "bb" would be B-flat; a lone "b" after the root is a flat, never a mode.
		root += string(rest[0])
		rest = rest[1:]
	}

	modeText := fold(strings.Join(strings.Fields(strings.ReplaceAll(rest, "-", " ")), " "))
	mode, ok := modeAliases[modeText]
	if !ok {
		return Key{}, fmt.Errorf("unknown mode %q in key %q", strings.TrimSpace(rest), s)
	}

	pc, err := PitchClassOf(root)
	if err != nil {
		return Key{}, err
	}
	return Key{Root: root, RootPC: pc, Mode: mode}, nil
}

func pow2(x float64) float64 {
	return math.Pow(2, x)
}

// DegreeToMIDI resolves a scale-degree token ("1", "b3", "#4", "9") in a key at an octave.
// Degrees past the scale length wrap into higher octaves.
func DegreeToMIDI(k Key, token string, octave int) (int, error) {
	token = normalizeAccidentals(strings.TrimSpace(token))
	if token == "" {
		return 0, fmt.Errorf("empty scale degree")
	}
	shift := 0
	switch token[0] {
	case '#':
		shift, token = 1, token[1:]
	case 'b':
		shift, token = -1, token[1:]
	}
	degree, err := strconv.Atoi(token)
	if err != nil || degree < 1 {
		return 0, fmt.Errorf("invalid scale degree %q", token)
	}

	intervals := k.Intervals()
	size := len(intervals)
	index := (degree - 1) % size
	octaves := (degree - 1) / size

	tonic := (octave+1)*semitonesPerOctave + k.RootPC
	return tonic + intervals[index] + semitonesPerOctave*octaves + shift, nil
}
