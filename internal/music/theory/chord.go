package theory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Chord is a resolved chord symbol.
type Chord struct {
	Symbol    string `json:"symbol"`
	Root      string `json:"root"`
	RootPC    int    `json:"root_pc"`
	Quality   string `json:"quality"`
	Bass      string `json:"bass,omitempty"`
	BassPC    int    `json:"bass_pc,omitempty"`
	Octave    int    `json:"octave"`
	Intervals []int  `json:"intervals"`
	// Notes are MIDI numbers, ascending chord tones with the slash bass (if any) prepended.
	Notes []int `json:"notes"`
}

// HasBass reports whether the chord carries a slash bass.
func (c Chord) HasBass() bool {
	return c.Bass != ""
}

// PitchClasses returns the distinct chord-tone pitch classes in interval order, excluding the slash bass.
func (c Chord) PitchClasses() []int {
	seen := make(map[int]bool, len(c.Intervals))
	pcs := make([]int, 0, len(c.Intervals))
	for _, iv := range c.Intervals {
		pc := mod12(c.RootPC + iv)
		if seen[pc] {
			continue
		}
		seen[pc] = true
		pcs = append(pcs, pc)
	}
	return pcs
}

// chordQualities holds semitone intervals above the root for known chord qualities.
var chordQualities = map[string][]int{
	"":      {0, 4, 7},
	"maj":   {0, 4, 7},
	"M":     {0, 4, 7},
	"m":     {0, 3, 7},
	"min":   {0, 3, 7},
	"-":     {0, 3, 7},
	"dim":   {0, 3, 6},
	"aug":   {0, 4, 8},
	"+":     {0, 4, 8},
	"sus":   {0, 5, 7},
	"sus2":  {0, 2, 7},
	"sus4":  {0, 5, 7},
	"5":     {0, 7},
	"6":     {0, 4, 7, 9},
	"m6":    {0, 3, 7, 9},
	"7":     {0, 4, 7, 10},
	"maj7":  {0, 4, 7, 11},
	"M7":    {0, 4, 7, 11},
	"m7":    {0, 3, 7, 10},
	"min7":  {0, 3, 7, 10},
	"-7":    {0, 3, 7, 10},
	"mMaj7": {0, 3, 7, 11},
	"dim7":  {0, 3, 6, 9},
	"m7b5":  {0, 3, 6, 10},
	"ø":     {0, 3, 6, 10},
	"ø7":    {0, 3, 6, 10},
	"7sus4": {0, 5, 7, 10},
	"aug7":  {0, 4, 8, 10},
	"add9":  {0, 4, 7, 14},
	"madd9": {0, 3, 7, 14},
	"9":     {0, 4, 7, 10, 14},
	"maj9":  {0, 4, 7, 11, 14},
	"m9":    {0, 3, 7, 10, 14},
	"11":    {0, 4, 7, 10, 14, 17},
	"m11":   {0, 3, 7, 10, 14, 17},
	"13":    {0, 4, 7, 10, 14, 21},
	"maj13": {0, 4, 7, 11, 14, 21},
	"m13":   {0, 3, 7, 10, 14, 21},
}

// qualityModes maps chord qualities onto the scale mode that fits over them.
var qualityModes = map[string]string{
	"m":     ModeMinor,
	"min":   ModeMinor,
	"-":     ModeMinor,
	"m6":    ModeMinor,
	"mMaj7": ModeMinor,
	"madd9": ModeMinor,
	"m7":    ModeDorian,
	"min7":  ModeDorian,
	"-7":    ModeDorian,
	"m9":    ModeDorian,
	"m11":   ModeDorian,
	"m13":   ModeDorian,
	"7":     ModeMixolydian,
	"9":     ModeMixolydian,
	"11":    ModeMixolydian,
	"13":    ModeMixolydian,
	"7sus4": ModeMixolydian,
	"aug7":  ModeMixolydian,
	"dim":   ModeLocrian,
	"dim7":  ModeLocrian,
	"m7b5":  ModeLocrian,
	"ø":     ModeLocrian,
	"ø7":    ModeLocrian,
}

// alterationDegrees maps extension degrees onto semitones above the root.
var alterationDegrees = map[int]int{
	5:  7,
	9:  14,
	11: 17,
	13: 21,
}

type alteration struct {
	semitone int
	delta    int
}

// ResolveChord resolves a chord symbol such as "Am7", "G7b9", "C/E" or "F#m7b5" at the given octave.
func ResolveChord(symbol string, octave int) (Chord, error) {
	normalized := normalizeAccidentals(strings.TrimSpace(symbol))
	if normalized == "" {
		return Chord{}, fmt.Errorf("empty chord symbol")
	}

	body, bass := normalized, ""
	if slash := strings.LastIndex(normalized, "/"); slash >= 0 {
		body, bass = normalized[:slash], normalized[slash+1:]
		if bass == "" {
			return Chord{}, fmt.Errorf("chord %q has an empty slash bass", symbol)
		}
	}

	root, quality, err := splitRoot(body)
	if err != nil {
		return Chord{}, fmt.Errorf("chord %q: %w", symbol, err)
	}
	rootPC, _ := PitchClassOf(root)

	intervals, _, err := resolveQuality(quality)
	if err != nil {
		return Chord{}, fmt.Errorf("chord %q: %w", symbol, err)
	}

	chord := Chord{
		Symbol:    strings.TrimSpace(symbol),
		Root:      root,
		RootPC:    rootPC,
		Quality:   quality,
		Octave:    octave,
		Intervals: intervals,
	}

	baseMIDI := (octave+1)*semitonesPerOctave + rootPC
	notes := make([]int, 0, len(intervals)+1)
	if bass != "" {
		bassPC, err := PitchClassOf(bass)
		if err != nil {
			return Chord{}, fmt.Errorf("chord %q: invalid slash bass: %w", symbol, err)
		}
		chord.Bass = strings.ToUpper(bass[:1]) + bass[1:]
		chord.BassPC = bassPC
		// one octave below the chord's base octave; no dedup against chord tones
		notes = append(notes, octave*semitonesPerOctave+bassPC)
	}
	for _, iv := range intervals {
		notes = append(notes, baseMIDI+iv)
	}
	chord.Notes = notes
	return chord, nil
}

// ChordScale derives the (root, mode) that fits over a chord symbol.
func ChordScale(symbol string) (Key, error) {
	chord, err := ResolveChord(symbol, DefaultOctave)
	if err != nil {
		return Key{}, err
	}
	_, base, _ := resolveQuality(chord.Quality)
	mode, ok := qualityModes[base]
	if !ok {
		mode = ModeMajor
	}
	return Key{Root: chord.Root, RootPC: chord.RootPC, Mode: mode}, nil
}

func splitRoot(body string) (root, quality string, err error) {
	if body == "" {
		return "", "", fmt.Errorf("missing root")
	}
	letter := strings.ToUpper(body[:1])
	if _, ok := letterOffsets[letter[0]]; !ok {
		return "", "", fmt.Errorf("invalid root %q", body[:1])
	}
	root = letter
	rest := body[1:]
	if len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		root += string(rest[0])
		rest = rest[1:]
	}
	return root, rest, nil
}

// resolveQuality returns the sorted intervals for a quality and the known base quality it was built on.
func resolveQuality(quality string) ([]int, string, error) {
	if intervals, ok := chordQualities[quality]; ok {
		out := make([]int, len(intervals))
		copy(out, intervals)
		return out, quality, nil
	}

	// Longest known prefix whose remainder is a run of alterations.
	for cut := len(quality); cut >= 0; cut-- {
		base, ok := chordQualities[quality[:cut]]
		if !ok {
			continue
		}
		alts, err := parseAlterations(quality[cut:])
		if err != nil {
			continue
		}
		intervals := make([]int, len(base))
		copy(intervals, base)
		for _, alt := range alts {
			intervals = applyAlteration(intervals, alt)
		}
		sort.Ints(intervals)
		return intervals, quality[:cut], nil
	}
	return nil, "", fmt.Errorf("unknown chord quality %q", quality)
}

func parseAlterations(s string) ([]alteration, error) {
	var alts []alteration
	i := 0
	for i < len(s) {
		var delta int
		switch s[i] {
		case '#', '+':
			delta = 1
		case 'b', '-':
			delta = -1
		default:
			return nil, fmt.Errorf("expected alteration sign at %q", s[i:])
		}
		i++
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if start == i {
			return nil, fmt.Errorf("missing alteration degree at %q", s[start-1:])
		}
		degree, _ := strconv.Atoi(s[start:i])
		semitone, ok := alterationDegrees[degree]
		if !ok {
			return nil, fmt.Errorf("unsupported alteration degree %d", degree)
		}
		alts = append(alts, alteration{semitone: semitone, delta: delta})
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("no alterations")
	}
	return alts, nil
}

func applyAlteration(intervals []int, alt alteration) []int {
	for i, iv := range intervals {
		if iv == alt.semitone {
			intervals[i] = iv + alt.delta
			return intervals
		}
	}
	return append(intervals, alt.semitone+alt.delta)
}
