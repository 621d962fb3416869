package notation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

const (
	// DefaultChordOctave is the base octave for pattern chords.
	DefaultChordOctave = 4

	minTuplet = 2
	maxTuplet = 9
	minBend   = 1
	maxBend   = 12
)

// durationCodes maps duration codes onto beats (quarter note = 1).
var durationCodes = map[string]float64{
	"w":  4,
	"h":  2,
	"q":  1,
	"8":  0.5,
	"16": 0.25,
	"32": 0.125,
	"2":  2,
	"4":  1,
}

// fold lower-cases dynamic names. A Caser is stateful, so each call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// TupletScale returns the duration multiplier for an N-tuplet.
func TupletScale(n int) float64 {
	if n%2 == 1 {
		return float64((n+1)/2) / float64(n)
	}
	return float64(n/2) / float64(n)
}

// DurationBeats computes base(code) x 1.5 (dotted) x TupletScale(tuplet). A zero tuplet means none.
func DurationBeats(code string, dotted bool, tuplet int) (float64, error) {
	base, ok := durationCodes[code]
	if !ok {
		return 0, fmt.Errorf("unknown duration code %q", code)
	}
	if dotted {
		base *= 1.5
	}
	if tuplet != 0 {
		if tuplet < minTuplet || tuplet > maxTuplet {
			return 0, fmt.Errorf("tuplet %d out of range %d-%d", tuplet, minTuplet, maxTuplet)
		}
		base *= TupletScale(tuplet)
	}
	return base, nil
}

// cursor walks a single token. Rules advance pos only on a match.
type cursor struct {
	input string // original token, reported in errors
	text  string // token with Unicode accidentals normalized
	pos   int
}

func newCursor(token string) *cursor {
	return &cursor{
		input: token,
		text:  strings.NewReplacer("♯", "#", "♭", "b").Replace(token),
	}
}

func (c *cursor) done() bool {
	return c.pos >= len(c.text)
}

func (c *cursor) rest() string {
	return c.text[c.pos:]
}

func (c *cursor) peek() byte {
	return c.peekAt(0)
}

func (c *cursor) peekAt(offset int) byte {
	if c.pos+offset >= len(c.text) {
		return 0
	}
	return c.text[c.pos+offset]
}

func (c *cursor) consume(prefix string) bool {
	if strings.HasPrefix(c.rest(), prefix) {
		c.pos += len(prefix)
		return true
	}
	return false
}

func (c *cursor) fail(expected string) *ParseError {
	return &ParseError{Input: c.input, Fragment: c.rest(), Expected: expected}
}

func (c *cursor) failFrom(start int, expected string) *ParseError {
	return &ParseError{Input: c.input, Fragment: c.text[start:c.pos], Expected: expected}
}

// number reads an unsigned decimal ("0.8", "12", ".5").
func (c *cursor) number() (float64, bool) {
	start := c.pos
	digits, dots := 0, 0
	for !c.done() {
		ch := c.peek()
		if isDigit(ch) {
			digits++
		} else if ch == '.' && dots == 0 && isDigit(c.peekAt(1)) {
			dots++
		} else {
			break
		}
		c.pos++
	}
	if digits == 0 {
		c.pos = start
		return 0, false
	}
	v, err := strconv.ParseFloat(c.text[start:c.pos], 64)
	if err != nil {
		c.pos = start
		return 0, false
	}
	return v, true
}

func (c *cursor) integer() (int, bool) {
	start := c.pos
	for !c.done() && isDigit(c.peek()) {
		c.pos++
	}
	if start == c.pos {
		return 0, false
	}
	n, err := strconv.Atoi(c.text[start:c.pos])
	return n, err == nil
}

func (c *cursor) letters() string {
	start := c.pos
	for !c.done() && isLetter(c.peek()) {
		c.pos++
	}
	return c.text[start:c.pos]
}

// duration is the shared code [dot] [tuplet] section of notes, rests and chords.
type duration struct {
	beats  float64
	dotted bool
	tuplet int
}

func readDuration(c *cursor, allowTuplet bool) (duration, error) {
	var d duration

	start := c.pos
	var code string
	switch ch := c.peek(); {
	case ch == 'w' || ch == 'h' || ch == 'q':
		code = string(ch)
		c.pos++
	case isDigit(ch):
		for !c.done() && isDigit(c.peek()) {
			c.pos++
		}
		code = c.text[start:c.pos]
	}
	base, ok := durationCodes[code]
	if !ok {
		return d, c.failFrom(start, "duration code (w, h, q, 8, 16, 32, 2, 4)")
	}
	d.beats = base

	// A dot is a dotted-duration marker unless a letter follows, which starts a suffix.
	// "t" plus a digit is still a tuplet after the dot.
	if c.peek() == '.' {
		next := c.peekAt(1)
		if !isLetter(next) || (next == 't' && isDigit(c.peekAt(2))) {
			c.pos++
			d.dotted = true
			d.beats *= 1.5
		}
	}

	if allowTuplet && c.peek() == 't' && isDigit(c.peekAt(1)) {
		tupletStart := c.pos
		c.pos++
		n, _ := c.integer()
		if n < minTuplet || n > maxTuplet {
			return d, c.failFrom(tupletStart, fmt.Sprintf("tuplet t%d-t%d", minTuplet, maxTuplet))
		}
		d.tuplet = n
		d.beats *= TupletScale(n)
	}
	return d, nil
}

// noteRule is one ordered step of the note grammar.
type noteRule func(c *cursor, n *ParsedNote) error

var noteRules = []noteRule{
	notePitch,
	noteSeparator,
	noteDuration,
	noteArticulation,
	noteJazz,
	noteOrnament,
	noteVelocity,
	noteOffset,
	noteProbability,
	notePortamento,
}

func notePitch(c *cursor, n *ParsedNote) error {
	start := c.pos
	ch := c.peek()
	if ch == 0 || !strings.ContainsRune("ABCDEFGabcdefg", rune(ch)) {
		return c.fail("pitch letter A-G")
	}
	c.pos++
	pitch := theory.Pitch{Letter: strings.ToUpper(string(ch)), Octave: theory.DefaultOctave}

	if acc := c.peek(); acc == '#' || acc == 'b' {
		pitch.Accidental = string(acc)
		c.pos++
	}

	sign := 1
	if c.peek() == '-' && isDigit(c.peekAt(1)) {
		sign = -1
		c.pos++
	}
	if isDigit(c.peek()) {
		pitch.Octave = sign * int(c.peek()-'0')
		c.pos++
	}

	n.Pitch = pitch
	n.MIDI = pitch.MIDI()
	if n.MIDI < 0 || n.MIDI > 127 {
		return c.failFrom(start, "pitch within MIDI range C-1..G9")
	}
	return nil
}

func noteSeparator(c *cursor, _ *ParsedNote) error {
	if !c.consume(":") {
		return c.fail("':' before duration")
	}
	return nil
}

func noteDuration(c *cursor, n *ParsedNote) error {
	d, err := readDuration(c, true)
	if err != nil {
		return err
	}
	n.DurationBeats = d.beats
	n.Dotted = d.dotted
	n.Tuplet = d.tuplet
	return nil
}

// articulationMarkers are matched in order; "~>" must precede "~".
var articulationMarkers = []struct {
	marker       string
	articulation Articulation
	portamento   bool
}{
	{"~>", ArticulationNone, true},
	{"~", ArticulationLegato, false},
	{"*", ArticulationStaccato, false},
	{">", ArticulationAccent, false},
	{"^", ArticulationMarcato, false},
}

func readArticulation(c *cursor) (Articulation, bool) {
	for _, m := range articulationMarkers {
		if c.consume(m.marker) {
			return m.articulation, m.portamento
		}
	}
	return ArticulationNone, false
}

func noteArticulation(c *cursor, n *ParsedNote) error {
	n.Articulation, n.Portamento = readArticulation(c)
	return nil
}

func noteJazz(c *cursor, n *ParsedNote) error {
	for _, kind := range []string{JazzFall, JazzDoit, JazzScoop} {
		if c.consume("." + kind) {
			n.Jazz = &JazzArticulation{Kind: kind}
			return nil
		}
	}

	start := c.pos
	if !c.consume(".bend") {
		return nil
	}
	if !c.consume("+") {
		return c.fail("bend amount '+N' (1-12)")
	}
	semitones, ok := c.integer()
	if !ok || semitones < minBend || semitones > maxBend {
		return c.failFrom(start, fmt.Sprintf(".bend+N with N in %d-%d", minBend, maxBend))
	}
	n.Jazz = &JazzArticulation{Kind: JazzBend, Semitones: semitones}
	return nil
}

func noteOrnament(c *cursor, n *ParsedNote) error {
	switch {
	case c.consume(".turn"):
		n.Ornament = OrnamentTurn
	case c.consume(".tr"):
		n.Ornament = OrnamentTrill
	case c.consume(".mord"):
		n.Ornament = OrnamentMordent
	}
	return nil
}

func noteVelocity(c *cursor, n *ParsedNote) error {
	start := c.pos
	if !c.consume("@") {
		return nil
	}
	if v, ok := c.number(); ok {
		if v < 0 || v > 1 {
			return c.failFrom(start, "velocity between 0 and 1")
		}
		n.Velocity = &Velocity{Value: v}
		return nil
	}
	name := fold(c.letters())
	v, ok := Dynamics[name]
	if !ok {
		return c.failFrom(start, "velocity 0-1 or dynamic (ppp, pp, p, mp, mf, f, ff, fff)")
	}
	n.Velocity = &Velocity{Value: v, Dynamic: name}
	return nil
}

func noteOffset(c *cursor, n *ParsedNote) error {
	sign := 1.0
	switch c.peek() {
	case '+':
	case '-':
		sign = -1
	default:
		return nil
	}
	start := c.pos
	c.pos++
	v, ok := c.number()
	if !ok || !c.consume("ms") {
		return c.failFrom(start, "timing offset like +12ms or -5ms")
	}
	offset := sign * v
	n.OffsetMS = &offset
	return nil
}

func noteProbability(c *cursor, n *ParsedNote) error {
	start := c.pos
	if !c.consume("?") {
		return nil
	}
	v, ok := c.number()
	if !ok || v < 0 || v > 1 {
		return c.failFrom(start, "probability between 0 and 1")
	}
	n.Probability = &v
	return nil
}

func notePortamento(c *cursor, n *ParsedNote) error {
	if c.consume("~>") {
		n.Portamento = true
	}
	return nil
}

// ParseNote parses a single note token such as "C#4:8.t3>@mf+10ms?0.5".
func ParseNote(token string) (ParsedNote, error) {
	var note ParsedNote
	c := newCursor(strings.TrimSpace(token))
	for _, rule := range noteRules {
		if err := rule(c, &note); err != nil {
			return ParsedNote{}, err
		}
	}
	if !c.done() {
		return ParsedNote{}, c.fail("end of note")
	}
	return note, nil
}

// ParseRest parses "r:" + duration + optional dot.
func ParseRest(token string) (ParsedRest, error) {
	c := newCursor(strings.TrimSpace(token))
	if !c.consume("r:") && !c.consume("R:") {
		return ParsedRest{}, c.fail("rest 'r:' + duration")
	}
	d, err := readDuration(c, false)
	if err != nil {
		return ParsedRest{}, err
	}
	if !c.done() {
		return ParsedRest{}, c.fail("end of rest")
	}
	return ParsedRest{DurationBeats: d.beats, Dotted: d.dotted}, nil
}

// ParseChord parses a pattern chord token "[Am7/G]:h" with an optional articulation marker.
func ParseChord(token string, octave int) (ParsedChord, error) {
	c := newCursor(strings.TrimSpace(token))
	if !c.consume("[") {
		return ParsedChord{}, c.fail("'[' chord symbol ']'")
	}
	end := strings.IndexByte(c.rest(), ']')
	if end <= 0 {
		return ParsedChord{}, c.fail("chord symbol followed by ']'")
	}
	symbolStart := c.pos
	symbol := c.rest()[:end]
	c.pos += end + 1

	resolved, err := theory.ResolveChord(symbol, octave)
	if err != nil {
		return ParsedChord{}, &ParseError{
			Input:    c.input,
			Fragment: c.text[symbolStart : symbolStart+end],
			Expected: "known chord symbol (" + err.Error() + ")",
		}
	}

	if !c.consume(":") {
		return ParsedChord{}, c.fail("':' before duration")
	}
	d, err := readDuration(c, true)
	if err != nil {
		return ParsedChord{}, err
	}
	articulation, _ := readArticulation(c)
	if !c.done() {
		return ParsedChord{}, c.fail("end of chord")
	}

	return ParsedChord{
		Symbol:        symbol,
		Root:          resolved.Root,
		Quality:       resolved.Quality,
		Bass:          resolved.Bass,
		Octave:        octave,
		DurationBeats: d.beats,
		Dotted:        d.dotted,
		Tuplet:        d.tuplet,
		Notes:         resolved.Notes,
		Articulation:  articulation,
	}, nil
}

// ParseToken parses any single pattern token.
func ParseToken(token string) (Element, error) {
	token = strings.TrimSpace(token)
	switch {
	case strings.HasPrefix(token, "["):
		chord, err := ParseChord(token, DefaultChordOctave)
		if err != nil {
			return Element{}, err
		}
		return Element{Kind: KindChord, Token: token, Chord: &chord}, nil
	case strings.HasPrefix(token, "r:") || strings.HasPrefix(token, "R:"):
		rest, err := ParseRest(token)
		if err != nil {
			return Element{}, err
		}
		return Element{Kind: KindRest, Token: token, Rest: &rest}, nil
	default:
		note, err := ParseNote(token)
		if err != nil {
			return Element{}, err
		}
		return Element{Kind: KindNote, Token: token, Note: &note}, nil
	}
}

// Explode splits a compact pattern on whitespace and '|' bar separators.
func Explode(pattern string) []string {
	return strings.FieldsFunc(pattern, func(r rune) bool {
		return unicode.IsSpace(r) || r == '|'
	})
}

// ParsePattern parses a compact pattern. Any malformed token fails the whole pattern.
func ParsePattern(pattern string) ([]Element, error) {
	tokens := Explode(pattern)
	if len(tokens) == 0 {
		return nil, &ParseError{Input: pattern, Expected: "at least one note, rest or chord"}
	}
	elements := make([]Element, 0, len(tokens))
	for i, token := range tokens {
		el, err := ParseToken(token)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i+1, err)
		}
		elements = append(elements, el)
	}
	return elements, nil
}

// PatternBeats returns the total length of a compact pattern in beats.
func PatternBeats(pattern string) (float64, error) {
	elements, err := ParsePattern(pattern)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, el := range elements {
		total += el.Beats()
	}
	return total, nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
