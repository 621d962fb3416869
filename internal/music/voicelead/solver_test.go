package voicelead

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

func assertNoParallels(t *testing.T, voicings []Voicing) {
	t.Helper()
	for c := 1; c < len(voicings); c++ {
		prev, next := voicings[c-1].Notes, voicings[c].Notes
		for i := 0; i < len(prev); i++ {
			for j := i + 1; j < len(prev); j++ {
				if !sameDirection(prev[i], next[i], prev[j], next[j]) {
					continue
				}
				before, after := mod12(prev[j]-prev[i]), mod12(next[j]-next[i])
				assert.False(t, before == 7 && after == 7,
					"parallel fifth between voices %d and %d at chord %d", i, j, c)
				assert.False(t, before == 0 && after == 0,
					"parallel octave between voices %d and %d at chord %d", i, j, c)
			}
		}
	}
}

func assertAscending(t *testing.T, voicings []Voicing) {
	t.Helper()
	for _, v := range voicings {
		for i := 0; i+1 < len(v.Notes); i++ {
			assert.Less(t, v.Notes[i], v.Notes[i+1], "voicing %s %v", v.Chord, v.Notes)
		}
	}
}

func TestSolve_BachAvoidsParallels(t *testing.T) {
	progressions := [][]string{
		{"C", "F", "G7", "C"},
		{"Am", "Dm", "E7", "Am"},
		{"C", "Am", "F", "G", "C"},
	}

	for _, progression := range progressions {
		t.Run(progression[1], func(t *testing.T) {
			result, err := Solve(Config{Progression: progression, Voices: 4, Style: StyleBach})
			require.NoError(t, err)
			require.Empty(t, result.Warnings)
			require.Len(t, result.Voicings, len(progression))

			assertNoParallels(t, result.Voicings)
			assertAscending(t, result.Voicings)
		})
	}
}

func TestSolve_VoiceCountsAndChordTones(t *testing.T) {
	progression := []string{"Dm7", "G7", "Cmaj7"}

	for voices := MinVoices; voices <= MaxVoices; voices++ {
		t.Run(string(rune('0'+voices)), func(t *testing.T) {
			result, err := Solve(Config{Progression: progression, Voices: voices, Style: StyleJazz})
			require.NoError(t, err)
			require.Len(t, result.Voicings, len(progression))

			assertAscending(t, result.Voicings)
			for i, v := range result.Voicings {
				require.Len(t, v.Notes, voices)
				require.Len(t, v.Pitches, voices)
				assert.Equal(t, progression[i], v.Chord)

				chord, err := theory.ResolveChord(v.Chord, 4)
				require.NoError(t, err)
				pcs := chord.PitchClasses()
				for _, n := range v.Notes {
					assert.Contains(t, pcs, n%12)
				}
				required := pcs[:min(3, voices, len(pcs))]
				assert.True(t, covers(v.Notes, required), "voicing %v misses required tones", v.Notes)
			}
		})
	}
}

func TestSolve_SlashBassInBass(t *testing.T) {
	result, err := Solve(Config{Progression: []string{"C/E", "F", "G/B", "C"}, Voices: 4, Style: StylePop})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Voicings[0].Notes[0]%12)
	assert.Equal(t, 11, result.Voicings[2].Notes[0]%12)
}

func TestSolve_NonChordToneBass(t *testing.T) {
	tests := []struct {
		name        string
		progression []string
		voices      int
		bassPC      int
		position    int
		upper       []int
	}{
		{"F over G", []string{"C", "F/G", "C"}, 3, 7, 1, []int{5, 9}},
		{"C over D, 3 voices", []string{"Am", "C/D"}, 3, 2, 1, []int{0, 4}},
		{"C over D, 2 voices", []string{"C/D"}, 2, 2, 0, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Solve(Config{Progression: tt.progression, Voices: tt.voices, Style: StylePop})
			require.NoError(t, err)
			require.Len(t, result.Voicings, len(tt.progression))

			notes := result.Voicings[tt.position].Notes
			require.Len(t, notes, tt.voices)
			assert.Equal(t, tt.bassPC, notes[0]%12)

			var upper []int
			for _, n := range notes[1:] {
				upper = append(upper, n%12)
			}
			for _, pc := range tt.upper {
				assert.Contains(t, upper, pc)
			}
		})
	}
}

func TestEnumerate_CapsCandidates(t *testing.T) {
	chord, err := theory.ResolveChord("C", chordOctave)
	require.NoError(t, err)

	ranges := make([]Range, 6)
	for i := range ranges {
		ranges[i] = Range{Low: 36, High: 96}
	}

	for _, noCrossing := range []bool{false, true} {
		candidates := enumerate(chord, ranges, noCrossing)
		assert.NotEmpty(t, candidates)
		assert.LessOrEqual(t, len(candidates), MaxCandidates)
		for _, c := range candidates {
			assert.Len(t, c, len(ranges))
		}
	}
}

func TestAdvance_KeepsBeamWidth(t *testing.T) {
	r, err := resolveRules(StylePop, nil)
	require.NoError(t, err)

	ranges := defaultRanges[4]
	info := func(symbol string) chordInfo {
		chord, err := theory.ResolveChord(symbol, chordOctave)
		require.NoError(t, err)
		return chordInfo{symbol: symbol, chord: chord, candidates: enumerate(chord, ranges, false)}
	}
	prev, next := info("C"), info("F")
	require.Greater(t, len(prev.candidates), BeamWidth)

	beam := make([]path, len(prev.candidates))
	for i := range prev.candidates {
		beam[i] = path{picks: []int{i}}
	}

	beam, warning := advance(beam, r, prev, next)
	assert.Empty(t, warning)
	require.Len(t, beam, BeamWidth)
	for i := 1; i < len(beam); i++ {
		assert.GreaterOrEqual(t, beam[i-1].score, beam[i].score)
		assert.Len(t, beam[i].picks, 2)
	}
}

func TestSolve_SmoothMotionPrefersCloseVoicing(t *testing.T) {
	result, err := Solve(Config{Progression: []string{"C", "C"}, Voices: 3, Style: StylePop})
	require.NoError(t, err)
	assert.Equal(t, result.Voicings[0].Notes, result.Voicings[1].Notes)
	assert.Equal(t, 0.0, result.Score)
}

func TestSolve_RelaxesWhenNothingIsAdmissible(t *testing.T) {
	cfg := Config{
		Progression: []string{"C5", "D5"},
		Voices:      2,
		Style:       StyleCustom,
		Constraints: []Constraint{NoParallelFifths},
		Ranges:      []Range{{48, 50}, {55, 57}},
	}

	result, err := Solve(cfg)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, []int{48, 55}, result.Voicings[0].Notes)
	assert.Equal(t, []int{50, 57}, result.Voicings[1].Notes)
	assert.Equal(t, -relaxedPenalty, result.Score)
}

func TestSolve_NoVoicing(t *testing.T) {
	cfg := Config{
		Progression: []string{"C", "F#"},
		Voices:      2,
		Ranges:      []Range{{48, 55}, {60, 67}},
	}

	_, err := Solve(cfg)
	require.Error(t, err)
	var nv *NoVoicingError
	require.True(t, errors.As(err, &nv))
	assert.Equal(t, "F#", nv.Chord)
	assert.Equal(t, 1, nv.Position)
}

func TestSolve_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty progression", Config{Voices: 4}},
		{"too few voices", Config{Progression: []string{"C"}, Voices: 1}},
		{"too many voices", Config{Progression: []string{"C"}, Voices: 7}},
		{"unknown style", Config{Progression: []string{"C"}, Voices: 4, Style: "baroque"}},
		{"unknown constraint", Config{Progression: []string{"C"}, Voices: 4, Constraints: []Constraint{"be_nice"}}},
		{"range count", Config{Progression: []string{"C"}, Voices: 3, Ranges: []Range{{40, 60}}}},
		{"inverted range", Config{Progression: []string{"C"}, Voices: 2, Ranges: []Range{{60, 40}, {60, 72}}}},
		{"bad chord", Config{Progression: []string{"C", "Hm"}, Voices: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(tt.cfg)
			require.Error(t, err)
			var nv *NoVoicingError
			assert.False(t, errors.As(err, &nv))
		})
	}
}

func TestResolveRules_UnionsStyleAndCaller(t *testing.T) {
	r, err := resolveRules(StylePop, []Constraint{NoVoiceCrossing})
	require.NoError(t, err)
	assert.Equal(t, []Constraint{SmoothMotion, NoVoiceCrossing}, r.list())

	r, err = resolveRules(StyleBach, []Constraint{SmoothMotion})
	require.NoError(t, err)
	assert.Len(t, r.list(), 7)

	r, err = resolveRules("", nil)
	require.NoError(t, err)
	assert.Empty(t, r.list())
}

func TestScoreTransition(t *testing.T) {
	c, _ := theory.ResolveChord("C", 4)
	d, _ := theory.ResolveChord("Dm", 4)
	g7, _ := theory.ResolveChord("G7", 4)

	all, err := resolveRules(StyleBach, nil)
	require.NoError(t, err)

	// C-G fifth moving up in parallel to D-A
	parallel := scoreTransition(all, c, d, []int{48, 55, 64, 72}, []int{50, 57, 65, 74})
	assert.False(t, parallel.admissible)

	crossing := scoreTransition(all, c, d, []int{48, 55, 64, 72}, []int{50, 65, 62, 69})
	assert.False(t, crossing.admissible)

	// contrary outer motion, 4 semitones total motion
	contrary := scoreTransition(all, c, d, []int{48, 55, 64, 72}, []int{50, 57, 65, 69})
	assert.False(t, contrary.admissible, "inner voices still move in parallel fifths")

	smooth, _ := resolveRules(StyleCustom, []Constraint{SmoothMotion, ContraryOuterMotion})
	same := scoreTransition(smooth, c, d, []int{48, 64}, []int{50, 65})
	assert.True(t, same.admissible)
	assert.Equal(t, -3.0-sameDirectionPenalty, same.score)

	// the seventh of G7 (F) should step down
	sevenths, _ := resolveRules(StyleCustom, []Constraint{ResolveSevenths})
	resolved := scoreTransition(sevenths, g7, c, []int{43, 53}, []int{48, 52})
	unresolved := scoreTransition(sevenths, g7, c, []int{43, 53}, []int{48, 55})
	assert.Equal(t, 0.0, resolved.score)
	assert.Equal(t, -resolutionPenalty, unresolved.score)

	// B in G7 is the leading tone of C
	leading, _ := resolveRules(StyleCustom, []Constraint{ResolveLeadingTones})
	up := scoreTransition(leading, g7, c, []int{43, 59}, []int{48, 60})
	down := scoreTransition(leading, g7, c, []int{43, 59}, []int{48, 55})
	assert.Equal(t, 0.0, up.score)
	assert.Equal(t, -resolutionPenalty, down.score)
}

func TestRootPosition(t *testing.T) {
	voicings, err := RootPosition([]string{"C", "Am/E", "G7"}, 4)
	require.NoError(t, err)
	require.Len(t, voicings, 3)

	assert.Equal(t, []int{48, 52, 55, 60}, voicings[0].Notes)
	assert.Equal(t, []int{40, 45, 48, 52}, voicings[1].Notes)
	assert.Equal(t, []int{55, 59, 62, 65}, voicings[2].Notes)
	assert.Equal(t, []string{"C3", "E3", "G3", "C4"}, voicings[0].Pitches)
	assertAscending(t, voicings)

	_, err = RootPosition([]string{"C"}, 9)
	assert.Error(t, err)
	_, err = RootPosition([]string{"X"}, 4)
	assert.Error(t, err)
}
