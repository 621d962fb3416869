package voicelead

import (
	"fmt"
	"sort"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

// chordOctave is the octave symbols are resolved at; voice ranges decide the actual register.
const chordOctave = 4

// Result is a solved progression.
type Result struct {
	Voicings    []Voicing    `json:"voicings"`
	Score       float64      `json:"score"`
	Warnings    []string     `json:"warnings,omitempty"`
	Constraints []Constraint `json:"constraints"`
}

// path is one partial sequence in the beam: a candidate index per chord so far.
type path struct {
	picks []int
	score float64
}

// Solve voices a chord progression with beam search.
//
// Transitions that break a hard rule are dropped while any admissible move
// exists; when none does, every move is admitted at a heavy penalty and a
// warning is recorded. Only a chord with no voicing at all fails, with a
// *NoVoicingError.
func Solve(cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r, err := resolveRules(cfg.Style, cfg.Constraints)
	if err != nil {
		return nil, err
	}

	ranges := cfg.ranges()
	chords := make([]chordInfo, len(cfg.Progression))
	for i, symbol := range cfg.Progression {
		chord, err := theory.ResolveChord(symbol, chordOctave)
		if err != nil {
			return nil, fmt.Errorf("progression[%d]: %w", i, err)
		}
		candidates := enumerate(chord, ranges, r[NoVoiceCrossing])
		if len(candidates) == 0 {
			return nil, &NoVoicingError{Chord: symbol, Position: i}
		}
		chords[i] = chordInfo{symbol: symbol, chord: chord, candidates: candidates}
	}

	beam := make([]path, len(chords[0].candidates))
	for i := range chords[0].candidates {
		beam[i] = path{picks: []int{i}}
	}

	var warnings []string
	for c := 1; c < len(chords); c++ {
		var warning string
		beam, warning = advance(beam, r, chords[c-1], chords[c])
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}

	if len(chords) == 1 {
		sort.SliceStable(beam, func(i, j int) bool {
			return spread(chords[0].candidates[beam[i].picks[0]]) < spread(chords[0].candidates[beam[j].picks[0]])
		})
	}

	best := beam[0]
	voicings := make([]Voicing, len(chords))
	for i, pick := range best.picks {
		voicings[i] = newVoicing(chords[i].symbol, chords[i].candidates[pick])
	}

	return &Result{
		Voicings:    voicings,
		Score:       best.score,
		Warnings:    warnings,
		Constraints: r.list(),
	}, nil
}

// advance moves the beam one chord forward and keeps the BeamWidth best paths.
// The returned warning is non-empty when the step had to be relaxed.
func advance(beam []path, r rules, prev, next chordInfo) ([]path, string) {
	var warning string
	steps := expand(beam, r, prev, next, false)
	if len(steps) == 0 {
		warning = fmt.Sprintf(
			"no voicing of %s -> %s satisfies every constraint; relaxed with a %.0f penalty",
			prev.symbol, next.symbol, relaxedPenalty)
		steps = expand(beam, r, prev, next, true)
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].score > steps[j].score
	})
	if len(steps) > BeamWidth {
		steps = steps[:BeamWidth]
	}

	nextBeam := make([]path, len(steps))
	for i, st := range steps {
		parent := beam[st.parent]
		picks := make([]int, len(parent.picks)+1)
		copy(picks, parent.picks)
		picks[len(parent.picks)] = st.pick
		nextBeam[i] = path{picks: picks, score: st.score}
	}
	return nextBeam, warning
}

// step is a scored extension of beam[parent] by candidate pick.
type step struct {
	parent int
	pick   int
	score  float64
}

// expand extends every beam entry by every candidate of the next chord.
// With relaxed set, inadmissible moves are kept at their soft score minus the relaxed penalty.
func expand(beam []path, r rules, prev, next chordInfo, relaxed bool) []step {
	var out []step
	for b, p := range beam {
		from := prev.candidates[p.picks[len(p.picks)-1]]
		for j, to := range next.candidates {
			t := scoreTransition(r, prev.chord, next.chord, from, to)
			score := t.score
			if relaxed {
				score -= relaxedPenalty
			} else if !t.admissible {
				continue
			}
			out = append(out, step{parent: b, pick: j, score: p.score + score})
		}
	}
	return out
}

// spread is the distance between the outer voices; a lone chord prefers the closest voicing.
func spread(notes []int) int {
	return notes[len(notes)-1] - notes[0]
}
