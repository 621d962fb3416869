package voicelead

import "github.com/Conceptual-Machines/magda-composer/internal/music/theory"

const requiredTones = 3

// chordInfo is the per-chord data the transition scoring needs.
type chordInfo struct {
	symbol     string
	chord      theory.Chord
	candidates [][]int
}

// enumerate lists voicings for a chord: each voice takes an in-range chord tone,
// the first min(3, voices, tones) chord tones must all sound, and a slash bass
// pins the bass voice. A bass outside the chord leaves one voice fewer for the
// required tones. With noCrossing set, non-ascending branches are cut before
// they count; enumeration stops at MaxCandidates ascending combinations.
func enumerate(chord theory.Chord, ranges []Range, noCrossing bool) [][]int {
	pcs := chord.PitchClasses()
	allowed := make(map[int]bool, len(pcs))
	for _, pc := range pcs {
		allowed[pc] = true
	}

	options := make([][]int, len(ranges))
	for v, r := range ranges {
		for midi := r.Low; midi <= r.High; midi++ {
			pc := midi % 12
			if v == 0 && chord.HasBass() {
				if pc == chord.BassPC {
					options[v] = append(options[v], midi)
				}
				continue
			}
			if allowed[pc] {
				options[v] = append(options[v], midi)
			}
		}
		if len(options[v]) == 0 {
			return nil
		}
	}

	free := len(ranges)
	if chord.HasBass() && !allowed[chord.BassPC] {
		free--
	}
	required := pcs
	if n := min(requiredTones, free, len(pcs)); len(required) > n {
		required = required[:n]
	}

	var (
		out     [][]int
		current = make([]int, len(ranges))
		emitted int
	)
	var walk func(v int)
	walk = func(v int) {
		if emitted >= MaxCandidates {
			return
		}
		if v == len(ranges) {
			emitted++
			if covers(current, required) {
				out = append(out, append([]int(nil), current...))
			}
			return
		}
		for _, midi := range options[v] {
			if noCrossing && v > 0 && midi <= current[v-1] {
				continue
			}
			current[v] = midi
			walk(v + 1)
			if emitted >= MaxCandidates {
				return
			}
		}
	}
	walk(0)
	return out
}

func covers(notes []int, required []int) bool {
	for _, pc := range required {
		found := false
		for _, n := range notes {
			if n%12 == pc {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
