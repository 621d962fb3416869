package voicelead

import "github.com/Conceptual-Machines/magda-composer/internal/music/theory"

const (
	sameDirectionPenalty = 10.0
	resolutionPenalty    = 5.0
	relaxedPenalty       = 100.0
)

// transition is the scored move between two consecutive voicings.
// Inadmissible moves still carry their soft score so the relaxed pass can reuse it.
type transition struct {
	score      float64
	admissible bool
}

// scoreTransition checks hard rules and accumulates soft penalties for prev -> next.
func scoreTransition(r rules, prevChord, nextChord theory.Chord, prev, next []int) transition {
	t := transition{admissible: true}
	voices := len(prev)

	if r[NoVoiceCrossing] && (crosses(prev) || crosses(next)) {
		t.admissible = false
	}

	if r[NoParallelFifths] || r[NoParallelOctaves] {
		for i := 0; i < voices && t.admissible; i++ {
			for j := i + 1; j < voices; j++ {
				if !sameDirection(prev[i], next[i], prev[j], next[j]) {
					continue
				}
				before := mod12(prev[j] - prev[i])
				after := mod12(next[j] - next[i])
				if r[NoParallelFifths] && before == 7 && after == 7 {
					t.admissible = false
					break
				}
				if r[NoParallelOctaves] && before == 0 && after == 0 {
					t.admissible = false
					break
				}
			}
		}
	}

	if r[SmoothMotion] {
		motion := 0
		for i := range prev {
			motion += abs(next[i] - prev[i])
		}
		t.score -= float64(motion)
	}

	if r[ContraryOuterMotion] && sameDirection(prev[0], next[0], prev[voices-1], next[voices-1]) {
		t.score -= sameDirectionPenalty
	}

	if r[ResolveLeadingTones] {
		leading := mod12(nextChord.RootPC - 1)
		for i := range prev {
			if mod12(prev[i]) == leading && next[i]-prev[i] != 1 && hasPC(prevChord, leading) {
				t.score -= resolutionPenalty
			}
		}
	}

	if r[ResolveSevenths] {
		if seventh, ok := seventhPC(prevChord); ok {
			for i := range prev {
				step := prev[i] - next[i]
				if mod12(prev[i]) == seventh && step != 1 && step != 2 {
					t.score -= resolutionPenalty
				}
			}
		}
	}

	return t
}

// sameDirection reports whether both voices move and move the same way.
func sameDirection(a0, a1, b0, b1 int) bool {
	da, db := sign(a1-a0), sign(b1-b0)
	return da != 0 && da == db
}

func crosses(notes []int) bool {
	for i := 0; i+1 < len(notes); i++ {
		if notes[i] >= notes[i+1] {
			return true
		}
	}
	return false
}

// seventhPC returns the pitch class of a minor or major seventh above the root, if present.
func seventhPC(c theory.Chord) (int, bool) {
	for _, iv := range c.Intervals {
		if iv == 10 || iv == 11 {
			return mod12(c.RootPC + iv), true
		}
	}
	return 0, false
}

func hasPC(c theory.Chord, pc int) bool {
	for _, p := range c.PitchClasses() {
		if p == pc {
			return true
		}
	}
	return false
}

func mod12(n int) int {
	return ((n % 12) + 12) % 12
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
