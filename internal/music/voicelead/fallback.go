package voicelead

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

// fallbackOctave places root-position voicings around the bass register.
const fallbackOctave = 3

// RootPosition builds an unvoiced fallback: each chord stacked upward from its
// root (or slash bass), cycling through chord tones until every voice is filled.
func RootPosition(progression []string, voices int) ([]Voicing, error) {
	if voices < MinVoices || voices > MaxVoices {
		return nil, fmt.Errorf("voices must be between %d and %d, got %d", MinVoices, MaxVoices, voices)
	}

	out := make([]Voicing, 0, len(progression))
	for i, symbol := range progression {
		chord, err := theory.ResolveChord(symbol, fallbackOctave)
		if err != nil {
			return nil, fmt.Errorf("progression[%d]: %w", i, err)
		}
		pcs := chord.PitchClasses()

		notes := make([]int, 0, voices)
		bass := (fallbackOctave+1)*12 + chord.RootPC
		if chord.HasBass() {
			bass = fallbackOctave*12 + chord.BassPC
		}
		notes = append(notes, bass)

		next := 0
		if !chord.HasBass() {
			next = 1
		}
		for len(notes) < voices {
			pc := pcs[next%len(pcs)]
			next++
			pitch := notes[len(notes)-1] + 1
			for mod12(pitch) != pc {
				pitch++
			}
			notes = append(notes, pitch)
		}
		out = append(out, newVoicing(symbol, notes))
	}
	return out, nil
}
