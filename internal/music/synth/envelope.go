package synth

import "math"

// ADSR is an attack/decay/sustain/release envelope. Times are seconds, Sustain is a level in [0,1].
type ADSR struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// DefaultEnvelope is used for unknown instruments.
var DefaultEnvelope = ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3}

// instrumentEnvelopes maps instrument ids onto envelopes.
var instrumentEnvelopes = map[string]ADSR{
	"piano":   DefaultEnvelope,
	"keys":    DefaultEnvelope,
	"pad":     {Attack: 0.3, Decay: 0.5, Sustain: 0.8, Release: 1.0},
	"strings": {Attack: 0.2, Decay: 0.3, Sustain: 0.8, Release: 0.6},
	"pluck":   {Attack: 0.005, Decay: 0.15, Sustain: 0.2, Release: 0.2},
	"bass":    {Attack: 0.01, Decay: 0.1, Sustain: 0.8, Release: 0.15},
	"lead":    {Attack: 0.02, Decay: 0.1, Sustain: 0.8, Release: 0.2},
	"organ":   {Attack: 0.01, Decay: 0, Sustain: 1.0, Release: 0.1},
	"bell":    {Attack: 0.002, Decay: 0.8, Sustain: 0.1, Release: 1.2},
}

// EnvelopeFor returns the envelope of an instrument id, or DefaultEnvelope.
func EnvelopeFor(instrument string) ADSR {
	if env, ok := instrumentEnvelopes[instrument]; ok {
		return env
	}
	return DefaultEnvelope
}

// shape holds an envelope converted to sample counts.
type shape struct {
	attack  int
	decay   int
	sustain float64
	noteOff int // first sample of the release segment
	total   int
}

// samples returns the rendered length for a note: round((duration + release) * sampleRate).
func (e ADSR) samples(duration float64, sampleRate int) shape {
	sr := float64(sampleRate)
	total := int(math.Round((duration + e.Release) * sr))
	noteOff := int(math.Round(duration * sr))
	if noteOff > total {
		noteOff = total
	}
	return shape{
		attack:  int(math.Round(e.Attack * sr)),
		decay:   int(math.Round(e.Decay * sr)),
		sustain: clamp01(e.Sustain),
		noteOff: noteOff,
		total:   total,
	}
}

// held is the envelope level while the note is held.
func (s shape) held(i int) float64 {
	if i < s.attack {
		return float64(i) / float64(s.attack)
	}
	i -= s.attack
	if i < s.decay {
		return 1 - (1-s.sustain)*float64(i)/float64(s.decay)
	}
	return s.sustain
}

// level returns the envelope value at sample i; the release ramps from the note-off level to zero.
func (s shape) level(i int) float64 {
	if i < s.noteOff {
		return s.held(i)
	}
	releaseLen := s.total - s.noteOff
	if releaseLen <= 0 {
		return 0
	}
	start := s.held(s.noteOff)
	return start * (1 - float64(i-s.noteOff)/float64(releaseLen))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
