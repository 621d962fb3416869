package synth

import "math"

const toneGain = 0.4

// harmonics are the relative amplitudes of the fundamental and its first three overtones.
var harmonics = [...]float64{1, 0.3, 0.15, 0.08}

// Tone renders an additive tone at freq Hz. The buffer runs past the nominal
// duration by the envelope's release.
func Tone(freq, duration, velocity float64, env ADSR, sampleRate int) []float64 {
	s := env.samples(duration, sampleRate)
	out := make([]float64, s.total)
	nyquist := float64(sampleRate) / 2
	gain := toneGain * clamp01(velocity)

	for i := range out {
		t := float64(i) / float64(sampleRate)
		v := 0.0
		for h, amp := range harmonics {
			f := freq * float64(h+1)
			if f >= nyquist {
				break
			}
			v += amp * math.Sin(2*math.Pi*f*t)
		}
		out[i] = v * gain * s.level(i)
	}
	return out
}
