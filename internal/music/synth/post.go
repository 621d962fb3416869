package synth

import "math"

const (
	// Ceiling is the peak level the limiter scales down to.
	Ceiling = 0.9

	FadeInSeconds  = 0.010
	FadeOutSeconds = 0.050
)

// PostProcess applies the peak limiter and then the click-avoiding fades, in place.
func PostProcess(buf []float64, sampleRate int) {
	Limit(buf, Ceiling)
	Fade(buf, sampleRate, FadeInSeconds, FadeOutSeconds)
}

// Peak returns the largest absolute sample.
func Peak(buf []float64) float64 {
	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// Limit scales the whole buffer by ceiling/peak when the peak exceeds ceiling.
func Limit(buf []float64, ceiling float64) {
	peak := Peak(buf)
	if peak <= ceiling {
		return
	}
	scale := ceiling / peak
	for i := range buf {
		buf[i] *= scale
	}
}

// Fade ramps the first and last samples linearly from and to silence.
func Fade(buf []float64, sampleRate int, in, out float64) {
	n := len(buf)
	fadeIn := min(sampleCount(in, sampleRate), n)
	fadeOut := min(sampleCount(out, sampleRate), n)

	for i := 0; i < fadeIn; i++ {
		buf[i] *= float64(i) / float64(fadeIn)
	}
	for i := 0; i < fadeOut; i++ {
		buf[n-1-i] *= float64(i) / float64(fadeOut)
	}
}
