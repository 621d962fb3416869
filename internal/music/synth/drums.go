package synth

import (
	"math"
	"strings"
)

// Noise supplies uniform values in [0,1).
type Noise interface {
	Float64() float64
}

// DrumFunc renders one drum hit.
type DrumFunc func(velocity float64, sampleRate int, noise Noise) []float64

// drumKit maps drum tokens onto their generators.
var drumKit = map[string]DrumFunc{
	"kick":         kick,
	"bd":           kick,
	"snare":        snare,
	"sd":           snare,
	"snare_rim":    rimshot,
	"snare_xstick": rimshot,
	"hat":          closedHat,
	"hihat":        closedHat,
	"hh":           closedHat,
	"closed_hat":   closedHat,
	"hat_pedal":    closedHat,
	"hat_open":     openHat,
	"open_hat":     openHat,
	"oh":           openHat,
	"clap":         clap,
	"snap":         clap,
	"cp":           clap,
	"tom":          tom(150),
	"tom_high":     tom(200),
	"tom_mid":      tom(150),
	"tom_low":      tom(100),
	"crash":        cymbal(1.5),
	"china":        cymbal(1.2),
	"splash":       cymbal(0.6),
	"ride":         cymbal(2.0),
	"ride_bell":    cymbal(1.0),
}

// IsDrum reports whether a token has a dedicated drum generator.
func IsDrum(token string) bool {
	_, ok := drumKit[normalizeDrum(token)]
	return ok
}

// Drum renders a drum token; unknown tokens get a short noise burst.
func Drum(token string, velocity float64, sampleRate int, noise Noise) []float64 {
	fn, ok := drumKit[normalizeDrum(token)]
	if !ok {
		fn = noiseBurst
	}
	return fn(clamp01(velocity), sampleRate, noise)
}

func normalizeDrum(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

func sampleCount(seconds float64, sampleRate int) int {
	return int(math.Round(seconds * float64(sampleRate)))
}

// white maps the noise source onto [-1,1).
func white(noise Noise) float64 {
	return noise.Float64()*2 - 1
}

// kick is a sine membrane gliding exponentially from 150 Hz to 50 Hz with a fast decay.
func kick(velocity float64, sampleRate int, _ Noise) []float64 {
	out := make([]float64, sampleCount(0.5, sampleRate))
	phase := 0.0
	for i := range out {
		t := float64(i) / float64(sampleRate)
		freq := 50 + 100*math.Exp(-t*30)
		phase += 2 * math.Pi * freq / float64(sampleRate)
		out[i] = math.Sin(phase) * math.Exp(-t*8) * velocity * 0.9
	}
	return out
}

// snare mixes a 180 Hz membrane with white noise.
func snare(velocity float64, sampleRate int, noise Noise) []float64 {
	out := make([]float64, sampleCount(0.25, sampleRate))
	for i := range out {
		t := float64(i) / float64(sampleRate)
		body := math.Sin(2*math.Pi*180*t) * math.Exp(-t*20) * 0.5
		rattle := white(noise) * math.Exp(-t*15) * 0.6
		out[i] = (body + rattle) * velocity * 0.7
	}
	return out
}

func rimshot(velocity float64, sampleRate int, noise Noise) []float64 {
	out := make([]float64, sampleCount(0.08, sampleRate))
	for i := range out {
		t := float64(i) / float64(sampleRate)
		click := math.Sin(2*math.Pi*900*t) * math.Exp(-t*80)
		out[i] = (click*0.6 + white(noise)*math.Exp(-t*90)*0.3) * velocity * 0.7
	}
	return out
}

func hat(seconds, decay float64) DrumFunc {
	return func(velocity float64, sampleRate int, noise Noise) []float64 {
		out := make([]float64, sampleCount(seconds, sampleRate))
		for i := range out {
			t := float64(i) / float64(sampleRate)
			out[i] = white(noise) * math.Exp(-t*decay) * velocity * 0.4
		}
		return out
	}
}

var (
	closedHat = hat(0.08, 60)
	openHat   = hat(0.4, 8)
)

// clap is three quick noise bursts followed by a longer tail.
func clap(velocity float64, sampleRate int, noise Noise) []float64 {
	out := make([]float64, sampleCount(0.3, sampleRate))
	burstGap := 0.01
	for i := range out {
		t := float64(i) / float64(sampleRate)
		env := 0.0
		for b := 0; b < 3; b++ {
			start := float64(b) * burstGap
			if t >= start {
				env = math.Max(env, math.Exp(-(t-start)*180))
			}
		}
		if t >= 3*burstGap {
			env = math.Max(env, 0.6*math.Exp(-(t-3*burstGap)*18))
		}
		out[i] = white(noise) * env * velocity * 0.6
	}
	return out
}

// tom is a single low membrane with a slight downward glide.
func tom(freq float64) DrumFunc {
	return func(velocity float64, sampleRate int, _ Noise) []float64 {
		out := make([]float64, sampleCount(0.35, sampleRate))
		phase := 0.0
		for i := range out {
			t := float64(i) / float64(sampleRate)
			f := freq * (1 + 0.3*math.Exp(-t*25))
			phase += 2 * math.Pi * f / float64(sampleRate)
			out[i] = math.Sin(phase) * math.Exp(-t*10) * velocity * 0.8
		}
		return out
	}
}

func cymbal(seconds float64) DrumFunc {
	return func(velocity float64, sampleRate int, noise Noise) []float64 {
		out := make([]float64, sampleCount(seconds, sampleRate))
		decay := 4 / seconds
		for i := range out {
			t := float64(i) / float64(sampleRate)
			out[i] = white(noise) * math.Exp(-t*decay) * velocity * 0.3
		}
		return out
	}
}

// noiseBurst is the fallback for drum tokens without a generator.
func noiseBurst(velocity float64, sampleRate int, noise Noise) []float64 {
	out := make([]float64, sampleCount(0.1, sampleRate))
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = white(noise) * math.Exp(-t*40) * velocity * 0.4
	}
	return out
}
