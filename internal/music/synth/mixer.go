package synth

import (
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/remeh/sizedwaitgroup"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

const (
	DefaultSampleRate = 44100

	// MinDuration is the shortest note rendered; shorter or invalid durations are raised to it.
	MinDuration = 0.01
	// TailSeconds is appended past the last event so releases and drum decays finish.
	TailSeconds = 2.0
)

// NoteEvent is one sound on the timeline. Pitch is a pitch string ("C4") or a drum token ("kick").
type NoteEvent struct {
	Pitch      string  `json:"pitch"`
	Time       float64 `json:"time"`
	Duration   float64 `json:"duration"`
	Velocity   float64 `json:"velocity"`
	Instrument string  `json:"instrument,omitempty"`
}

// Options configure a Renderer.
type Options struct {
	SampleRate int
	// NoiseSeed makes drum noise reproducible. Nil draws from a non-deterministic source.
	NoiseSeed *uint64
	// Workers bounds parallel event rendering; zero means GOMAXPROCS.
	Workers int
}

// Renderer turns note events into a mixed, post-processed sample buffer.
type Renderer struct {
	sampleRate int
	noiseSeed  *uint64
	workers    int
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Renderer{
		sampleRate: opts.SampleRate,
		noiseSeed:  opts.NoiseSeed,
		workers:    opts.Workers,
	}
}

// SampleRate returns the renderer's sample rate.
func (r *Renderer) SampleRate() int {
	return r.sampleRate
}

// globalNoise draws from the process-wide generator.
type globalNoise struct{}

func (globalNoise) Float64() float64 { return rand.Float64() }

// noiseFor returns the noise source for the i-th event. With a seed, every
// event gets its own PCG stream so output does not depend on render order.
func (r *Renderer) noiseFor(i int) Noise {
	if r.noiseSeed == nil {
		return globalNoise{}
	}
	return rand.New(rand.NewPCG(*r.noiseSeed, uint64(i)))
}

// RenderEvent renders a single event starting at sample zero.
func (r *Renderer) RenderEvent(i int, ev NoteEvent) []float64 {
	velocity := clamp01(ev.Velocity)
	duration := ev.Duration
	if math.IsNaN(duration) || duration < MinDuration {
		duration = MinDuration
	}

	midi, err := theory.PitchToMIDI(ev.Pitch)
	if err != nil {
		return Drum(ev.Pitch, velocity, r.sampleRate, r.noiseFor(i))
	}
	freq := theory.MIDIToFrequency(float64(midi))
	return Tone(freq, duration, velocity, EnvelopeFor(ev.Instrument), r.sampleRate)
}

// Mix renders events in parallel and sums them into one buffer of
// (timeline + TailSeconds) * sampleRate samples. Buffers are summed in event
// order, so the result is independent of scheduling.
func (r *Renderer) Mix(events []NoteEvent) []float64 {
	buffers := make([][]float64, len(events))

	swg := sizedwaitgroup.New(r.workers)
	for i, ev := range events {
		swg.Add()
		go func(i int, ev NoteEvent) {
			defer swg.Done()
			buffers[i] = r.RenderEvent(i, ev)
		}(i, ev)
	}
	swg.Wait()

	master := make([]float64, r.masterLength(events))
	for i, ev := range events {
		start := int(math.Round(startTime(ev) * float64(r.sampleRate)))
		for j, v := range buffers[i] {
			k := start + j
			if k >= len(master) {
				break
			}
			master[k] += v
		}
	}
	return master
}

// Render mixes events and applies the limiter and fades.
func (r *Renderer) Render(events []NoteEvent) []float64 {
	master := r.Mix(events)
	PostProcess(master, r.sampleRate)
	return master
}

// Timeline returns the end of the last event in seconds.
func Timeline(events []NoteEvent) float64 {
	end := 0.0
	for _, ev := range events {
		d := ev.Duration
		if math.IsNaN(d) || d < MinDuration {
			d = MinDuration
		}
		if e := startTime(ev) + d; e > end {
			end = e
		}
	}
	return end
}

func (r *Renderer) masterLength(events []NoteEvent) int {
	return int(math.Round((Timeline(events) + TailSeconds) * float64(r.sampleRate)))
}

func startTime(ev NoteEvent) float64 {
	if math.IsNaN(ev.Time) || ev.Time < 0 {
		return 0
	}
	return ev.Time
}
