package synth

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 8000

func seed(v uint64) *uint64 { return &v }

func TestToneLength(t *testing.T) {
	tests := []struct {
		name       string
		duration   float64
		instrument string
		want       int
	}{
		{"default envelope", 1.0, "", 10400},
		{"piano", 0.5, "piano", 6400},
		{"pad", 1.0, "pad", 16000},
		{"unknown instrument", 0.25, "theremin", 4400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Tone(440, tt.duration, 0.8, EnvelopeFor(tt.instrument), testRate)
			assert.Len(t, buf, tt.want)
		})
	}
}

func TestToneEnvelopeEdges(t *testing.T) {
	buf := Tone(220, 0.5, 1.0, DefaultEnvelope, testRate)
	require.NotEmpty(t, buf)
	assert.Equal(t, 0.0, buf[0], "attack starts from silence")
	assert.InDelta(t, 0.0, buf[len(buf)-1], 0.01, "release ends near silence")
	assert.LessOrEqual(t, Peak(buf), toneGain*(1+0.3+0.15+0.08))
}

func TestToneZeroSegments(t *testing.T) {
	env := ADSR{Attack: 0, Decay: 0, Sustain: 0.5, Release: 0}
	buf := Tone(100, 0.1, 1.0, env, testRate)
	assert.Len(t, buf, 800)
	for _, v := range buf {
		assert.False(t, math.IsNaN(v))
	}
}

func TestDrumDispatch(t *testing.T) {
	noise := NewRenderer(Options{SampleRate: testRate, NoiseSeed: seed(1)}).noiseFor(0)
	tests := []struct {
		token string
		want  int
	}{
		{"kick", 4000},
		{"Kick ", 4000},
		{"snare", 2000},
		{"hat", 640},
		{"hihat", 640},
		{"open_hat", 3200},
		{"clap", 2400},
		{"tom_low", 2800},
		{"crash", 12000},
		{"cowbell", 800},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			buf := Drum(tt.token, 1.0, testRate, noise)
			assert.Len(t, buf, tt.want)
		})
	}

	assert.True(t, IsDrum("snare_rim"))
	assert.False(t, IsDrum("cowbell"))
}

func TestRenderEventClamps(t *testing.T) {
	r := NewRenderer(Options{SampleRate: testRate, NoiseSeed: seed(7)})

	short := r.RenderEvent(0, NoteEvent{Pitch: "A4", Duration: -1, Velocity: 0.5})
	assert.Len(t, short, 2480, "duration clamps to 10ms plus release")

	nan := r.RenderEvent(0, NoteEvent{Pitch: "A4", Duration: math.NaN(), Velocity: 0.5})
	assert.Len(t, nan, 2480)

	loud := r.RenderEvent(0, NoteEvent{Pitch: "A4", Duration: 0.2, Velocity: 5})
	unit := r.RenderEvent(0, NoteEvent{Pitch: "A4", Duration: 0.2, Velocity: 1})
	assert.Equal(t, unit, loud, "velocity clamps to 1")

	silent := r.RenderEvent(0, NoteEvent{Pitch: "A4", Duration: 0.2, Velocity: -1})
	assert.Equal(t, 0.0, Peak(silent))

	drum := r.RenderEvent(0, NoteEvent{Pitch: "not-a-pitch", Duration: 1, Velocity: 1})
	assert.Len(t, drum, 800, "unparseable pitch falls back to the noise burst")
}

func TestMixLength(t *testing.T) {
	r := NewRenderer(Options{SampleRate: testRate})

	tests := []struct {
		name   string
		events []NoteEvent
		want   int
	}{
		{"empty", nil, 16000},
		{"single note", []NoteEvent{{Pitch: "C4", Time: 1, Duration: 0.5, Velocity: 0.8}}, 28000},
		{"negative time", []NoteEvent{{Pitch: "C4", Time: -3, Duration: 1, Velocity: 0.8}}, 24000},
		{"last event wins", []NoteEvent{
			{Pitch: "C4", Time: 0, Duration: 4, Velocity: 0.8},
			{Pitch: "E4", Time: 1, Duration: 1, Velocity: 0.8},
		}, 48000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, r.Mix(tt.events), tt.want)
		})
	}
}

func TestMixSumsInEventOrder(t *testing.T) {
	r := NewRenderer(Options{SampleRate: testRate})
	ev := NoteEvent{Pitch: "G3", Duration: 0.25, Velocity: 0.6}

	single := r.RenderEvent(0, ev)
	mixed := r.Mix([]NoteEvent{ev, ev})

	for i, v := range single {
		require.Equal(t, 2*v, mixed[i])
	}
	assert.Equal(t, 0.0, mixed[len(single)])
}

func TestRenderLimitsPeak(t *testing.T) {
	r := NewRenderer(Options{SampleRate: testRate, NoiseSeed: seed(3)})

	var events []NoteEvent
	for _, p := range []string{"C3", "E3", "G3", "C4", "E4", "G4", "C5", "kick", "snare"} {
		events = append(events, NoteEvent{Pitch: p, Time: 0.1, Duration: 1, Velocity: 1})
	}

	out := r.Render(events)
	assert.InDelta(t, Ceiling, Peak(out), 1e-9)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0.0, out[len(out)-1])
}

func TestRenderQuietSignalUntouched(t *testing.T) {
	buf := []float64{0, 0.1, -0.2, 0.3}
	Limit(buf, Ceiling)
	assert.Equal(t, []float64{0, 0.1, -0.2, 0.3}, buf)
}

func TestFade(t *testing.T) {
	buf := make([]float64, 1000)
	for i := range buf {
		buf[i] = 1
	}
	Fade(buf, 1000, 0.01, 0.05)

	assert.Equal(t, 0.0, buf[0])
	assert.InDelta(t, 0.5, buf[5], 1e-9)
	assert.Equal(t, 1.0, buf[10])
	assert.Equal(t, 1.0, buf[949])
	assert.Equal(t, 0.0, buf[999])
}

func TestSeededNoiseIsDeterministic(t *testing.T) {
	events := []NoteEvent{
		{Pitch: "hat", Time: 0, Duration: 0.1, Velocity: 0.9},
		{Pitch: "snare", Time: 0.25, Duration: 0.1, Velocity: 0.9},
		{Pitch: "clap", Time: 0.5, Duration: 0.1, Velocity: 0.9},
	}

	serial := NewRenderer(Options{SampleRate: testRate, NoiseSeed: seed(42), Workers: 1}).Render(events)
	parallel := NewRenderer(Options{SampleRate: testRate, NoiseSeed: seed(42), Workers: 4}).Render(events)
	other := NewRenderer(Options{SampleRate: testRate, NoiseSeed: seed(43), Workers: 4}).Render(events)

	assert.Equal(t, serial, parallel)
	assert.NotEqual(t, serial, other)
}

func TestWAVHeaderRoundTrip(t *testing.T) {
	samples := make([]float64, 100)
	data := EncodeWAV(samples, testRate)
	require.Len(t, data, wavHeaderSize+200)

	h, err := ReadWAVHeader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, WAVHeader{SampleRate: testRate, Channels: 1, BitsPerSample: 16, DataSize: 200}, h)
	assert.Equal(t, 100, h.Samples())
	assert.InDelta(t, 0.0125, h.Seconds(), 1e-12)
}

func TestWAVSkipsUnknownChunks(t *testing.T) {
	data := EncodeWAV([]float64{0.5, -0.5}, testRate)

	var withList bytes.Buffer
	withList.Write(data[:36])
	withList.WriteString("LIST")
	require.NoError(t, binary.Write(&withList, binary.LittleEndian, uint32(3)))
	withList.Write([]byte{1, 2, 3, 0})
	withList.Write(data[36:])

	h, err := ReadWAVHeader(bytes.NewReader(withList.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint32(4), h.DataSize)
}

func TestWAVErrors(t *testing.T) {
	_, err := ReadWAVHeader(bytes.NewReader([]byte("RIFX\x00\x00\x00\x00WAVE")))
	assert.ErrorIs(t, err, ErrNotWAV)

	_, err = ReadWAVHeader(bytes.NewReader([]byte("RIFF")))
	assert.Error(t, err)

	data := EncodeWAV(nil, testRate)
	_, err = ReadWAVHeader(bytes.NewReader(data[:30]))
	assert.Error(t, err)
}

func TestWAVSampleClamping(t *testing.T) {
	data := EncodeWAV([]float64{2, -2, 0, 0.5}, testRate)
	pcm := data[wavHeaderSize:]

	got := make([]int16, 4)
	for i := range got {
		got[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	assert.Equal(t, []int16{32767, -32767, 0, 16383}, got)
}

func TestWAVDecodesWithBeep(t *testing.T) {
	r := NewRenderer(Options{SampleRate: testRate})
	out := r.Render([]NoteEvent{{Pitch: "A4", Duration: 0.5, Velocity: 0.8}})

	stream, format, err := wav.Decode(bytes.NewReader(EncodeWAV(out, testRate)))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, beep.SampleRate(testRate), format.SampleRate)
	assert.Equal(t, 1, format.NumChannels)
	assert.Equal(t, 2, format.Precision)
	assert.Equal(t, len(out), stream.Len())
}
