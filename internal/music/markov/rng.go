package markov

import "math/rand/v2"

// Stream is a seeded 32-bit generator (mulberry32). The same seed always yields the same values.
type Stream struct {
	state uint32
}

// NewStream creates a stream from a seed.
func NewStream(seed uint32) *Stream {
	return &Stream{state: seed}
}

// RandomSeed draws a seed from a non-deterministic source.
func RandomSeed() uint32 {
	return rand.Uint32()
}

// Uint32 returns the next raw value.
func (s *Stream) Uint32() uint32 {
	s.state += 0x6D2B79F5
	z := s.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return z ^ (z >> 14)
}

// Float64 returns a value in [0,1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint32()) / 4294967296.0
}
