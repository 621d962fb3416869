package synth

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	wavHeaderSize    = 44
	pcmFormat        = 1
	monoChannels     = 1
	pcmBitsPerSample = 16
)

// ErrNotWAV is returned when a stream does not start with a RIFF/WAVE header.
var ErrNotWAV = errors.New("not a RIFF/WAVE stream")

// WAVHeader is the format information of a PCM WAV stream.
type WAVHeader struct {
	SampleRate    int    `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitsPerSample int    `json:"bits_per_sample"`
	DataSize      uint32 `json:"data_size"`
}

// Samples returns the number of frames in the data chunk.
func (h WAVHeader) Samples() int {
	frame := h.Channels * h.BitsPerSample / 8
	if frame == 0 {
		return 0
	}
	return int(h.DataSize) / frame
}

// Seconds returns the stream length.
func (h WAVHeader) Seconds() float64 {
	if h.SampleRate == 0 {
		return 0
	}
	return float64(h.Samples()) / float64(h.SampleRate)
}

// EncodeWAV serializes samples as a 16-bit mono little-endian PCM WAV.
func EncodeWAV(samples []float64, sampleRate int) []byte {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + 2*len(samples))
	// bytes.Buffer writes cannot fail
	_ = WriteWAV(&buf, samples, sampleRate)
	return buf.Bytes()
}

// WriteWAV writes samples to w as a 16-bit mono PCM WAV.
func WriteWAV(w io.Writer, samples []float64, sampleRate int) error {
	dataSize := uint32(len(samples) * 2)
	header := WAVHeader{
		SampleRate:    sampleRate,
		Channels:      monoChannels,
		BitsPerSample: pcmBitsPerSample,
		DataSize:      dataSize,
	}
	if err := writeHeader(w, header); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}

	pcm := make([]byte, 2*len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s*32767)))
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	return nil
}

func writeHeader(w io.Writer, h WAVHeader) error {
	blockAlign := h.Channels * h.BitsPerSample / 8
	byteRate := h.SampleRate * blockAlign

	fields := []interface{}{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + h.DataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16), // fmt chunk size
		uint16(pcmFormat),
		uint16(h.Channels),
		uint32(h.SampleRate),
		uint32(byteRate),
		uint16(blockAlign),
		uint16(h.BitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		h.DataSize,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadWAVHeader reads the RIFF header, fmt chunk and data chunk header of a
// PCM WAV stream. Chunks other than fmt and data are skipped. The reader is
// left at the first sample.
func ReadWAVHeader(r io.Reader) (WAVHeader, error) {
	var riff struct {
		ID     [4]byte
		Size   uint32
		Format [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return WAVHeader{}, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(riff.ID[:]) != "RIFF" || string(riff.Format[:]) != "WAVE" {
		return WAVHeader{}, ErrNotWAV
	}

	var (
		header  WAVHeader
		haveFmt bool
	)
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			return WAVHeader{}, fmt.Errorf("failed to read chunk header: %w", err)
		}

		switch string(chunk.ID[:]) {
		case "fmt ":
			var f struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return WAVHeader{}, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if f.AudioFormat != pcmFormat {
				return WAVHeader{}, fmt.Errorf("unsupported WAV format %d", f.AudioFormat)
			}
			if extra := int64(chunk.Size) - 16; extra > 0 {
				if _, err := io.CopyN(io.Discard, r, extra); err != nil {
					return WAVHeader{}, fmt.Errorf("failed to skip fmt extension: %w", err)
				}
			}
			header.Channels = int(f.Channels)
			header.SampleRate = int(f.SampleRate)
			header.BitsPerSample = int(f.BitsPerSample)
			haveFmt = true
		case "data":
			if !haveFmt {
				return WAVHeader{}, fmt.Errorf("data chunk before fmt chunk")
			}
			header.DataSize = chunk.Size
			return header, nil
		default:
			// chunks are word aligned
			size := int64(chunk.Size) + int64(chunk.Size%2)
			if _, err := io.CopyN(io.Discard, r, size); err != nil {
				return WAVHeader{}, fmt.Errorf("failed to skip %q chunk: %w", chunk.ID, err)
			}
		}
	}
}
