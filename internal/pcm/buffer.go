// Package pcm defines the raw sample container shared between the TTS adapter,
// the synthesis scheduler, and the audio assembler.
package pcm

import "fmt"

// SampleFormat is the per-sample encoding of a Buffer.
type SampleFormat int

const (
	Float32 SampleFormat = iota
	Int16
)

func (f SampleFormat) String() string {
	switch f {
	case Float32:
		return "float32"
	case Int16:
		return "int16"
	default:
		return "unknown"
	}
}

// Format describes the tuple every Buffer in a conversion run is measured against.
// Once the first buffer produced by chapter 0's first synthesis call is observed,
// its Format becomes the target format for the remainder of the run.
type Format struct {
	SampleRate  int
	Channels    int
	Sample      SampleFormat
	Interleaved bool
}

// Equal reports whether two formats are bit-identical for assembly purposes.
func (f Format) Equal(other Format) bool {
	return f.SampleRate == other.SampleRate &&
		f.Channels == other.Channels &&
		f.Sample == other.Sample &&
		f.Interleaved == other.Interleaved
}

func (f Format) String() string {
	layout := "planar"
	if f.Interleaved {
		layout = "interleaved"
	}
	return fmt.Sprintf("%dHz/%dch/%s/%s", f.SampleRate, f.Channels, f.Sample, layout)
}

// Buffer is a single chunk of synthesized audio, produced once by the TTS
// adapter and consumed once by the assembler.
type Buffer struct {
	Frames int
	Format Format
	// Samples holds raw sample data. For Float32 it is len==Frames*Channels
	// float32 values; for Int16, int16 values. Interleaved buffers store
	// channels consecutively per frame.
	Float32Samples []float32
	Int16Samples   []int16
}

// Duration returns the playback duration of the buffer in seconds.
func (b Buffer) Duration() float64 {
	if b.Format.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames) / float64(b.Format.SampleRate)
}

// NewFloat32 builds a Buffer from interleaved float32 samples.
func NewFloat32(frames int, format Format, samples []float32) Buffer {
	format.Sample = Float32
	return Buffer{Frames: frames, Format: format, Float32Samples: samples}
}

// NewInt16 builds a Buffer from interleaved int16 samples.
func NewInt16(frames int, format Format, samples []int16) Buffer {
	format.Sample = Int16
	return Buffer{Frames: frames, Format: format, Int16Samples: samples}
}
