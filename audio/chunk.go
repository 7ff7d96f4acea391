// Package audio provides the PCM audio model used by the export pipeline.
//
// A Chunk is a block of interleaved PCM samples described by an Info
// (channel count, sample type and sample rate). Chunks can be synthesized as
// silence or tones, trimmed to an exact sample count, resampled, and decoded
// from Ogg/Opus files.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SampleType is the storage type of one PCM sample.
type SampleType int

// Sample types.
const (
	SampleNone SampleType = iota
	S16
	F32
)

// String returns the sample type name.
func (s SampleType) String() string {
	switch s {
	case S16:
		return "S16"
	case F32:
		return "F32"
	}
	return "None"
}

// ByteCount returns the size of one sample.
func (s SampleType) ByteCount() int {
	switch s {
	case S16:
		return 2
	case F32:
		return 4
	}
	return 0
}

// Info describes a PCM stream.
type Info struct {
	Channels   int
	SampleType SampleType
	SampleRate int
}

// IsValid reports whether the info describes a usable stream.
func (i Info) IsValid() bool {
	return i.Channels > 0 && i.SampleRate > 0 && i.SampleType.ByteCount() > 0
}

// FrameBytes returns the size of one sample across all channels.
func (i Info) FrameBytes() int {
	return i.Channels * i.SampleType.ByteCount()
}

// String returns a description such as "2ch:S16@48000".
func (i Info) String() string {
	return fmt.Sprintf("%dch:%s@%d", i.Channels, i.SampleType, i.SampleRate)
}

// Chunk is a block of interleaved PCM samples.
type Chunk struct {
	info Info
	data []byte
}

// NewSilence returns a zeroed chunk holding samples samples per channel.
func NewSilence(info Info, samples int) *Chunk {
	if samples < 0 {
		samples = 0
	}
	return &Chunk{info: info, data: make([]byte, samples*info.FrameBytes())}
}

// NewChunkFromInt16 builds an S16 chunk from interleaved samples.
func NewChunkFromInt16(info Info, pcm []int16) *Chunk {
	info.SampleType = S16
	data := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return &Chunk{info: info, data: data}
}

// NewChunkFromFloat32 builds an F32 chunk from interleaved samples.
func NewChunkFromFloat32(info Info, pcm []float32) *Chunk {
	info.SampleType = F32
	data := make([]byte, len(pcm)*4)
	for i, s := range pcm {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}
	return &Chunk{info: info, data: data}
}

// Info returns the stream description.
func (c *Chunk) Info() Info { return c.info }

// Data returns the interleaved little-endian sample bytes.
func (c *Chunk) Data() []byte { return c.data }

// SampleCount returns the number of samples per channel.
func (c *Chunk) SampleCount() int {
	fb := c.info.FrameBytes()
	if fb == 0 {
		return 0
	}
	return len(c.data) / fb
}

// Duration returns the chunk length in seconds.
func (c *Chunk) Duration() float64 {
	if c.info.SampleRate == 0 {
		return 0
	}
	return float64(c.SampleCount()) / float64(c.info.SampleRate)
}

// Trim returns a chunk holding the first n samples per channel. The result
// shares storage with c. n larger than SampleCount returns c unchanged.
func (c *Chunk) Trim(n int) *Chunk {
	if n < 0 {
		n = 0
	}
	if n >= c.SampleCount() {
		return c
	}
	return &Chunk{info: c.info, data: c.data[:n*c.info.FrameBytes()]}
}

// Int16s returns the samples converted to interleaved int16.
func (c *Chunk) Int16s() []int16 {
	switch c.info.SampleType {
	case S16:
		out := make([]int16, len(c.data)/2)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(c.data[i*2:]))
		}
		return out
	case F32:
		out := make([]int16, len(c.data)/4)
		for i := range out {
			f := math.Float32frombits(binary.LittleEndian.Uint32(c.data[i*4:]))
			out[i] = int16(max(-1, min(1, f)) * math.MaxInt16)
		}
		return out
	}
	return nil
}
