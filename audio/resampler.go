package audio

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Resampler converts interleaved int16 PCM between sample rates with linear
// interpolation. It keeps the fractional read position and the last input
// frame between calls, so consecutive blocks of a stream join without clicks.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	last       []int16
	position   float64
}

// ResamplerConfig holds configuration for creating a resampler.
type ResamplerConfig struct {
	InputRate  int // Input sample rate in Hz
	OutputRate int // Output sample rate in Hz
	Channels   int // Interleaved channel count
}

// NewResampler creates a resampler.
//
// Parameters:
//   - config: Resampler configuration
//
// Returns:
//   - *Resampler: New resampler instance
//   - error: Invalid rates or channel count
func NewResampler(config ResamplerConfig) (*Resampler, error) {
	if config.InputRate <= 0 || config.OutputRate <= 0 {
		logrus.WithFields(logrus.Fields{
			"function":    "NewResampler",
			"input_rate":  config.InputRate,
			"output_rate": config.OutputRate,
		}).Error("Sample rate validation failed")
		return nil, fmt.Errorf("invalid sample rates: input=%d, output=%d", config.InputRate, config.OutputRate)
	}
	if config.Channels < 1 || config.Channels > 8 {
		return nil, fmt.Errorf("unsupported channel count: %d (must be 1-8)", config.Channels)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewResampler",
		"input_rate":  config.InputRate,
		"output_rate": config.OutputRate,
		"channels":    config.Channels,
	}).Debug("Audio resampler created")

	return &Resampler{
		inputRate:  config.InputRate,
		outputRate: config.OutputRate,
		channels:   config.Channels,
		last:       make([]int16, config.Channels),
	}, nil
}

// Resample converts one block of interleaved samples.
func (r *Resampler) Resample(input []int16) ([]int16, error) {
	if len(input)%r.channels != 0 {
		return nil, fmt.Errorf("input samples (%d) not aligned to channel count (%d)", len(input), r.channels)
	}
	if r.inputRate == r.outputRate {
		return append([]int16(nil), input...), nil
	}
	frames := len(input) / r.channels
	if frames == 0 {
		return nil, nil
	}

	ratio := float64(r.inputRate) / float64(r.outputRate)
	output := make([]int16, 0, int(float64(frames)/ratio+1)*r.channels)
	start := r.position
	n := 0
	for ; ; n++ {
		pos := start + float64(n)*ratio
		if pos >= float64(frames)-1e-9 {
			break
		}
		index := int(math.Floor(pos))
		frac := pos - float64(index)
		for ch := 0; ch < r.channels; ch++ {
			a := r.sampleAt(input, index, ch, frames)
			b := r.sampleAt(input, index+1, ch, frames)
			output = append(output, int16(math.Round(float64(a)*(1-frac)+float64(b)*frac)))
		}
	}

	r.position = start + float64(n)*ratio - float64(frames)
	copy(r.last, input[len(input)-r.channels:])
	return output, nil
}

// sampleAt reads frame index of channel ch, using the previous block's last
// frame for index -1 and holding the final frame past the end.
func (r *Resampler) sampleAt(input []int16, index, ch, frames int) int16 {
	switch {
	case index < 0:
		return r.last[ch]
	case index >= frames:
		return input[(frames-1)*r.channels+ch]
	}
	return input[index*r.channels+ch]
}

// Reset clears the stream state before an unrelated block.
func (r *Resampler) Reset() {
	r.position = 0
	clear(r.last)
}

// InputRate returns the configured input sample rate.
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the configured output sample rate.
func (r *Resampler) OutputRate() int { return r.outputRate }

// ResampleChunk converts a chunk to the given rate as an S16 chunk.
func ResampleChunk(c *Chunk, rate int) (*Chunk, error) {
	info := c.Info()
	if info.SampleRate == rate && info.SampleType == S16 {
		return c, nil
	}
	r, err := NewResampler(ResamplerConfig{InputRate: info.SampleRate, OutputRate: rate, Channels: info.Channels})
	if err != nil {
		return nil, err
	}
	out, err := r.Resample(c.Int16s())
	if err != nil {
		return nil, err
	}
	info.SampleRate = rate
	return NewChunkFromInt16(info, out), nil
}
