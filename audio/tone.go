package audio

import "math"

// Tone returns a sine tone block of samples samples starting at sample
// offset start, so that consecutive blocks join seamlessly. Every channel
// carries the same signal. Amplitude is in [0, 1].
func Tone(info Info, frequency, amplitude float64, start, samples int) *Chunk {
	if samples <= 0 || !info.IsValid() {
		return NewSilence(info, 0)
	}
	step := 2 * math.Pi * frequency / float64(info.SampleRate)
	values := make([]float32, samples*info.Channels)
	for i := 0; i < samples; i++ {
		v := float32(amplitude * math.Sin(step*float64(start+i)))
		for ch := 0; ch < info.Channels; ch++ {
			values[i*info.Channels+ch] = v
		}
	}
	if info.SampleType == F32 {
		return NewChunkFromFloat32(info, values)
	}
	pcm := make([]int16, len(values))
	for i, v := range values {
		pcm[i] = int16(math.Round(float64(v) * math.MaxInt16))
	}
	return NewChunkFromInt16(info, pcm)
}
