package audio

import (
	"bytes"
	"testing"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stereo48k = Info{Channels: 2, SampleType: S16, SampleRate: 48000}

func TestChunk_SilenceAndTrim(t *testing.T) {
	c := NewSilence(stereo48k, 48000)
	assert.Equal(t, 48000, c.SampleCount())
	assert.Len(t, c.Data(), 48000*4)
	assert.Equal(t, 1.0, c.Duration())

	trimmed := c.Trim(1000)
	assert.Equal(t, 1000, trimmed.SampleCount())
	assert.Len(t, trimmed.Data(), 4000)
	assert.Same(t, c, c.Trim(50000))
	assert.Equal(t, 0, c.Trim(-1).SampleCount())
}

func TestChunk_Int16RoundTrip(t *testing.T) {
	pcm := []int16{0, 1, -1, 32767, -32768, 1234}
	c := NewChunkFromInt16(stereo48k, pcm)
	assert.Equal(t, 3, c.SampleCount())
	assert.Equal(t, pcm, c.Int16s())
}

func TestChunk_Float32ToInt16(t *testing.T) {
	c := NewChunkFromFloat32(Info{Channels: 1, SampleType: F32, SampleRate: 8000}, []float32{0, 1, -1, 2})
	assert.Equal(t, []int16{0, 32767, -32767, 32767}, c.Int16s())
}

func TestResampler_UpsampleLength(t *testing.T) {
	r, err := NewResampler(ResamplerConfig{InputRate: 8000, OutputRate: 48000, Channels: 1})
	require.NoError(t, err)

	out, err := r.Resample(make([]int16, 80))
	require.NoError(t, err)
	assert.Len(t, out, 480)

	out, err = r.Resample(make([]int16, 80))
	require.NoError(t, err)
	assert.Len(t, out, 480)
}

func TestResampler_InterpolatesRamp(t *testing.T) {
	r, err := NewResampler(ResamplerConfig{InputRate: 1, OutputRate: 2, Channels: 1})
	require.NoError(t, err)
	out, err := r.Resample([]int16{0, 100, 200})
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 50, 100, 150, 200, 200}, out)
}

func TestResampler_Validation(t *testing.T) {
	_, err := NewResampler(ResamplerConfig{InputRate: 0, OutputRate: 48000, Channels: 1})
	assert.Error(t, err)
	_, err = NewResampler(ResamplerConfig{InputRate: 8000, OutputRate: 48000, Channels: 0})
	assert.Error(t, err)

	r, err := NewResampler(ResamplerConfig{InputRate: 8000, OutputRate: 16000, Channels: 2})
	require.NoError(t, err)
	_, err = r.Resample([]int16{1, 2, 3})
	assert.Error(t, err)
}

func TestResampleChunk(t *testing.T) {
	c := NewSilence(Info{Channels: 2, SampleType: S16, SampleRate: 24000}, 240)
	out, err := ResampleChunk(c, 48000)
	require.NoError(t, err)
	assert.Equal(t, 48000, out.Info().SampleRate)
	assert.Equal(t, 480, out.SampleCount())
}

func TestTone_ContinuesAcrossBlocks(t *testing.T) {
	info := Info{Channels: 1, SampleType: F32, SampleRate: 1000}
	whole := Tone(info, 10, 0.5, 0, 200)
	a := Tone(info, 10, 0.5, 0, 100)
	b := Tone(info, 10, 0.5, 100, 100)
	assert.Equal(t, whole.Data(), append(append([]byte(nil), a.Data()...), b.Data()...))
}

func TestPacketSampleCount(t *testing.T) {
	tests := []struct {
		name   string
		packet []byte
		want   int
	}{
		{"silk nb 10ms", []byte{0 << 3}, 480},
		{"silk wb 60ms", []byte{11 << 3}, 2880},
		{"celt fb 20ms", []byte{31 << 3}, 960},
		{"two frames", []byte{31<<3 | 1}, 1920},
		{"arbitrary frames", []byte{16<<3 | 3, 4}, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := PacketSampleCount(tt.packet)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	_, err := PacketSampleCount(nil)
	assert.ErrorIs(t, err, ErrEmptyPacket)
}

func TestOggOpusSource_SkipsUndecodablePages(t *testing.T) {
	var buf bytes.Buffer
	w, err := oggwriter.NewWith(&buf, 48000, 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		pkt := &rtp.Packet{
			Header:  rtp.Header{Version: 2, SequenceNumber: uint16(i), Timestamp: uint32(i * 960)},
			Payload: []byte{31 << 3, 0xde, 0xad, 0xbe, 0xef},
		}
		require.NoError(t, w.WriteRTP(pkt))
	}
	require.NoError(t, w.Close())

	src, err := NewOggOpusSource(&buf, 48000)
	require.NoError(t, err)
	assert.Equal(t, 5, src.Skipped())
	assert.LessOrEqual(t, src.SampleCount(), 5*960)
	assert.Equal(t, 48000, src.Info().SampleRate)

	c := src.Chunk(0, 100)
	require.NotNil(t, c)
	assert.Equal(t, 100, c.SampleCount())
	assert.Nil(t, src.Chunk(10, 100))
}
