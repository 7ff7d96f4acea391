package pixel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/x448/float16"
)

func TestFromFloat_Integer(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		u8   uint8
		u16  uint16
	}{
		{"zero", 0, 0, 0},
		{"one", 1, 255, 65535},
		{"half", 0.5, 128, 32768},
		{"negative clamps", -0.5, 0, 0},
		{"overrange clamps", 2, 255, 65535},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.u8, FromFloat[uint8](tt.in))
			assert.Equal(t, tt.u16, FromFloat[uint16](tt.in))
		})
	}
}

func TestFromFloat_Uint32FullScale(t *testing.T) {
	assert.Equal(t, uint32(math.MaxUint32), FromFloat[uint32](1))
	assert.Equal(t, uint32(math.MaxUint32), FromFloat[uint32](5))
}

func TestFromFloat_FloatPassThrough(t *testing.T) {
	assert.Equal(t, float32(2), FromFloat[float32](2))
	assert.Equal(t, float32(-0.25), FromFloat[float32](-0.25))
	assert.Equal(t, float32(2), FromFloat[Half](2).Float32())
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, float32(1), ToFloat(uint8(255)))
	assert.Equal(t, float32(1), ToFloat(uint16(65535)))
	assert.Equal(t, float32(0), ToFloat(uint16(0)))
	assert.InDelta(t, 0.5, ToFloat(float16.Fromfloat32(0.5)), 1e-6)
	assert.Equal(t, float32(3.5), ToFloat(float32(3.5)))
}

func TestConvertChannel_IntegerRatio(t *testing.T) {
	assert.Equal(t, uint16(65535), ConvertChannel[uint16](uint8(255)))
	assert.Equal(t, uint16(257), ConvertChannel[uint16](uint8(1)))
	assert.Equal(t, uint8(255), ConvertChannel[uint8](uint16(65535)))
	assert.Equal(t, uint8(0), ConvertChannel[uint8](uint16(128)))
	assert.Equal(t, uint8(1), ConvertChannel[uint8](uint16(257)))
}

func TestConvertChannel_U8RoundTripThroughU16(t *testing.T) {
	for v := 0; v <= 255; v++ {
		wide := ConvertChannel[uint16](uint8(v))
		assert.Equal(t, uint8(v), ConvertChannel[uint8](wide), "value %d", v)
	}
}

func TestConvertChannel_FloatRoundTripWithinOneStep(t *testing.T) {
	for _, v := range []float32{0, 0.1, 0.33, 0.5, 0.75, 0.999, 1} {
		u8 := ConvertChannel[uint8](v)
		assert.InDelta(t, v, ConvertChannel[float32](u8), 1.0/255)
		u16 := ConvertChannel[uint16](v)
		assert.InDelta(t, v, ConvertChannel[float32](u16), 1.0/65535)
	}
}

func TestFromRaw_Saturates(t *testing.T) {
	assert.Equal(t, uint8(255), FromRaw[uint8](300))
	assert.Equal(t, uint8(0), FromRaw[uint8](-3))
	assert.Equal(t, uint8(2), FromRaw[uint8](2.5))
	assert.Equal(t, uint16(4), FromRaw[uint16](3.6))
	assert.Equal(t, float32(-3), FromRaw[float32](-3))
}

func TestSamples_View(t *testing.T) {
	buf := make([]byte, 8)
	s := Samples[uint16](buf)
	assert.Len(t, s, 4)
	s[1] = 0x0102
	assert.Equal(t, byte(0x02), buf[2])
	assert.Nil(t, Samples[float32]([]byte{1, 2}))
}
