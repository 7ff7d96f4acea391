package pixel

import (
	"math"
	"unsafe"

	"github.com/x448/float16"
)

// Half is an IEEE 754 binary16 channel sample.
type Half = float16.Float16

// Sample is the set of channel storage types the converters operate on.
// The types are listed exactly: Half shares uint16's underlying type and
// must not be treated as an integer.
type Sample interface {
	uint8 | uint16 | uint32 | Half | float32
}

// sampleMax returns the normalization divisor of T, or 0 for floating types.
func sampleMax[T Sample]() float64 {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return math.MaxUint8
	case uint16:
		return math.MaxUint16
	case uint32:
		return math.MaxUint32
	}
	return 0
}

// IsInteger reports whether T is an integral sample type.
func IsInteger[T Sample]() bool {
	return sampleMax[T]() != 0
}

// ToFloat normalizes a channel sample. Integer samples are divided by their
// type maximum; floating samples are returned unchanged.
func ToFloat[T Sample](v T) float32 {
	switch x := any(v).(type) {
	case uint8:
		return float32(x) / math.MaxUint8
	case uint16:
		return float32(x) / math.MaxUint16
	case uint32:
		return float32(float64(x) / math.MaxUint32)
	case Half:
		return x.Float32()
	case float32:
		return x
	}
	return 0
}

// FromFloat converts a normalized value into T. Integer targets scale by the
// type maximum, clamp to [0, max] and round to nearest. Floating targets keep
// the value as is, so out-of-range and negative values survive.
func FromFloat[T Sample](v float32) T {
	var out T
	switch p := any(&out).(type) {
	case *uint8:
		*p = uint8(quantize(float64(v), math.MaxUint8))
	case *uint16:
		*p = uint16(quantize(float64(v), math.MaxUint16))
	case *uint32:
		*p = uint32(quantize(float64(v), math.MaxUint32))
	case *Half:
		*p = float16.Fromfloat32(v)
	case *float32:
		*p = v
	}
	return out
}

func quantize(v, max float64) float64 {
	v *= max
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > max {
		return max
	}
	return math.Round(v)
}

// ConvertChannel converts one channel sample from In to Out.
//
// Integer to integer conversions use the exact ratio of the two type maxima
// (for example 65535/255) so that full scale maps to full scale and 8-bit
// values survive a round trip through 16 bits. Every other pairing goes
// through the normalized float representation.
func ConvertChannel[Out, In Sample](v In) Out {
	inMax, outMax := sampleMax[In](), sampleMax[Out]()
	if inMax != 0 && outMax != 0 {
		var out Out
		scaled := math.Round(rawFloat(v) * outMax / inMax)
		if scaled > outMax {
			scaled = outMax
		}
		switch p := any(&out).(type) {
		case *uint8:
			*p = uint8(scaled)
		case *uint16:
			*p = uint16(scaled)
		case *uint32:
			*p = uint32(scaled)
		}
		return out
	}
	return FromFloat[Out](ToFloat(v))
}

// rawFloat returns the stored value of a sample without normalization.
func rawFloat[T Sample](v T) float64 {
	switch x := any(v).(type) {
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case Half:
		return float64(x.Float32())
	case float32:
		return float64(x)
	}
	return 0
}

// RawFloat returns the stored value of a sample as float64, without any
// normalization. Integer samples keep their native range.
func RawFloat[T Sample](v T) float64 { return rawFloat(v) }

// FromRaw stores a value in its native range into T. Integer targets clamp
// to the type range and round to nearest; floating targets are cast.
func FromRaw[T Sample](v float64) T {
	var out T
	switch p := any(&out).(type) {
	case *uint8:
		*p = uint8(saturate(v, math.MaxUint8))
	case *uint16:
		*p = uint16(saturate(v, math.MaxUint16))
	case *uint32:
		*p = uint32(saturate(v, math.MaxUint32))
	case *Half:
		*p = float16.Fromfloat32(float32(v))
	case *float32:
		*p = float32(v)
	}
	return out
}

func saturate(v, max float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > max {
		return max
	}
	return math.RoundToEven(v)
}

// Samples reinterprets a byte buffer as a slice of T without copying.
// Multi-byte samples are read in host byte order, which matches the
// little-endian layout produced by this package on all supported targets.
func Samples[T Sample](b []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b) < size {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size)
}
