package pixel

import (
	"fmt"
	"strings"
)

// PixelType identifies the memory layout of an image: channel layout,
// sample type and, for YUV types, plane subsampling.
type PixelType int

// Pixel types.
const (
	None PixelType = iota

	LU8
	LU16
	LU32
	LF16
	LF32

	LAU8
	LAU16
	LAU32
	LAF16
	LAF32

	RGBU8
	RGBU10
	RGBU16
	RGBU32
	RGBF16
	RGBF32

	RGBAU8
	RGBAU16
	RGBAU32
	RGBAF16
	RGBAF32

	YUV420PU8
	YUV422PU8
	YUV444PU8

	YUV420PU16
	YUV422PU16
	YUV444PU16

	pixelTypeCount
)

var pixelTypeNames = [pixelTypeCount]string{
	"None",
	"L_U8", "L_U16", "L_U32", "L_F16", "L_F32",
	"LA_U8", "LA_U16", "LA_U32", "LA_F16", "LA_F32",
	"RGB_U8", "RGB_U10", "RGB_U16", "RGB_U32", "RGB_F16", "RGB_F32",
	"RGBA_U8", "RGBA_U16", "RGBA_U32", "RGBA_F16", "RGBA_F32",
	"YUV_420P_U8", "YUV_422P_U8", "YUV_444P_U8",
	"YUV_420P_U16", "YUV_422P_U16", "YUV_444P_U16",
}

// SampleType is the storage type of one channel sample.
type SampleType int

// Sample types.
const (
	SampleNone SampleType = iota
	SampleU8
	SampleU10
	SampleU16
	SampleU32
	SampleF16
	SampleF32
)

// Layout is the channel arrangement of a pixel type.
type Layout int

// Channel layouts.
const (
	LayoutNone Layout = iota
	LayoutL
	LayoutLA
	LayoutRGB
	LayoutRGBA
	LayoutYUV420P
	LayoutYUV422P
	LayoutYUV444P
)

type formatDesc struct {
	layout   Layout
	sample   SampleType
	channels int
	bits     int
}

var formats = [pixelTypeCount]formatDesc{
	None: {LayoutNone, SampleNone, 0, 0},

	LU8:  {LayoutL, SampleU8, 1, 8},
	LU16: {LayoutL, SampleU16, 1, 16},
	LU32: {LayoutL, SampleU32, 1, 32},
	LF16: {LayoutL, SampleF16, 1, 16},
	LF32: {LayoutL, SampleF32, 1, 32},

	LAU8:  {LayoutLA, SampleU8, 2, 8},
	LAU16: {LayoutLA, SampleU16, 2, 16},
	LAU32: {LayoutLA, SampleU32, 2, 32},
	LAF16: {LayoutLA, SampleF16, 2, 16},
	LAF32: {LayoutLA, SampleF32, 2, 32},

	RGBU8:  {LayoutRGB, SampleU8, 3, 8},
	RGBU10: {LayoutRGB, SampleU10, 3, 10},
	RGBU16: {LayoutRGB, SampleU16, 3, 16},
	RGBU32: {LayoutRGB, SampleU32, 3, 32},
	RGBF16: {LayoutRGB, SampleF16, 3, 16},
	RGBF32: {LayoutRGB, SampleF32, 3, 32},

	RGBAU8:  {LayoutRGBA, SampleU8, 4, 8},
	RGBAU16: {LayoutRGBA, SampleU16, 4, 16},
	RGBAU32: {LayoutRGBA, SampleU32, 4, 32},
	RGBAF16: {LayoutRGBA, SampleF16, 4, 16},
	RGBAF32: {LayoutRGBA, SampleF32, 4, 32},

	YUV420PU8: {LayoutYUV420P, SampleU8, 3, 8},
	YUV422PU8: {LayoutYUV422P, SampleU8, 3, 8},
	YUV444PU8: {LayoutYUV444P, SampleU8, 3, 8},

	YUV420PU16: {LayoutYUV420P, SampleU16, 3, 16},
	YUV422PU16: {LayoutYUV422P, SampleU16, 3, 16},
	YUV444PU16: {LayoutYUV444P, SampleU16, 3, 16},
}

func (p PixelType) desc() formatDesc {
	if p < 0 || p >= pixelTypeCount {
		return formatDesc{}
	}
	return formats[p]
}

// String returns the canonical name of the pixel type, e.g. "RGBA_F32".
func (p PixelType) String() string {
	if p < 0 || p >= pixelTypeCount {
		return fmt.Sprintf("PixelType(%d)", int(p))
	}
	return pixelTypeNames[p]
}

// Valid reports whether p names a real pixel layout.
func (p PixelType) Valid() bool {
	return p > None && p < pixelTypeCount
}

// Layout returns the channel arrangement of the pixel type.
func (p PixelType) Layout() Layout { return p.desc().layout }

// SampleType returns the storage type of one channel.
func (p PixelType) SampleType() SampleType { return p.desc().sample }

// ChannelCount returns the number of channels per pixel. YUV types report 3.
func (p PixelType) ChannelCount() int { return p.desc().channels }

// BitDepth returns the number of significant bits per channel.
func (p PixelType) BitDepth() int { return p.desc().bits }

// HasAlpha reports whether the layout carries an alpha channel.
func (p PixelType) HasAlpha() bool {
	l := p.Layout()
	return l == LayoutLA || l == LayoutRGBA
}

// IsPlanar reports whether the pixel type stores YUV planes.
func (p PixelType) IsPlanar() bool {
	switch p.Layout() {
	case LayoutYUV420P, LayoutYUV422P, LayoutYUV444P:
		return true
	}
	return false
}

// IsFloat reports whether channels are stored as floating point.
func (p PixelType) IsFloat() bool {
	s := p.SampleType()
	return s == SampleF16 || s == SampleF32
}

// BytesPerSample returns the storage size of one channel sample.
// RGB_U10 reports 4 because its three channels share one 32-bit word.
func (p PixelType) BytesPerSample() int {
	switch p.SampleType() {
	case SampleU8:
		return 1
	case SampleU16, SampleF16:
		return 2
	case SampleU10, SampleU32, SampleF32:
		return 4
	}
	return 0
}

// BytesPerPixel returns the storage size of a packed pixel. Planar types
// report 0 since their size depends on the image dimensions.
func (p PixelType) BytesPerPixel() int {
	if p.IsPlanar() {
		return 0
	}
	if p == RGBU10 {
		return 4
	}
	return p.ChannelCount() * p.BytesPerSample()
}

// ParsePixelType parses a canonical pixel type name such as "RGB_U8".
// Matching is case-insensitive.
func ParsePixelType(name string) (PixelType, error) {
	for i, n := range pixelTypeNames {
		if strings.EqualFold(n, name) {
			return PixelType(i), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownPixelType, name)
}

// PackedType returns the packed pixel type for a layout and sample type, or
// None when the combination does not exist.
func PackedType(layout Layout, sample SampleType) PixelType {
	for i := LU8; i < pixelTypeCount; i++ {
		d := formats[i]
		if d.layout == layout && d.sample == sample {
			return i
		}
	}
	return None
}
