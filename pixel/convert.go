package pixel

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// converterFunc converts n pixels between two raw buffers.
type converterFunc func(dst, src []byte, n int)

type conversionKey struct {
	in, out PixelType
}

// converters holds one strategy per supported (input, output) pair.
var converters = buildConverters()

func buildConverters() map[conversionKey]converterFunc {
	table := make(map[conversionKey]converterFunc)
	addFrom[uint8](table, RGBU8, RGBAU8)
	addFrom[uint16](table, RGBU16, RGBAU16)
	addFrom[Half](table, RGBF16, RGBAF16)
	addFrom[float32](table, RGBF32, RGBAF32)
	return table
}

// addFrom registers every output of the supported set for inputs stored as In.
func addFrom[In Sample](table map[conversionKey]converterFunc, rgb, rgba PixelType) {
	addPair[uint8, In](table, rgb, rgba, RGBU8, RGBAU8)
	addPair[uint16, In](table, rgb, rgba, RGBU16, RGBAU16)
	addPair[Half, In](table, rgb, rgba, RGBF16, RGBAF16)
	addPair[float32, In](table, rgb, rgba, RGBF32, RGBAF32)
}

func addPair[Out, In Sample](table map[conversionKey]converterFunc, inRGB, inRGBA, outRGB, outRGBA PixelType) {
	set := func(in, out PixelType, fn converterFunc) {
		if in != out {
			table[conversionKey{in, out}] = fn
		}
	}
	set(inRGB, outRGB, func(dst, src []byte, n int) {
		ConvertRGB(Samples[Out](dst), Samples[In](src), n)
	})
	set(inRGBA, outRGBA, func(dst, src []byte, n int) {
		ConvertRGBA(Samples[Out](dst), Samples[In](src), n)
	})
	set(inRGB, outRGBA, func(dst, src []byte, n int) {
		RGBToRGBA(Samples[Out](dst), Samples[In](src), n)
	})
	set(inRGBA, outRGB, func(dst, src []byte, n int) {
		RGBAToRGB(Samples[Out](dst), Samples[In](src), n)
	})
}

// CanConvert reports whether ConvertImage supports the pair. Identical types
// are always supported.
func CanConvert(in, out PixelType) bool {
	if in == out {
		return true
	}
	_, ok := converters[conversionKey{in, out}]
	return ok
}

// ConvertibleType returns the RGB or RGBA type ConvertImage can produce that
// is closest to p. Alpha is kept, luminance becomes RGB, YUV keeps its
// sample depth, RGB_U10 widens to 16 bits and 32-bit integers become
// 32-bit floats. None stays None.
func ConvertibleType(p PixelType) PixelType {
	if !p.Valid() {
		return None
	}
	sample := p.SampleType()
	switch sample {
	case SampleU10:
		sample = SampleU16
	case SampleU32:
		sample = SampleF32
	}
	if p.HasAlpha() {
		return PackedType(LayoutRGBA, sample)
	}
	return PackedType(LayoutRGB, sample)
}

// ConvertImage converts src into the pixel type of dst.
//
// When both images already share a pixel type no work is done and src is
// returned: the caller should use the result, not dst, as the converted
// image. Otherwise the pixels are converted into dst's buffer and dst is
// returned.
//
// Supported pairs are all combinations of {RGB, RGBA} x {U8, U16, F16, F32}.
// Any other pair leaves dst untouched and returns ErrUnsupportedConversion.
//
// Parameters:
//   - dst: Destination image, whose pixel type selects the output format
//   - src: Source image with the same dimensions
//
// Returns:
//   - *Image: The image holding the converted pixels (src or dst)
//   - error: ErrSizeMismatch or ErrUnsupportedConversion
func ConvertImage(dst, src *Image) (*Image, error) {
	if dst == nil || src == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	in, out := src.PixelType(), dst.PixelType()
	if in == out {
		return src, nil
	}
	if !src.SameSize(dst) {
		return nil, fmt.Errorf("%w: %s into %s", ErrSizeMismatch, src.Info(), dst.Info())
	}

	convert, ok := converters[conversionKey{in, out}]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "ConvertImage",
			"input":    in.String(),
			"output":   out.String(),
		}).Error("Unhandled buffer format")
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, in, out)
	}

	convert(dst.Data(), src.Data(), src.Width()*src.Height())
	return dst, nil
}
