package imageops

import (
	"fmt"

	"github.com/opd-ai/framewright/pixel"
)

// CompositeOver composites an RGBA_U8 overlay onto dst in place.
//
// For every pixel with non-zero overlay alpha a:
//
//	rgb = min(src + dst*(1-a), 1)
//	a'  = a*a + a_dst*(1-a)          (RGBA destinations only)
//
// Pixels where the overlay is fully transparent are left untouched. Colour
// results are truncated into the destination range. The alpha result is not
// clamped to 1, so floating destinations with alpha above 1 keep it; integer
// destinations saturate at their type maximum.
//
// Parameters:
//   - dst: RGB or RGBA destination of any sample type except U10
//   - src: RGBA_U8 overlay with the same dimensions
//
// Returns:
//   - error: ErrUnsupportedComposite, pixel.ErrSizeMismatch or ErrNilImage
func CompositeOver(dst, src *pixel.Image) error {
	if dst == nil || src == nil {
		return ErrNilImage
	}
	if src.PixelType() != pixel.RGBAU8 {
		return fmt.Errorf("%w: overlay must be RGBA_U8, got %s", ErrUnsupportedComposite, src.PixelType())
	}
	if !dst.SameSize(src) {
		return fmt.Errorf("%w: %s over %s", pixel.ErrSizeMismatch, src.Info(), dst.Info())
	}

	n := dst.Width() * dst.Height()
	overlay := src.Data()
	data := dst.Data()
	switch dst.PixelType() {
	case pixel.RGBAU8:
		compositeRGBA(data, overlay, n)
	case pixel.RGBAU16:
		compositeRGBA(pixel.Samples[uint16](data), overlay, n)
	case pixel.RGBAU32:
		compositeRGBA(pixel.Samples[uint32](data), overlay, n)
	case pixel.RGBAF16:
		compositeRGBA(pixel.Samples[pixel.Half](data), overlay, n)
	case pixel.RGBAF32:
		compositeRGBA(pixel.Samples[float32](data), overlay, n)
	case pixel.RGBU8:
		compositeRGB(data, overlay, n)
	case pixel.RGBU16:
		compositeRGB(pixel.Samples[uint16](data), overlay, n)
	case pixel.RGBU32:
		compositeRGB(pixel.Samples[uint32](data), overlay, n)
	case pixel.RGBF16:
		compositeRGB(pixel.Samples[pixel.Half](data), overlay, n)
	case pixel.RGBF32:
		compositeRGB(pixel.Samples[float32](data), overlay, n)
	default:
		return fmt.Errorf("%w: destination %s", ErrUnsupportedComposite, dst.PixelType())
	}
	return nil
}

// compositeRGBA blends a 4-channel overlay onto a 4-channel destination.
func compositeRGBA[T pixel.Sample](dst []T, src []uint8, pixels int) {
	for i := 0; i < pixels; i++ {
		s := src[i*4 : i*4+4]
		if s[3] == 0 {
			continue
		}
		a := float32(s[3]) / 255
		d := dst[i*4 : i*4+4]
		blendRGB(d, s, a)
		da := pixel.ToFloat(d[3])
		d[3] = fromFloatTrunc[T](a*a + da*(1-a))
	}
}

// compositeRGB blends a 4-channel overlay onto a 3-channel destination.
func compositeRGB[T pixel.Sample](dst []T, src []uint8, pixels int) {
	for i := 0; i < pixels; i++ {
		s := src[i*4 : i*4+4]
		if s[3] == 0 {
			continue
		}
		blendRGB(dst[i*3:i*3+3], s, float32(s[3])/255)
	}
}

func blendRGB[T pixel.Sample](d []T, s []uint8, a float32) {
	for c := 0; c < 3; c++ {
		v := float32(s[c])/255 + pixel.ToFloat(d[c])*(1-a)
		d[c] = fromFloatTrunc[T](min(v, 1))
	}
}

// fromFloatTrunc stores a normalized value, truncating toward zero for
// integer types and saturating at the type range.
func fromFloatTrunc[T pixel.Sample](v float32) T {
	if !pixel.IsInteger[T]() {
		return pixel.FromFloat[T](v)
	}
	scaled := float64(v) * pixel.RawFloat(pixel.FromFloat[T](1))
	return pixel.FromRaw[T](float64(int64(scaled)))
}
