package imageops

import (
	"fmt"

	"github.com/opd-ai/framewright/pixel"
)

// ScaleLinear resizes an interleaved image with bilinear interpolation.
//
// With alignCorners the corner pixel centres of source and destination
// coincide and the scale is (sw-1)/(dw-1); otherwise pixel centres are
// aligned by sampling at (i+0.5)*sw/dw - 0.5. Sample positions are clamped
// to the source, so edge pixels never read outside the buffer. Accumulation
// is done in float64; integer results saturate and round to nearest even,
// floating results are cast.
//
// Parameters:
//   - src: Source samples, sw*sh*channels long
//   - sw, sh: Source dimensions
//   - dst: Destination samples, dw*dh*channels long
//   - dw, dh: Destination dimensions
//   - channels: Interleaved channels per pixel
//   - alignCorners: Corner alignment mode
func ScaleLinear[T pixel.Sample](src []T, sw, sh int, dst []T, dw, dh, channels int, alignCorners bool) {
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 || channels <= 0 {
		return
	}
	xScale := scaleFactor(sw, dw, alignCorners)
	yScale := scaleFactor(sh, dh, alignCorners)

	for j := 0; j < dh; j++ {
		sy := samplePosition(j, yScale, sh, alignCorners)
		y0 := int(sy)
		y1 := min(y0+1, sh-1)
		wy := sy - float64(y0)

		for i := 0; i < dw; i++ {
			sx := samplePosition(i, xScale, sw, alignCorners)
			x0 := int(sx)
			x1 := min(x0+1, sw-1)
			wx := sx - float64(x0)

			p00 := (y0*sw + x0) * channels
			p01 := (y0*sw + x1) * channels
			p10 := (y1*sw + x0) * channels
			p11 := (y1*sw + x1) * channels
			out := (j*dw + i) * channels

			for c := 0; c < channels; c++ {
				top := pixel.RawFloat(src[p00+c])*(1-wx) + pixel.RawFloat(src[p01+c])*wx
				bottom := pixel.RawFloat(src[p10+c])*(1-wx) + pixel.RawFloat(src[p11+c])*wx
				dst[out+c] = pixel.FromRaw[T](top*(1-wy) + bottom*wy)
			}
		}
	}
}

func scaleFactor(src, dst int, alignCorners bool) float64 {
	if alignCorners && dst > 1 {
		return float64(src-1) / float64(dst-1)
	}
	return float64(src) / float64(dst)
}

func samplePosition(i int, scale float64, size int, alignCorners bool) float64 {
	var s float64
	if alignCorners {
		s = float64(i) * scale
	} else {
		s = (float64(i)+0.5)*scale - 0.5
	}
	if s < 0 {
		return 0
	}
	if limit := float64(size - 1); s > limit {
		return limit
	}
	return s
}

// ScaleImage resamples src into dst. Both images must share a packed pixel
// type; dst's dimensions select the output size.
func ScaleImage(dst, src *pixel.Image, alignCorners bool) error {
	if dst == nil || src == nil {
		return ErrNilImage
	}
	pt := src.PixelType()
	if dst.PixelType() != pt {
		return fmt.Errorf("%w: %s into %s", ErrPixelTypeMismatch, pt, dst.PixelType())
	}
	if pt.IsPlanar() || pt == pixel.RGBU10 {
		return fmt.Errorf("%w: cannot resample %s", pixel.ErrUnsupportedConversion, pt)
	}

	sw, sh := src.Width(), src.Height()
	dw, dh := dst.Width(), dst.Height()
	ch := pt.ChannelCount()
	switch pt.SampleType() {
	case pixel.SampleU8:
		ScaleLinear(src.Data(), sw, sh, dst.Data(), dw, dh, ch, alignCorners)
	case pixel.SampleU16:
		ScaleLinear(pixel.Samples[uint16](src.Data()), sw, sh, pixel.Samples[uint16](dst.Data()), dw, dh, ch, alignCorners)
	case pixel.SampleU32:
		ScaleLinear(pixel.Samples[uint32](src.Data()), sw, sh, pixel.Samples[uint32](dst.Data()), dw, dh, ch, alignCorners)
	case pixel.SampleF16:
		ScaleLinear(pixel.Samples[pixel.Half](src.Data()), sw, sh, pixel.Samples[pixel.Half](dst.Data()), dw, dh, ch, alignCorners)
	case pixel.SampleF32:
		ScaleLinear(pixel.Samples[float32](src.Data()), sw, sh, pixel.Samples[float32](dst.Data()), dw, dh, ch, alignCorners)
	default:
		return fmt.Errorf("%w: cannot resample %s", pixel.ErrUnsupportedConversion, pt)
	}
	return nil
}
