package pixel

import (
	"encoding/binary"
	"fmt"
)

// SampleOptions controls coordinate mapping when sampling a pixel.
type SampleOptions struct {
	// MirrorX samples from the horizontally mirrored position.
	MirrorX bool
	// MirrorY samples from the vertically mirrored position.
	MirrorY bool
}

// SamplePixel reads the pixel at (x, y) and returns it as normalized RGBA.
//
// Mirroring is applied to the coordinates before any offset is computed.
// Luminance layouts replicate L into R, G and B. Layouts without alpha
// report an alpha of 1. Planar YUV samples are levels-corrected and
// converted to RGB with the image's YUV coefficients.
//
// Parameters:
//   - img: Image to sample
//   - x, y: Pixel position, origin at the top-left
//   - opts: Mirroring options
//
// Returns:
//   - Color4f: Normalized colour
//   - error: ErrSampleOutOfRange for positions outside the image,
//     ErrInvalidImage for images without a sampleable layout
func SamplePixel(img *Image, x, y int, opts SampleOptions) (Color4f, error) {
	if img == nil {
		return Color4f{}, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	w, h := img.Width(), img.Height()
	if x < 0 || y < 0 || x >= w || y >= h {
		return Color4f{}, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrSampleOutOfRange, x, y, w, h)
	}
	if opts.MirrorX {
		x = w - x - 1
	}
	if opts.MirrorY {
		y = h - y - 1
	}

	pt := img.PixelType()
	if pt.IsPlanar() {
		return samplePlanar(img, x, y), nil
	}
	if pt == RGBU10 {
		return sampleU10(img.Data(), y*w+x), nil
	}

	channels := pt.ChannelCount()
	offset := (y*w + x) * channels
	var c [4]float32
	switch pt.SampleType() {
	case SampleU8:
		readNormalized(c[:channels], Samples[uint8](img.Data())[offset:])
	case SampleU16:
		readNormalized(c[:channels], Samples[uint16](img.Data())[offset:])
	case SampleU32:
		readNormalized(c[:channels], Samples[uint32](img.Data())[offset:])
	case SampleF16:
		readNormalized(c[:channels], Samples[Half](img.Data())[offset:])
	case SampleF32:
		readNormalized(c[:channels], Samples[float32](img.Data())[offset:])
	default:
		return Color4f{}, fmt.Errorf("%w: cannot sample %s", ErrInvalidImage, pt)
	}

	switch pt.Layout() {
	case LayoutL:
		return Color4f{R: c[0], G: c[0], B: c[0], A: 1}, nil
	case LayoutLA:
		return Color4f{R: c[0], G: c[0], B: c[0], A: c[1]}, nil
	case LayoutRGB:
		return Color4f{R: c[0], G: c[1], B: c[2], A: 1}, nil
	}
	return Color4f{R: c[0], G: c[1], B: c[2], A: c[3]}, nil
}

func readNormalized[T Sample](dst []float32, src []T) {
	for i := range dst {
		dst[i] = ToFloat(src[i])
	}
}

// sampleU10 unpacks a little-endian 32-bit word laid out as
// r:10 g:10 b:10 pad:2 from the most significant bit down.
func sampleU10(data []byte, index int) Color4f {
	word := binary.LittleEndian.Uint32(data[index*4:])
	return Color4f{
		R: float32((word>>22)&0x3ff) / 1023,
		G: float32((word>>12)&0x3ff) / 1023,
		B: float32((word>>2)&0x3ff) / 1023,
		A: 1,
	}
}

// PackU10 packs normalized RGB into the RGB_U10 word layout read by
// SamplePixel.
func PackU10(r, g, b float32) uint32 {
	q := func(v float32) uint32 { return uint32(quantize(float64(v), 1023)) }
	return q(r)<<22 | q(g)<<12 | q(b)<<2
}

func samplePlanar(img *Image, x, y int) Color4f {
	info := img.Info()
	w, h := info.Width, info.Height
	cw, ch := info.ChromaSize()

	lumaOffset := y*w + x
	var chromaOffset int
	switch info.PixelType.Layout() {
	case LayoutYUV420P:
		chromaOffset = (y/2)*cw + x/2
	case LayoutYUV422P:
		chromaOffset = y*cw + x/2
	default:
		chromaOffset = lumaOffset
	}
	uStart := w * h
	vStart := uStart + cw*ch

	var c Color4f
	if info.PixelType.SampleType() == SampleU16 {
		s := Samples[uint16](img.Data())
		c = Color4f{
			R: ToFloat(s[lumaOffset]),
			G: ToFloat(s[uStart+chromaOffset]),
			B: ToFloat(s[vStart+chromaOffset]),
			A: 1,
		}
	} else {
		s := img.Data()
		c = Color4f{
			R: ToFloat(s[lumaOffset]),
			G: ToFloat(s[uStart+chromaOffset]),
			B: ToFloat(s[vStart+chromaOffset]),
			A: 1,
		}
	}

	c = CheckLevels(c, info.VideoLevels)
	return YPbPrToRGB(c, info.YUVCoefficients.Coefficients())
}
