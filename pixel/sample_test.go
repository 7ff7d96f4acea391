package pixel

import (
	"encoding/binary"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const colorDelta = 1e-3

func assertColor(t *testing.T, want, got Color4f) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, colorDelta, "R")
	assert.InDelta(t, want.G, got.G, colorDelta, "G")
	assert.InDelta(t, want.B, got.B, colorDelta, "B")
	assert.InDelta(t, want.A, got.A, colorDelta, "A")
}

// fillYUV sets every luma sample to y and every chroma sample to u, v.
func fillYUV(img *Image, y, u, v byte) {
	info := img.Info()
	cw, ch := info.ChromaSize()
	data := img.Data()
	luma := info.Width * info.Height
	for i := 0; i < luma; i++ {
		data[i] = y
	}
	for i := 0; i < cw*ch; i++ {
		data[luma+i] = u
		data[luma+cw*ch+i] = v
	}
}

func TestSamplePixel_RGBMirror(t *testing.T) {
	img := newTestImage(t, 2, 1, RGBU8)
	copy(img.Data(), []byte{255, 0, 0, 0, 0, 255})

	c, err := SamplePixel(img, 0, 0, SampleOptions{})
	require.NoError(t, err)
	assertColor(t, Color4f{1, 0, 0, 1}, c)

	c, err = SamplePixel(img, 0, 0, SampleOptions{MirrorX: true})
	require.NoError(t, err)
	assertColor(t, Color4f{0, 0, 1, 1}, c)
}

func TestSamplePixel_MirrorY(t *testing.T) {
	img := newTestImage(t, 1, 2, LU16)
	copy(Samples[uint16](img.Data()), []uint16{0, 65535})

	c, err := SamplePixel(img, 0, 0, SampleOptions{MirrorY: true})
	require.NoError(t, err)
	assertColor(t, Color4f{1, 1, 1, 1}, c)
}

func TestSamplePixel_LuminanceAlpha(t *testing.T) {
	img := newTestImage(t, 1, 1, LAF32)
	copy(Samples[float32](img.Data()), []float32{0.25, 0.5})

	c, err := SamplePixel(img, 0, 0, SampleOptions{})
	require.NoError(t, err)
	assertColor(t, Color4f{0.25, 0.25, 0.25, 0.5}, c)
}

func TestSamplePixel_OutOfRange(t *testing.T) {
	img := newTestImage(t, 2, 2, RGBAU8)
	for _, p := range []image.Point{{-1, 0}, {2, 0}, {0, 2}, {0, -1}} {
		_, err := SamplePixel(img, p.X, p.Y, SampleOptions{})
		assert.ErrorIs(t, err, ErrSampleOutOfRange, "%v", p)
	}
}

func TestSamplePixel_U10(t *testing.T) {
	img := newTestImage(t, 1, 1, RGBU10)
	binary.LittleEndian.PutUint32(img.Data(), PackU10(1, 0.5, 0))

	c, err := SamplePixel(img, 0, 0, SampleOptions{})
	require.NoError(t, err)
	assertColor(t, Color4f{1, 0.5, 0, 1}, c)
}

func TestSamplePixel_YUVFullRangeGrey(t *testing.T) {
	img := newTestImage(t, 4, 4, YUV420PU8)
	fillYUV(img, 128, 128, 128)

	c, err := SamplePixel(img, 3, 3, SampleOptions{})
	require.NoError(t, err)
	grey := float32(128) / 255
	assertColor(t, Color4f{grey, grey, grey, 1}, c)
}

func TestSamplePixel_YUVLegalRangeWhite(t *testing.T) {
	img, err := NewImage(Info{Width: 2, Height: 2, PixelType: YUV444PU8, VideoLevels: LegalRange})
	require.NoError(t, err)
	fillYUV(img, 235, 128, 128)

	c, err := SamplePixel(img, 1, 1, SampleOptions{})
	require.NoError(t, err)
	assertColor(t, Color4f{1, 1, 1, 1}, c)
}

func TestSamplePixel_YUVRedChroma(t *testing.T) {
	img := newTestImage(t, 2, 2, YUV444PU8)
	fillYUV(img, 128, 128, 255)

	c, err := SamplePixel(img, 0, 0, SampleOptions{})
	require.NoError(t, err)
	assert.Greater(t, c.R, c.G)
	assert.Greater(t, c.R, c.B)
}

func TestSamplePixel_YUV420OddDimensions(t *testing.T) {
	img := newTestImage(t, 3, 3, YUV420PU8)
	fillYUV(img, 128, 128, 128)
	// The last chroma sample covers the odd bottom-right luma sample.
	info := img.Info()
	cw, ch := info.ChromaSize()
	require.Equal(t, 2, cw)
	require.Equal(t, 2, ch)
	img.Data()[9+cw*ch+3] = 255

	c, err := SamplePixel(img, 2, 2, SampleOptions{})
	require.NoError(t, err)
	assert.Greater(t, c.R, c.B)

	c, err = SamplePixel(img, 0, 0, SampleOptions{})
	require.NoError(t, err)
	assert.InDelta(t, c.R, c.B, colorDelta)
}

func TestSamplePixel_YUV422Chroma(t *testing.T) {
	img := newTestImage(t, 4, 2, YUV422PU16)
	s := Samples[uint16](img.Data())
	for i := range s {
		s[i] = 32768
	}
	// Second row, second chroma column covers x = 2..3.
	cw, ch := img.Info().ChromaSize()
	s[8+cw*ch+1*cw+1] = 65535

	c, err := SamplePixel(img, 3, 1, SampleOptions{})
	require.NoError(t, err)
	assert.Greater(t, c.R, c.B)

	c, err = SamplePixel(img, 1, 1, SampleOptions{})
	require.NoError(t, err)
	assert.InDelta(t, c.R, c.B, colorDelta)
}

func TestYPbPrToRGB_Coefficients(t *testing.T) {
	for _, k := range []YUVCoefficients{REC709, BT2020, BT601} {
		c := YPbPrToRGB(Color4f{R: 0.5, A: 1}, k.Coefficients())
		assertColor(t, Color4f{0.5, 0.5, 0.5, 1}, c)
	}
}

func TestCheckLevels(t *testing.T) {
	full := CheckLevels(Color4f{R: 0.5, G: 0.5, B: 0.75}, FullRange)
	assertColor(t, Color4f{R: 0.5, G: 0, B: 0.25}, full)

	legal := CheckLevels(Color4f{R: 16.0 / 255, G: 240.0 / 255, B: 16.0 / 255}, LegalRange)
	assertColor(t, Color4f{R: 0, G: 0.5, B: -0.5}, legal)
}

func TestMeasureArea(t *testing.T) {
	img := newTestImage(t, 2, 2, LU8)
	copy(img.Data(), []byte{0, 255, 51, 102})

	stats, err := MeasureArea(img, image.Rect(-5, -5, 10, 10), SampleOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Pixels)
	assert.InDelta(t, 0, stats.Min.R, colorDelta)
	assert.InDelta(t, 1, stats.Max.R, colorDelta)
	assert.InDelta(t, 0.4, stats.Mean.R, colorDelta)

	_, err = MeasureArea(img, image.Rect(5, 5, 6, 6), SampleOptions{})
	assert.ErrorIs(t, err, ErrSampleOutOfRange)
}
