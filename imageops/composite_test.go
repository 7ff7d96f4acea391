package imageops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/framewright/pixel"
)

func newImage(t *testing.T, w, h int, pt pixel.PixelType) *pixel.Image {
	t.Helper()
	img, err := pixel.NewImage(pixel.Info{Width: w, Height: h, PixelType: pt})
	require.NoError(t, err)
	return img
}

func TestCompositeOver_TransparentPixelsUntouched(t *testing.T) {
	dst := newImage(t, 2, 1, pixel.RGBAF32)
	copy(pixel.Samples[float32](dst.Data()), []float32{0.1, 0.2, 0.3, 0.4, 5, 6, 7, 8})
	before := append([]byte(nil), dst.Data()...)

	overlay := newImage(t, 2, 1, pixel.RGBAU8)
	copy(overlay.Data(), []byte{255, 255, 255, 0, 200, 10, 10, 0})

	require.NoError(t, CompositeOver(dst, overlay))
	assert.Equal(t, before, dst.Data())
}

func TestCompositeOver_OpaqueReplacesAndClamps(t *testing.T) {
	dst := newImage(t, 1, 1, pixel.RGBAU16)
	copy(pixel.Samples[uint16](dst.Data()), []uint16{65535, 65535, 0, 65535})

	overlay := newImage(t, 1, 1, pixel.RGBAU8)
	copy(overlay.Data(), []byte{255, 0, 0, 255})

	require.NoError(t, CompositeOver(dst, overlay))
	assert.Equal(t, []uint16{65535, 0, 0, 65535}, pixel.Samples[uint16](dst.Data()))
}

func TestCompositeOver_HalfAlphaBlend(t *testing.T) {
	dst := newImage(t, 1, 1, pixel.RGBAU8)
	copy(dst.Data(), []byte{255, 255, 255, 255})

	overlay := newImage(t, 1, 1, pixel.RGBAU8)
	copy(overlay.Data(), []byte{0, 0, 0, 128})

	require.NoError(t, CompositeOver(dst, overlay))
	a := float32(128) / 255
	wantAlpha := (a*a + (1 - a)) * 255
	assert.InDelta(t, 127, int(dst.Data()[0]), 1)
	assert.InDelta(t, wantAlpha, float32(dst.Data()[3]), 1)
}

func TestCompositeOver_AlphaNotClampedForFloat(t *testing.T) {
	dst := newImage(t, 1, 1, pixel.RGBAF32)
	copy(pixel.Samples[float32](dst.Data()), []float32{0.5, 0.5, 0.5, 2})

	overlay := newImage(t, 1, 1, pixel.RGBAU8)
	copy(overlay.Data(), []byte{255, 255, 255, 128})

	require.NoError(t, CompositeOver(dst, overlay))
	out := pixel.Samples[float32](dst.Data())
	a := float32(128) / 255
	assert.Equal(t, float32(1), out[0], "colour clamps to 1")
	assert.InDelta(t, a*a+2*(1-a), out[3], 1e-5)
	assert.Greater(t, out[3], float32(1))
}

func TestCompositeOver_RGBDestinationStride(t *testing.T) {
	dst := newImage(t, 2, 1, pixel.RGBU8)
	copy(dst.Data(), []byte{1, 2, 3, 4, 5, 6})

	overlay := newImage(t, 2, 1, pixel.RGBAU8)
	copy(overlay.Data(), []byte{0, 0, 0, 0, 255, 0, 0, 255})

	require.NoError(t, CompositeOver(dst, overlay))
	assert.Equal(t, []byte{1, 2, 3, 255, 0, 0}, dst.Data())
}

func TestCompositeOver_Errors(t *testing.T) {
	overlay := newImage(t, 2, 2, pixel.RGBAU8)

	err := CompositeOver(newImage(t, 2, 2, pixel.LU8), overlay)
	assert.ErrorIs(t, err, ErrUnsupportedComposite)

	err = CompositeOver(newImage(t, 2, 2, pixel.RGBAU8), newImage(t, 2, 2, pixel.RGBAF32))
	assert.ErrorIs(t, err, ErrUnsupportedComposite)

	err = CompositeOver(newImage(t, 4, 2, pixel.RGBAU8), overlay)
	assert.ErrorIs(t, err, pixel.ErrSizeMismatch)

	assert.ErrorIs(t, CompositeOver(nil, overlay), ErrNilImage)
}
