// Package synth provides a synthetic timeline: a Player producing tone or
// Ogg/Opus audio and a Viewport rendering animated test patterns. They
// drive exports from the command line and in tests without a real
// decoder or GPU.
package synth

import (
	"math"

	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// barColors are the 75% SMPTE color bars.
var barColors = [7][3]float32{
	{0.75, 0.75, 0.75},
	{0.75, 0.75, 0},
	{0, 0.75, 0.75},
	{0, 0.75, 0},
	{0.75, 0, 0.75},
	{0.75, 0, 0},
	{0, 0, 0.75},
}

// DrawBars fills an RGBA_F32 image with color bars in the top two thirds
// and a luma ramp below. A white vertical line marks the frame of t,
// wrapping every second.
func DrawBars(img *pixel.Image, t otime.RationalTime) {
	w, h := img.Width(), img.Height()
	px := pixel.Samples[float32](img.Data())
	split := h * 2 / 3

	marker := -1
	if fps := math.Round(t.Rate); fps > 0 {
		frame := math.Mod(math.Round(t.Value), fps)
		marker = int(frame / fps * float64(w))
	}

	for y := 0; y < h; y++ {
		row := px[y*w*4 : (y+1)*w*4]
		for x := 0; x < w; x++ {
			var r, g, b float32
			if y < split {
				c := barColors[x*len(barColors)/w]
				r, g, b = c[0], c[1], c[2]
			} else {
				v := float32(x) / float32(max(1, w-1))
				r, g, b = v, v, v
			}
			if x == marker {
				r, g, b = 1, 1, 1
			}
			row[x*4+0] = r
			row[x*4+1] = g
			row[x*4+2] = b
			row[x*4+3] = 1
		}
	}
}

// DrawFrameMarks fills an RGBA_U8 overlay with a transparent background,
// an opaque red safe-area outline inset by a tenth of each dimension, and
// a half-transparent green box whose width grows with progress in [0, 1].
func DrawFrameMarks(img *pixel.Image, progress float64) {
	img.Zero()
	w, h := img.Width(), img.Height()
	d := img.Data()
	set := func(x, y int, r, g, b, a byte) {
		i := (y*w + x) * 4
		d[i], d[i+1], d[i+2], d[i+3] = r, g, b, a
	}

	x0, y0 := w/10, h/10
	x1, y1 := w-1-x0, h-1-y0
	for x := x0; x <= x1; x++ {
		set(x, y0, 255, 0, 0, 255)
		set(x, y1, 255, 0, 0, 255)
	}
	for y := y0; y <= y1; y++ {
		set(x0, y, 255, 0, 0, 255)
		set(x1, y, 255, 0, 0, 255)
	}

	progress = math.Min(math.Max(progress, 0), 1)
	bw := int(progress * float64(x1-x0-1))
	for y := y1 - h/20; y < y1 && y > y0; y++ {
		for x := x0 + 1; x < x0+1+bw; x++ {
			set(x, y, 0, 128, 0, 128)
		}
	}
}
