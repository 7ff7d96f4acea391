package pixel

import (
	"fmt"
	"image"
	"math"
)

// AreaStats summarizes the colours inside a rectangle.
type AreaStats struct {
	Min    Color4f
	Max    Color4f
	Mean   Color4f
	Pixels int
}

// MeasureArea samples every pixel of rect, clipped to the image bounds, and
// returns the per-channel minimum, maximum and mean. An empty intersection
// returns ErrSampleOutOfRange.
func MeasureArea(img *Image, rect image.Rectangle, opts SampleOptions) (AreaStats, error) {
	if img == nil {
		return AreaStats{}, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	r := rect.Canon().Intersect(img.Bounds())
	if r.Empty() {
		return AreaStats{}, fmt.Errorf("%w: %v outside %v", ErrSampleOutOfRange, rect, img.Bounds())
	}

	inf := float32(math.Inf(1))
	stats := AreaStats{
		Min: Color4f{inf, inf, inf, inf},
		Max: Color4f{-inf, -inf, -inf, -inf},
	}
	var sum [4]float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c, err := SamplePixel(img, x, y, opts)
			if err != nil {
				return AreaStats{}, err
			}
			stats.Min = Color4f{min(stats.Min.R, c.R), min(stats.Min.G, c.G), min(stats.Min.B, c.B), min(stats.Min.A, c.A)}
			stats.Max = Color4f{max(stats.Max.R, c.R), max(stats.Max.G, c.G), max(stats.Max.B, c.B), max(stats.Max.A, c.A)}
			sum[0] += float64(c.R)
			sum[1] += float64(c.G)
			sum[2] += float64(c.B)
			sum[3] += float64(c.A)
			stats.Pixels++
		}
	}
	n := float64(stats.Pixels)
	stats.Mean = Color4f{
		R: float32(sum[0] / n),
		G: float32(sum[1] / n),
		B: float32(sum[2] / n),
		A: float32(sum[3] / n),
	}
	return stats, nil
}
