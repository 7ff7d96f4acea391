package pixel

import "fmt"

// VideoLevels selects how YUV samples map to the normalized range.
type VideoLevels int

// Video levels.
const (
	FullRange VideoLevels = iota
	LegalRange
)

// String returns the levels name.
func (v VideoLevels) String() string {
	switch v {
	case FullRange:
		return "FullRange"
	case LegalRange:
		return "LegalRange"
	}
	return fmt.Sprintf("VideoLevels(%d)", int(v))
}

// YUVCoefficients selects the YCbCr to RGB matrix.
type YUVCoefficients int

// YUV coefficient sets.
const (
	REC709 YUVCoefficients = iota
	BT2020
	BT601
)

// String returns the coefficient set name.
func (c YUVCoefficients) String() string {
	switch c {
	case REC709:
		return "REC709"
	case BT2020:
		return "BT2020"
	case BT601:
		return "BT601"
	}
	return fmt.Sprintf("YUVCoefficients(%d)", int(c))
}

// Coefficients holds the four YCbCr to RGB matrix terms:
//
//	R = Y + CrR*Cr
//	G = Y - CrG*Cr - CbG*Cb
//	B = Y + CbB*Cb
type Coefficients struct {
	CrR float32
	CrG float32
	CbG float32
	CbB float32
}

// Coefficients returns the matrix terms of the set. Unknown sets fall back
// to REC709.
func (c YUVCoefficients) Coefficients() Coefficients {
	switch c {
	case BT2020:
		return Coefficients{CrR: 1.4746, CrG: 0.571353, CbG: 0.164553, CbB: 1.8814}
	case BT601:
		return Coefficients{CrR: 1.402, CrG: 0.714136, CbG: 0.344136, CbB: 1.772}
	}
	return Coefficients{CrR: 1.5748, CrG: 0.468124273, CbG: 0.187324273, CbB: 1.8556}
}

// Color4f is a normalized RGBA colour. For YUV samples before conversion the
// fields hold Y, Cb and Cr in R, G and B.
type Color4f struct {
	R, G, B, A float32
}

// CheckLevels centres the chroma of a YCbCr sample and, for legal range,
// expands luma from [16, 235] and chroma from [16, 240] (8-bit scale).
// The result has Y in R and zero-centred Cb, Cr in G and B.
func CheckLevels(c Color4f, levels VideoLevels) Color4f {
	if levels == LegalRange {
		c.R = (c.R - 16.0/255.0) * (255.0 / (235.0 - 16.0))
		c.G = (c.G-16.0/255.0)*(255.0/(240.0-16.0)) - 0.5
		c.B = (c.B-16.0/255.0)*(255.0/(240.0-16.0)) - 0.5
		return c
	}
	c.G -= 0.5
	c.B -= 0.5
	return c
}

// YPbPrToRGB converts a levels-corrected YCbCr sample to RGB. Luma is clamped
// to [0, 1], chroma to [-0.5, 0.5] and the resulting channels to [0, 1].
// Alpha passes through.
func YPbPrToRGB(c Color4f, k Coefficients) Color4f {
	y := clampf(c.R, 0, 1)
	cb := clampf(c.G, -0.5, 0.5)
	cr := clampf(c.B, -0.5, 0.5)
	return Color4f{
		R: clampf(y+k.CrR*cr, 0, 1),
		G: clampf(y-k.CrG*cr-k.CbG*cb, 0, 1),
		B: clampf(y+k.CbB*cb, 0, 1),
		A: c.A,
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
