// Package pixel provides the pixel-format model and the conversion core used
// by the export pipeline.
//
// An Image is a contiguous byte buffer described by an Info (dimensions,
// PixelType, video levels and YUV coefficients). The package converts single
// channel samples between integer and floating representations, converts
// whole RGB/RGBA arrays between sample types, dispatches image conversions
// on (input, output) pixel type pairs, and samples individual pixels of any
// packed or planar YUV layout into normalized RGBA.
//
// Integer channels are normalized to [0, 1] by their type maximum and
// saturate on the way back. Floating channels (half and single precision)
// are carried unclamped.
//
// Example:
//
//	src, _ := pixel.NewImage(pixel.Info{Width: 64, Height: 64, PixelType: pixel.RGBA_F32})
//	dst, _ := pixel.NewImage(pixel.Info{Width: 64, Height: 64, PixelType: pixel.RGB_U8})
//	out, err := pixel.ConvertImage(dst, src)
package pixel
