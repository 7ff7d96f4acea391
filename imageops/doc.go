// Package imageops implements whole-image operations on pixel.Image buffers:
// alpha-over compositing of an 8-bit overlay, bilinear resampling, vertical
// flipping of framebuffer readbacks, and content digests.
//
// The kernels are generic over pixel.Sample so that one implementation
// serves every integer and floating channel type.
package imageops
