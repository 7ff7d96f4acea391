package imageops

import "github.com/opd-ai/framewright/pixel"

// FlipY reverses the row order of a packed image in place. Framebuffer
// readbacks with a bottom-left origin are flipped once to become top-down.
// Planar images are left unchanged.
func FlipY(img *pixel.Image) {
	if img == nil || img.PixelType().IsPlanar() {
		return
	}
	stride := img.Width() * img.PixelType().BytesPerPixel()
	data := img.Data()
	tmp := make([]byte, stride)
	for top, bottom := 0, img.Height()-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := data[top*stride : (top+1)*stride]
		b := data[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
