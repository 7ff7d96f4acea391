package pixel

import (
	"fmt"
	"image"
)

// Info describes the dimensions and memory layout of an Image.
type Info struct {
	Width            int
	Height           int
	PixelType        PixelType
	PixelAspectRatio float32
	VideoLevels      VideoLevels
	YUVCoefficients  YUVCoefficients
}

// Size returns the dimensions as an image.Point.
func (i Info) Size() image.Point {
	return image.Pt(i.Width, i.Height)
}

// IsValid reports whether the info describes a non-empty image of a known
// pixel type.
func (i Info) IsValid() bool {
	return i.Width > 0 && i.Height > 0 && i.PixelType.Valid()
}

// String returns a short description such as "512x512:RGBA_F32".
func (i Info) String() string {
	return fmt.Sprintf("%dx%d:%s", i.Width, i.Height, i.PixelType)
}

// ChromaSize returns the dimensions of one chroma plane for planar YUV
// types. Odd dimensions round up so every luma sample has a chroma sample.
func (i Info) ChromaSize() (w, h int) {
	switch i.PixelType.Layout() {
	case LayoutYUV420P:
		return (i.Width + 1) / 2, (i.Height + 1) / 2
	case LayoutYUV422P:
		return (i.Width + 1) / 2, i.Height
	case LayoutYUV444P:
		return i.Width, i.Height
	}
	return 0, 0
}

// DataByteCount returns the exact number of bytes backing an image with this
// info. Rows are tightly packed.
func (i Info) DataByteCount() int {
	if !i.IsValid() {
		return 0
	}
	if i.PixelType.IsPlanar() {
		cw, ch := i.ChromaSize()
		samples := i.Width*i.Height + 2*cw*ch
		return samples * i.PixelType.BytesPerSample()
	}
	return i.Width * i.Height * i.PixelType.BytesPerPixel()
}

// Image is a contiguous pixel buffer together with its description.
type Image struct {
	info Info
	data []byte

	// Tags carries free-form metadata handed to writers along with the pixels.
	Tags map[string]string
}

// NewImage allocates a zeroed image for the given info.
func NewImage(info Info) (*Image, error) {
	if !info.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, info)
	}
	if info.PixelAspectRatio == 0 {
		info.PixelAspectRatio = 1
	}
	return &Image{
		info: info,
		data: make([]byte, info.DataByteCount()),
	}, nil
}

// NewImageFromData wraps an existing buffer. The buffer must be exactly
// DataByteCount bytes long; it is not copied.
func NewImageFromData(info Info, data []byte) (*Image, error) {
	if !info.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, info)
	}
	if want := info.DataByteCount(); len(data) != want {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidImage, info, want, len(data))
	}
	if info.PixelAspectRatio == 0 {
		info.PixelAspectRatio = 1
	}
	return &Image{info: info, data: data}, nil
}

// Info returns the image description.
func (img *Image) Info() Info { return img.info }

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.info.Width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.info.Height }

// PixelType returns the pixel type of the buffer.
func (img *Image) PixelType() PixelType { return img.info.PixelType }

// Data returns the backing buffer.
func (img *Image) Data() []byte { return img.data }

// ByteCount returns the size of the backing buffer.
func (img *Image) ByteCount() int64 { return int64(len(img.data)) }

// Bounds returns the image rectangle anchored at the origin.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.info.Width, img.info.Height)
}

// SameSize reports whether both images have identical dimensions.
func (img *Image) SameSize(other *Image) bool {
	return img.info.Width == other.info.Width && img.info.Height == other.info.Height
}

// Zero clears every byte of the buffer.
func (img *Image) Zero() {
	clear(img.data)
}

// Clone returns a deep copy of the image, tags included.
func (img *Image) Clone() *Image {
	out := &Image{info: img.info, data: append([]byte(nil), img.data...)}
	if img.Tags != nil {
		out.Tags = make(map[string]string, len(img.Tags))
		for k, v := range img.Tags {
			out.Tags[k] = v
		}
	}
	return out
}
