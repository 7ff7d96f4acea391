package mediaio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Path splits a file name into the parts used for image sequences:
// "/shots/plate.0012.png" has Directory "/shots/", BaseName "plate.",
// Number "0012" and Extension ".png".
type Path struct {
	Directory string
	BaseName  string
	Number    string
	Extension string
}

// ParsePath splits name into its sequence parts. The number is the run of
// trailing digits of the base name, if any.
func ParsePath(name string) Path {
	dir, file := filepath.Split(name)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)

	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	return Path{
		Directory: dir,
		BaseName:  base[:i],
		Number:    base[i:],
		Extension: ext,
	}
}

// Padding returns the zero-padded width of the number, or 0 when the number
// is not padded.
func (p Path) Padding() int {
	if len(p.Number) > 1 && p.Number[0] == '0' {
		return len(p.Number)
	}
	return 0
}

// IsSequence reports whether the path carries a frame number.
func (p Path) IsSequence() bool { return p.Number != "" }

// WithNumber returns the path with its number replaced by frame, keeping
// the original padding.
func (p Path) WithNumber(frame int64) Path {
	if pad := p.Padding(); pad > 0 {
		p.Number = fmt.Sprintf("%0*d", pad, frame)
	} else {
		p.Number = fmt.Sprintf("%d", frame)
	}
	return p
}

// WithExtension returns the path with another extension.
func (p Path) WithExtension(ext string) Path {
	p.Extension = ext
	return p
}

// String joins the parts back into a file name.
func (p Path) String() string {
	return p.Directory + p.BaseName + p.Number + p.Extension
}

// FrameName returns the file name of frame in the sequence p describes.
// Paths without a number get the frame appended with four digits of padding.
func (p Path) FrameName(frame int64) string {
	if p.Number == "" {
		p.Number = "0000"
	}
	return p.WithNumber(frame).String()
}
