package export

import (
	"fmt"
	"image"
	"strings"

	"github.com/opd-ai/framewright/mediaio"
)

// Resolution selects the output size relative to the render size.
type Resolution int

// Output resolutions.
const (
	SameSize Resolution = iota
	HalfSize
	QuarterSize
)

// String returns the resolution name.
func (r Resolution) String() string {
	switch r {
	case HalfSize:
		return "half"
	case QuarterSize:
		return "quarter"
	}
	return "same"
}

// ParseResolution accepts "same", "half" or "quarter".
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(s) {
	case "", "same", "1":
		return SameSize, nil
	case "half", "2":
		return HalfSize, nil
	case "quarter", "4":
		return QuarterSize, nil
	}
	return SameSize, fmt.Errorf("unknown resolution %q", s)
}

// Divisor returns 1, 2 or 4.
func (r Resolution) Divisor() int {
	switch r {
	case HalfSize:
		return 2
	case QuarterSize:
		return 4
	}
	return 1
}

// Apply scales size down by the resolution divisor. Each dimension stays at
// least one pixel.
func (r Resolution) Apply(size image.Point) image.Point {
	d := r.Divisor()
	return image.Pt(max(1, size.X/d), max(1, size.Y/d))
}

// Options configures one export job.
type Options struct {
	// Annotations composites the annotation overlay over every frame.
	Annotations bool
	// Resolution of the written frames relative to the render size.
	Resolution Resolution
	// SaveVideo writes video when the timeline has any. When false only
	// audio is exported.
	SaveVideo bool
	// Profile is the codec profile name handed to movie writers, such as
	// "None", "ProRes_HQ", "VP9", "AV1", "Cineform" or "HAP". Some profiles
	// force a container extension.
	Profile string
	// Layer is the video layer whose pixel type seeds the negotiation.
	Layer int
	// AlignCorners selects the corner-aligned resampling grid.
	AlignCorners bool
	// WriterOptions are merged over the options the exporter derives.
	WriterOptions mediaio.Options
}

// DefaultOptions returns options that export video at the render size with
// no codec profile.
func DefaultOptions() Options {
	return Options{
		Resolution: SameSize,
		SaveVideo:  true,
		Profile:    "None",
	}
}
