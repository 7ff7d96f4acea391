package export

import (
	"context"
	"image"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// Player is the timeline being exported.
type Player interface {
	// Path is the media file being played.
	Path() string
	// TimeRange is the full timeline range.
	TimeRange() otime.TimeRange
	// InOutRange is the range selected for export.
	InOutRange() otime.TimeRange
	// Speed is the playback rate in frames per second.
	Speed() float64
	// IOInfo describes the streams of the timeline.
	IOInfo() mediaio.Info

	Start()
	Stop()
	IsMuted() bool
	SetMute(muted bool)
	// WaitForFrame blocks until the frame at t is cached.
	WaitForFrame(ctx context.Context, t otime.RationalTime) error
	// FrameNext steps one frame forward.
	FrameNext()
	Seek(t otime.RationalTime)

	// Audio returns one second of audio starting at seconds, one chunk per
	// audio layer. A nil chunk is a layer without an audio track.
	Audio(ctx context.Context, seconds float64) ([]*audio.Chunk, error)
}

// FramebufferInfo describes the viewport's offscreen color buffer.
type FramebufferInfo struct {
	Size      image.Point
	PixelType pixel.PixelType
	// BottomUp is set when readbacks start with the bottom row.
	BottomUp bool
}

// Viewport renders the timeline and reads back its framebuffers.
type Viewport interface {
	// RenderSize is the size of the composed image, compare mode included.
	RenderSize() image.Point
	Framebuffer() FramebufferInfo

	HUDActive() bool
	SetHUDActive(active bool)
	FrameView() bool
	SetFrameView(on bool)
	// SetSaveOverlay switches the annotation overlay rendering used by
	// ReadOverlay.
	SetSaveOverlay(on bool)

	// Render draws the frame at t.
	Render(ctx context.Context, t otime.RationalTime) error
	// ReadPixels copies the color buffer into dst, which has the
	// framebuffer's size and pixel type.
	ReadPixels(dst *pixel.Image) error
	// ReadOverlay copies the RGBA_U8 annotation buffer into dst. It
	// returns false when the viewport has no annotation buffer.
	ReadOverlay(dst *pixel.Image) (bool, error)
	// Tags are attached to every written frame.
	Tags() map[string]string
}

// Progress reports export progress. Tick returns false when the user
// cancelled.
type Progress interface {
	Show()
	Tick() bool
}

// ProgressFunc creates the progress report of a job.
type ProgressFunc func(title string, startFrame, endFrame int64) Progress

// Cache is the I/O read-ahead cache whose budget is raised during export.
type Cache interface {
	Max() int64
	SetMax(bytes int64)
}

// SyncLock suppresses network sync broadcasts while held.
type SyncLock interface {
	Lock()
	Unlock()
}

// RecentFiles records exported files.
type RecentFiles interface {
	AddRecentFile(path string)
}
