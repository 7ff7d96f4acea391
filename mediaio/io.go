// Package mediaio defines the contract between the export pipeline and the
// writer plugins that turn frames and audio into files, plus the registry
// that selects a plugin by file extension.
package mediaio

import (
	"errors"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// Sentinel errors shared by writer plugins.
var (
	// ErrAudioUnsupported indicates a writer that cannot store audio.
	ErrAudioUnsupported = errors.New("writer does not support audio")

	// ErrVideoUnsupported indicates a writer that cannot store video.
	ErrVideoUnsupported = errors.New("writer does not support video")

	// ErrWriterClosed indicates a write after Close.
	ErrWriterClosed = errors.New("writer closed")
)

// Kind classifies what a plugin produces.
type Kind int

// Plugin kinds.
const (
	// KindMovie writes every frame and audio block into one file.
	KindMovie Kind = iota
	// KindSequence writes one numbered image file per frame.
	KindSequence
	// KindAudio writes audio only.
	KindAudio
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindSequence:
		return "sequence"
	case KindAudio:
		return "audio"
	}
	return "unknown"
}

// Info describes the streams handed to a writer.
type Info struct {
	Video     []pixel.Info
	VideoTime otime.TimeRange
	Audio     audio.Info
	AudioTime otime.TimeRange
}

// HasVideo reports whether the info carries a video layer.
func (i Info) HasVideo() bool { return len(i.Video) > 0 }

// HasAudio reports whether the info carries a valid audio stream.
func (i Info) HasAudio() bool { return i.Audio.IsValid() }

// Options are free-form writer settings such as "timecode" or "Profile".
type Options map[string]string

// Merge returns a copy of o with every entry of other applied on top.
func (o Options) Merge(other Options) Options {
	out := make(Options, len(o)+len(other))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Writer receives frames and audio blocks in presentation order.
type Writer interface {
	// WriteVideo stores the frame displayed at t.
	WriteVideo(t otime.RationalTime, img *pixel.Image) error
	// WriteAudio stores the samples covering r.
	WriteAudio(r otime.TimeRange, chunk *audio.Chunk) error
	// Close flushes and releases the output.
	Close() error
}

// Plugin creates writers for a family of file extensions.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string
	// Extensions lists the lowercase extensions handled, with leading dots.
	Extensions() []string
	// Kind classifies the output.
	Kind() Kind
	// WriteInfo returns the closest image description the plugin can store.
	// A result with PixelType None leaves the choice to the caller.
	WriteInfo(info pixel.Info) pixel.Info
	// Write opens a writer for path.
	Write(path string, info Info, opts Options) (Writer, error)
}
