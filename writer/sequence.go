package writer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/tiff"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// encodeFunc writes one frame in a still image format.
type encodeFunc func(w io.Writer, img image.Image) error

// SequencePlugin writes one still image file per frame. File names follow
// the sequence numbering of the target path; the frame number is the
// frame's time value.
type SequencePlugin struct {
	name   string
	exts   []string
	deep   bool
	encode encodeFunc
}

// NewPNGPlugin returns the PNG sequence plugin. PNG frames keep 16 bits per
// channel for deep inputs.
func NewPNGPlugin() *SequencePlugin {
	return &SequencePlugin{
		name:   "png",
		exts:   []string{".png"},
		deep:   true,
		encode: png.Encode,
	}
}

// NewTIFFPlugin returns the TIFF sequence plugin. Frames are Deflate
// compressed and keep 16 bits per channel for deep inputs.
func NewTIFFPlugin() *SequencePlugin {
	return &SequencePlugin{
		name: "tiff",
		exts: []string{".tif", ".tiff"},
		deep: true,
		encode: func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		},
	}
}

// NewWebPPlugin returns the lossless WebP sequence plugin. WebP stores
// 8 bits per channel.
func NewWebPPlugin() *SequencePlugin {
	return &SequencePlugin{
		name: "webp",
		exts: []string{".webp"},
		encode: func(w io.Writer, img image.Image) error {
			return nativewebp.Encode(w, img, nil)
		},
	}
}

// Name implements mediaio.Plugin.
func (p *SequencePlugin) Name() string { return p.name }

// Extensions implements mediaio.Plugin.
func (p *SequencePlugin) Extensions() []string { return p.exts }

// Kind implements mediaio.Plugin.
func (p *SequencePlugin) Kind() mediaio.Kind { return mediaio.KindSequence }

// WriteInfo keeps alpha when the input has it. Inputs deeper than 8 bits
// use 16 bits per channel when the format can store them.
func (p *SequencePlugin) WriteInfo(info pixel.Info) pixel.Info {
	deep := p.deep && info.PixelType.BitDepth() > 8
	switch {
	case info.PixelType.HasAlpha() && deep:
		info.PixelType = pixel.RGBAU16
	case info.PixelType.HasAlpha():
		info.PixelType = pixel.RGBAU8
	case deep:
		info.PixelType = pixel.RGBU16
	default:
		info.PixelType = pixel.RGBU8
	}
	return info
}

// Write implements mediaio.Plugin.
func (p *SequencePlugin) Write(path string, info mediaio.Info, opts mediaio.Options) (mediaio.Writer, error) {
	if !info.HasVideo() {
		return nil, fmt.Errorf("%s sequence %s: %w", p.name, path, mediaio.ErrVideoUnsupported)
	}
	return &sequenceWriter{plugin: p, path: mediaio.ParsePath(path)}, nil
}

type sequenceWriter struct {
	plugin *SequencePlugin
	path   mediaio.Path
	frames int
}

func (w *sequenceWriter) WriteVideo(t otime.RationalTime, img *pixel.Image) error {
	name := w.path.FrameName(t.Frames())
	out, err := toGoImage(img)
	if err != nil {
		return fmt.Errorf("%s: %w", w.plugin.name, err)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := w.plugin.encode(f, out); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	w.frames++
	logrus.WithFields(logrus.Fields{
		"function": "sequenceWriter.WriteVideo",
		"format":   w.plugin.name,
		"file":     name,
	}).Debug("Wrote frame")
	return f.Close()
}

func (w *sequenceWriter) WriteAudio(otime.TimeRange, *audio.Chunk) error {
	return mediaio.ErrAudioUnsupported
}

func (w *sequenceWriter) Close() error {
	logrus.WithFields(logrus.Fields{
		"function": "sequenceWriter.Close",
		"format":   w.plugin.name,
		"frames":   w.frames,
	}).Debug("Closed image sequence")
	return nil
}

// toGoImage copies an RGB or RGBA image of 8 or 16 bits into the matching
// image.NRGBA or image.NRGBA64.
func toGoImage(img *pixel.Image) (image.Image, error) {
	w, h := img.Width(), img.Height()
	rect := image.Rect(0, 0, w, h)
	n := w * h
	switch img.PixelType() {
	case pixel.RGBU8, pixel.RGBAU8:
		ch := img.PixelType().ChannelCount()
		src := img.Data()
		out := image.NewNRGBA(rect)
		for i := 0; i < n; i++ {
			copy(out.Pix[i*4:i*4+3], src[i*ch:i*ch+3])
			out.Pix[i*4+3] = 0xff
			if ch == 4 {
				out.Pix[i*4+3] = src[i*4+3]
			}
		}
		return out, nil
	case pixel.RGBU16, pixel.RGBAU16:
		ch := img.PixelType().ChannelCount()
		src := pixel.Samples[uint16](img.Data())
		out := image.NewNRGBA64(rect)
		for i := 0; i < n; i++ {
			for c := 0; c < 4; c++ {
				v := uint16(0xffff)
				if c < ch {
					v = src[i*ch+c]
				}
				out.Pix[i*8+c*2] = byte(v >> 8)
				out.Pix[i*8+c*2+1] = byte(v)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot store %s", pixel.ErrUnsupportedConversion, img.PixelType())
}
