package writer

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/imageops"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// DigestPlugin writes a text manifest with one BLAKE2b-256 line per frame
// and audio block, for pixel-exact regression checks of renders:
//
//	video 00:00:00:01 1@24 <hex>
//	audio 00:00:00:00 0@48000+48000@48000 <hex>
type DigestPlugin struct{}

// NewDigestPlugin returns the manifest plugin.
func NewDigestPlugin() *DigestPlugin { return &DigestPlugin{} }

// Name implements mediaio.Plugin.
func (p *DigestPlugin) Name() string { return "digest" }

// Extensions implements mediaio.Plugin.
func (p *DigestPlugin) Extensions() []string { return []string{".b2sum"} }

// Kind implements mediaio.Plugin.
func (p *DigestPlugin) Kind() mediaio.Kind { return mediaio.KindMovie }

// WriteInfo implements mediaio.Plugin. Frames are hashed in the nearest
// convertible RGB or RGBA type; None is left for the caller to resolve.
func (p *DigestPlugin) WriteInfo(info pixel.Info) pixel.Info {
	info.PixelType = pixel.ConvertibleType(info.PixelType)
	return info
}

// Write implements mediaio.Plugin.
func (p *DigestPlugin) Write(path string, info mediaio.Info, opts mediaio.Options) (mediaio.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &digestWriter{f: f, bw: bufio.NewWriter(f)}
	for _, v := range info.Video {
		fmt.Fprintf(w.bw, "# video %s\n", v)
	}
	if info.HasAudio() {
		fmt.Fprintf(w.bw, "# audio %s\n", info.Audio)
	}
	return w, nil
}

type digestWriter struct {
	f  *os.File
	bw *bufio.Writer
}

func (w *digestWriter) WriteVideo(t otime.RationalTime, img *pixel.Image) error {
	_, err := fmt.Fprintf(w.bw, "video %s %s %s\n", t.Timecode(), t, imageops.DigestHex(img))
	return err
}

func (w *digestWriter) WriteAudio(r otime.TimeRange, chunk *audio.Chunk) error {
	sum := blake2b.Sum256(chunk.Data())
	_, err := fmt.Fprintf(w.bw, "audio %s %s %s\n", r.Start.Timecode(), r, hex.EncodeToString(sum[:]))
	return err
}

func (w *digestWriter) Close() error {
	err := w.bw.Flush()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}
