package writer

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

const wavHeaderSize = 44

// WAVPlugin writes PCM audio to RIFF/WAVE files. S16 streams are stored as
// integer PCM, F32 streams as IEEE float.
type WAVPlugin struct{}

// NewWAVPlugin returns the WAV plugin.
func NewWAVPlugin() *WAVPlugin { return &WAVPlugin{} }

// Name implements mediaio.Plugin.
func (p *WAVPlugin) Name() string { return "wav" }

// Extensions implements mediaio.Plugin.
func (p *WAVPlugin) Extensions() []string { return []string{".wav"} }

// Kind implements mediaio.Plugin.
func (p *WAVPlugin) Kind() mediaio.Kind { return mediaio.KindAudio }

// WriteInfo implements mediaio.Plugin. WAV files carry no images.
func (p *WAVPlugin) WriteInfo(pixel.Info) pixel.Info { return pixel.Info{} }

// Write implements mediaio.Plugin.
func (p *WAVPlugin) Write(path string, info mediaio.Info, opts mediaio.Options) (mediaio.Writer, error) {
	if !info.HasAudio() {
		return nil, fmt.Errorf("wav %s: %w", path, mediaio.ErrAudioUnsupported)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &wavWriter{f: f, info: info.Audio}
	if err := w.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

type wavWriter struct {
	f         io.WriteSeeker
	info      audio.Info
	dataBytes uint32
	closed    bool
}

func (w *wavWriter) writeHeader() error {
	format := uint16(1)
	if w.info.SampleType == audio.F32 {
		format = 3
	}
	blockAlign := uint16(w.info.FrameBytes())
	var h [wavHeaderSize]byte
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], 36+w.dataBytes)
	copy(h[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], format)
	binary.LittleEndian.PutUint16(h[22:], uint16(w.info.Channels))
	binary.LittleEndian.PutUint32(h[24:], uint32(w.info.SampleRate))
	binary.LittleEndian.PutUint32(h[28:], uint32(w.info.SampleRate)*uint32(blockAlign))
	binary.LittleEndian.PutUint16(h[32:], blockAlign)
	binary.LittleEndian.PutUint16(h[34:], uint16(w.info.SampleType.ByteCount()*8))
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], w.dataBytes)

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := w.f.Write(h[:])
	return err
}

func (w *wavWriter) WriteVideo(otime.RationalTime, *pixel.Image) error {
	return mediaio.ErrVideoUnsupported
}

func (w *wavWriter) WriteAudio(_ otime.TimeRange, chunk *audio.Chunk) error {
	if w.closed {
		return mediaio.ErrWriterClosed
	}
	if chunk.Info().SampleType != w.info.SampleType || chunk.Info().Channels != w.info.Channels {
		return fmt.Errorf("wav: chunk %s does not match stream %s", chunk.Info(), w.info)
	}
	n, err := w.f.Write(chunk.Data())
	w.dataBytes += uint32(n)
	return err
}

// Close patches the RIFF and data sizes and closes the file.
func (w *wavWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.writeHeader()
	if c, ok := w.f.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
