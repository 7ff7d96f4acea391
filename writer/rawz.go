package writer

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// rawzMagic opens every .rawz stream.
var rawzMagic = [4]byte{'F', 'W', 'R', 'Z'}

const rawzVersion = 1

// Record kinds in a .rawz stream.
const (
	RecordVideo byte = 'V'
	RecordAudio byte = 'A'
)

// ErrBadStream indicates a .rawz stream that cannot be parsed.
var ErrBadStream = errors.New("malformed rawz stream")

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	},
}

func compressZstd(data []byte) []byte {
	enc := zstdEncPool.Get().(*zstd.Encoder)
	defer zstdEncPool.Put(enc)
	return enc.EncodeAll(data, make([]byte, 0, len(data)/4))
}

func decompressZstd(data []byte) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	defer zstdDecPool.Put(dec)
	return dec.DecodeAll(data, nil)
}

// rawzHeader is the JSON document following the magic and version.
type rawzHeader struct {
	Video   []pixel.Info      `json:"video,omitempty"`
	Audio   audio.Info        `json:"audio"`
	Options map[string]string `json:"options,omitempty"`
}

// RawZPlugin stores frames and audio blocks losslessly, each compressed
// with zstd, in a single stream.
type RawZPlugin struct{}

// NewRawZPlugin returns the raw zstd stream plugin.
func NewRawZPlugin() *RawZPlugin { return &RawZPlugin{} }

// Name implements mediaio.Plugin.
func (p *RawZPlugin) Name() string { return "rawz" }

// Extensions implements mediaio.Plugin.
func (p *RawZPlugin) Extensions() []string { return []string{".rawz"} }

// Kind implements mediaio.Plugin.
func (p *RawZPlugin) Kind() mediaio.Kind { return mediaio.KindMovie }

// WriteInfo implements mediaio.Plugin. The pixel type becomes the nearest
// RGB or RGBA type a framebuffer converts to, keeping depth and alpha.
func (p *RawZPlugin) WriteInfo(info pixel.Info) pixel.Info {
	info.PixelType = pixel.ConvertibleType(info.PixelType)
	return info
}

// Write implements mediaio.Plugin.
func (p *RawZPlugin) Write(path string, info mediaio.Info, opts mediaio.Options) (mediaio.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewRawZWriter(f, info, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// RawZWriter writes a .rawz stream.
type RawZWriter struct {
	bw     *bufio.Writer
	closer io.Closer
	closed bool
}

// NewRawZWriter writes the stream header to w and returns a writer for the
// records. Closing the RawZWriter flushes but does not close w.
func NewRawZWriter(w io.Writer, info mediaio.Info, opts mediaio.Options) (*RawZWriter, error) {
	hdr, err := json.Marshal(rawzHeader{Video: info.Video, Audio: info.Audio, Options: opts})
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(w)
	bw.Write(rawzMagic[:])
	bw.WriteByte(rawzVersion)
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(hdr)))
	bw.Write(n[:])
	if _, err := bw.Write(hdr); err != nil {
		return nil, err
	}
	return &RawZWriter{bw: bw}, nil
}

// WriteVideo implements mediaio.Writer.
func (w *RawZWriter) WriteVideo(t otime.RationalTime, img *pixel.Image) error {
	return w.writeRecord(RecordVideo, otime.NewRange(t, otime.New(1, t.Rate)), img.Data())
}

// WriteAudio implements mediaio.Writer.
func (w *RawZWriter) WriteAudio(r otime.TimeRange, chunk *audio.Chunk) error {
	return w.writeRecord(RecordAudio, r, chunk.Data())
}

func (w *RawZWriter) writeRecord(kind byte, r otime.TimeRange, payload []byte) error {
	if w.closed {
		return mediaio.ErrWriterClosed
	}
	packed := compressZstd(payload)
	var hdr [37]byte
	hdr[0] = kind
	binary.LittleEndian.PutUint64(hdr[1:], math.Float64bits(r.Start.Value))
	binary.LittleEndian.PutUint64(hdr[9:], math.Float64bits(r.Start.Rate))
	binary.LittleEndian.PutUint64(hdr[17:], math.Float64bits(r.Duration.Value))
	binary.LittleEndian.PutUint64(hdr[25:], math.Float64bits(r.Duration.Rate))
	binary.LittleEndian.PutUint32(hdr[33:], uint32(len(packed)))
	if _, err := w.bw.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.bw.Write(packed)
	return err
}

// Close implements mediaio.Writer.
func (w *RawZWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.bw.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// RawZRecord is one decoded record of a .rawz stream.
type RawZRecord struct {
	Kind  byte
	Range otime.TimeRange
	Data  []byte
}

// RawZReader reads a .rawz stream.
type RawZReader struct {
	r      *bufio.Reader
	Video  []pixel.Info
	Audio  audio.Info
	Option map[string]string
}

// NewRawZReader parses the stream header.
func NewRawZReader(r io.Reader) (*RawZReader, error) {
	br := bufio.NewReader(r)
	var pre [9]byte
	if _, err := io.ReadFull(br, pre[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	if [4]byte(pre[:4]) != rawzMagic || pre[4] != rawzVersion {
		return nil, fmt.Errorf("%w: bad magic or version", ErrBadStream)
	}
	hdr := make([]byte, binary.LittleEndian.Uint32(pre[5:]))
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	var h rawzHeader
	if err := json.Unmarshal(hdr, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	return &RawZReader{r: br, Video: h.Video, Audio: h.Audio, Option: h.Options}, nil
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *RawZReader) Next() (RawZRecord, error) {
	var hdr [37]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return RawZRecord{}, io.EOF
		}
		return RawZRecord{}, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	f := func(off int) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(hdr[off:])) }
	packed := make([]byte, binary.LittleEndian.Uint32(hdr[33:]))
	if _, err := io.ReadFull(r.r, packed); err != nil {
		return RawZRecord{}, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	data, err := decompressZstd(packed)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "RawZReader.Next",
			"error":    err.Error(),
		}).Error("Failed to decompress record")
		return RawZRecord{}, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	return RawZRecord{
		Kind:  hdr[0],
		Range: otime.NewRange(otime.New(f(1), f(9)), otime.New(f(17), f(25))),
		Data:  data,
	}, nil
}
