package writer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// RTP clock rates.
const (
	videoClockRate = 90000
)

// Raw payload descriptor flags, first byte of every payload.
const (
	descStartOfFrame = 0x80
	descEndOfFrame   = 0x40
)

// rawDescriptorSize is the flag byte plus a 16-bit frame index.
const rawDescriptorSize = 3

// RTPConfig configures the RTP dump plugin.
type RTPConfig struct {
	MaxPacketSize    int   // Packet size limit including the 12-byte header (default 1200)
	VideoPayloadType uint8 // Dynamic payload type for raw video (default 96)
	AudioPayloadType uint8 // Dynamic payload type for L16 audio (default 97)
	SSRC             uint32
}

func (c RTPConfig) withDefaults() RTPConfig {
	if c.MaxPacketSize == 0 {
		c.MaxPacketSize = 1200
	}
	if c.VideoPayloadType == 0 {
		c.VideoPayloadType = 96
	}
	if c.AudioPayloadType == 0 {
		c.AudioPayloadType = 97
	}
	return c
}

// RTPPlugin packetizes raw frames and PCM into RTP packets and stores them
// in a dump file, each packet preceded by its 16-bit big-endian length.
type RTPPlugin struct {
	config RTPConfig
}

// NewRTPPlugin returns the RTP dump plugin.
func NewRTPPlugin(config RTPConfig) *RTPPlugin {
	return &RTPPlugin{config: config.withDefaults()}
}

// Name implements mediaio.Plugin.
func (p *RTPPlugin) Name() string { return "rtpdump" }

// Extensions implements mediaio.Plugin.
func (p *RTPPlugin) Extensions() []string { return []string{".rtpdump"} }

// Kind implements mediaio.Plugin.
func (p *RTPPlugin) Kind() mediaio.Kind { return mediaio.KindMovie }

// WriteInfo carries 8-bit RGB, the payload layout of the raw video stream.
func (p *RTPPlugin) WriteInfo(info pixel.Info) pixel.Info {
	info.PixelType = pixel.RGBU8
	return info
}

// Write implements mediaio.Plugin.
func (p *RTPPlugin) Write(path string, info mediaio.Info, opts mediaio.Options) (mediaio.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewRTPWriter(f, p.config, info)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Packetizer splits payloads into RTP packets of one stream.
type Packetizer struct {
	ssrc           uint32
	payloadType    uint8
	sequenceNumber uint16
	maxPayload     int
}

// NewPacketizer returns a packetizer. A zero ssrc is replaced by a random one.
func NewPacketizer(ssrc uint32, payloadType uint8, maxPacketSize int) (*Packetizer, error) {
	maxPayload := maxPacketSize - 12 - rawDescriptorSize
	if maxPayload <= 0 {
		return nil, fmt.Errorf("max packet size too small: %d", maxPacketSize)
	}
	for ssrc == 0 {
		id := uuid.New()
		ssrc = binary.BigEndian.Uint32(id[:4])
	}
	return &Packetizer{ssrc: ssrc, payloadType: payloadType, sequenceNumber: 1, maxPayload: maxPayload}, nil
}

// Packetize splits data into packets sharing one timestamp. The marker bit
// is set on the last packet and each payload starts with a descriptor
// holding start/end flags and the frame index.
func (p *Packetizer) Packetize(data []byte, timestamp uint32, index uint16) []*rtp.Packet {
	count := max(1, (len(data)+p.maxPayload-1)/p.maxPayload)
	packets := make([]*rtp.Packet, 0, count)
	for i := 0; i < count; i++ {
		start := i * p.maxPayload
		end := min(start+p.maxPayload, len(data))

		payload := make([]byte, rawDescriptorSize+end-start)
		if i == 0 {
			payload[0] |= descStartOfFrame
		}
		if i == count-1 {
			payload[0] |= descEndOfFrame
		}
		binary.BigEndian.PutUint16(payload[1:], index)
		copy(payload[rawDescriptorSize:], data[start:end])

		packets = append(packets, &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == count-1,
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequenceNumber,
				Timestamp:      timestamp,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		})
		p.sequenceNumber++
	}
	return packets
}

// RTPWriter writes packetized frames and audio to a dump stream.
type RTPWriter struct {
	bw        *bufio.Writer
	closer    io.Closer
	video     *Packetizer
	audio     *Packetizer
	videoTime otime.TimeRange
	frames    uint16
	packets   int
}

// NewRTPWriter returns a writer emitting packets to w.
func NewRTPWriter(w io.Writer, config RTPConfig, info mediaio.Info) (*RTPWriter, error) {
	config = config.withDefaults()
	video, err := NewPacketizer(config.SSRC, config.VideoPayloadType, config.MaxPacketSize)
	if err != nil {
		return nil, err
	}
	sound, err := NewPacketizer(video.ssrc+1, config.AudioPayloadType, config.MaxPacketSize)
	if err != nil {
		return nil, err
	}
	return &RTPWriter{bw: bufio.NewWriter(w), video: video, audio: sound, videoTime: info.VideoTime}, nil
}

// WriteVideo implements mediaio.Writer. Timestamps use the 90 kHz clock
// relative to the start of the video range.
func (w *RTPWriter) WriteVideo(t otime.RationalTime, img *pixel.Image) error {
	rel := t.Sub(w.videoTime.Start)
	ts := uint32(rel.RescaledTo(videoClockRate).Round().Value)
	if err := w.emit(w.video.Packetize(img.Data(), ts, w.frames)); err != nil {
		return err
	}
	w.frames++
	return nil
}

// WriteAudio implements mediaio.Writer. Samples are sent as big-endian L16
// with the sample clock as timestamp.
func (w *RTPWriter) WriteAudio(r otime.TimeRange, chunk *audio.Chunk) error {
	pcm := chunk.Int16s()
	data := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.BigEndian.PutUint16(data[i*2:], uint16(s))
	}
	ts := uint32(r.Start.RescaledTo(float64(chunk.Info().SampleRate)).Round().Value)
	return w.emit(w.audio.Packetize(data, ts, 0))
}

func (w *RTPWriter) emit(packets []*rtp.Packet) error {
	for _, pkt := range packets {
		raw, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("marshal rtp packet: %w", err)
		}
		if len(raw) > 0xffff {
			return errors.New("rtp packet exceeds dump record size")
		}
		var n [2]byte
		binary.BigEndian.PutUint16(n[:], uint16(len(raw)))
		w.bw.Write(n[:])
		if _, err := w.bw.Write(raw); err != nil {
			return err
		}
		w.packets++
	}
	return nil
}

// Close implements mediaio.Writer.
func (w *RTPWriter) Close() error {
	logrus.WithFields(logrus.Fields{
		"function": "RTPWriter.Close",
		"frames":   w.frames,
		"packets":  w.packets,
	}).Debug("Closing RTP dump")
	err := w.bw.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ReadRTPDump parses every packet of a dump stream.
func ReadRTPDump(r io.Reader) ([]*rtp.Packet, error) {
	br := bufio.NewReader(r)
	var packets []*rtp.Packet
	for {
		var n [2]byte
		if _, err := io.ReadFull(br, n[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return packets, nil
			}
			return nil, err
		}
		raw := make([]byte, binary.BigEndian.Uint16(n[:]))
		if _, err := io.ReadFull(br, raw); err != nil {
			return nil, err
		}
		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(raw); err != nil {
			return nil, fmt.Errorf("unmarshal rtp packet: %w", err)
		}
		packets = append(packets, pkt)
	}
}
