package audio

import (
	"errors"
	"fmt"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// OpusSampleRate is the rate of PCM produced by OpusDecoder.
const OpusSampleRate = 48000

// ErrEmptyPacket indicates an Opus packet without a TOC byte.
var ErrEmptyPacket = errors.New("empty opus packet")

// OpusDecoder decodes Opus packets to 48 kHz mono int16 PCM.
type OpusDecoder struct {
	decoder opus.Decoder
}

// NewOpusDecoder creates a decoder.
func NewOpusDecoder() *OpusDecoder {
	return &OpusDecoder{decoder: opus.NewDecoder()}
}

// Decode decodes one packet. The output length follows the packet's TOC
// byte: frame duration times frame count, at 48 kHz.
func (d *OpusDecoder) Decode(packet []byte) ([]int16, error) {
	samples, err := PacketSampleCount(packet)
	if err != nil {
		return nil, err
	}
	out := make([]byte, samples*2)
	bandwidth, isStereo, err := d.decoder.Decode(packet, out)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "OpusDecoder.Decode",
		"bandwidth": bandwidth.String(),
		"is_stereo": isStereo,
		"samples":   samples,
	}).Debug("Decoded opus packet")

	pcm := make([]int16, samples)
	for i := range pcm {
		pcm[i] = int16(out[i*2]) | int16(out[i*2+1])<<8
	}
	return pcm, nil
}

// frameDurations lists the frame length in 48 kHz samples for each of the
// 32 TOC configurations (RFC 6716 section 3.1).
var frameDurations = [32]int{
	// SILK NB, MB, WB: 10, 20, 40, 60 ms
	480, 960, 1920, 2880, 480, 960, 1920, 2880, 480, 960, 1920, 2880,
	// Hybrid SWB, FB: 10, 20 ms
	480, 960, 480, 960,
	// CELT NB, WB, SWB, FB: 2.5, 5, 10, 20 ms
	120, 240, 480, 960, 120, 240, 480, 960,
	120, 240, 480, 960, 120, 240, 480, 960,
}

// PacketSampleCount returns the number of 48 kHz samples an Opus packet
// decodes to.
func PacketSampleCount(packet []byte) (int, error) {
	if len(packet) == 0 {
		return 0, ErrEmptyPacket
	}
	toc := packet[0]
	frames := 1
	switch toc & 0x3 {
	case 1, 2:
		frames = 2
	case 3:
		if len(packet) < 2 {
			return 0, fmt.Errorf("%w: missing frame count", ErrEmptyPacket)
		}
		frames = int(packet[1] & 0x3f)
	}
	return frameDurations[toc>>3] * frames, nil
}
