package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pion/webrtc/v3/pkg/media/oggreader"
	"github.com/sirupsen/logrus"
)

// OggOpusSource holds the decoded PCM of an Ogg/Opus stream, converted to a
// target rate, and serves it in blocks addressed by time.
type OggOpusSource struct {
	info    Info
	pcm     []int16
	skipped int
}

// OpenOggOpus decodes an Ogg/Opus file. See NewOggOpusSource.
func OpenOggOpus(path string, rate int) (*OggOpusSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewOggOpusSource(f, rate)
}

// NewOggOpusSource reads and decodes every page of an Ogg/Opus stream.
//
// Pages that fail to decode are logged, replaced by silence of the packet's
// nominal length when that length is known, and counted in Skipped. The
// stream header's pre-skip samples are dropped from the start.
//
// Parameters:
//   - r: Ogg stream
//   - rate: Sample rate of the returned PCM
//
// Returns:
//   - *OggOpusSource: Decoded source, mono S16 at rate
//   - error: Ogg framing or header errors
func NewOggOpusSource(r io.Reader, rate int) (*OggOpusSource, error) {
	reader, header, err := oggreader.NewWith(r)
	if err != nil {
		return nil, fmt.Errorf("open ogg stream: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewOggOpusSource",
		"channels":    header.Channels,
		"sample_rate": header.SampleRate,
		"pre_skip":    header.PreSkip,
	}).Debug("Opened Ogg/Opus stream")

	decoder := NewOpusDecoder()
	src := &OggOpusSource{}
	var pcm []int16
	for {
		payload, _, err := reader.ParseNextPage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ogg page: %w", err)
		}
		if bytes.HasPrefix(payload, []byte("OpusTags")) {
			continue
		}

		block, err := decoder.Decode(payload)
		if err != nil {
			src.skipped++
			logrus.WithFields(logrus.Fields{
				"function": "NewOggOpusSource",
				"error":    err.Error(),
			}).Warn("Skipping undecodable opus page")
			if n, perr := PacketSampleCount(payload); perr == nil {
				pcm = append(pcm, make([]int16, n)...)
			}
			continue
		}
		pcm = append(pcm, block...)
	}

	if skip := int(header.PreSkip); skip < len(pcm) {
		pcm = pcm[skip:]
	} else {
		pcm = nil
	}

	info := Info{Channels: 1, SampleType: S16, SampleRate: OpusSampleRate}
	if rate > 0 && rate != OpusSampleRate && len(pcm) > 0 {
		resampler, err := NewResampler(ResamplerConfig{InputRate: OpusSampleRate, OutputRate: rate, Channels: 1})
		if err != nil {
			return nil, err
		}
		if pcm, err = resampler.Resample(pcm); err != nil {
			return nil, err
		}
	}
	if rate > 0 {
		info.SampleRate = rate
	}
	src.info = info
	src.pcm = pcm
	return src, nil
}

// Info returns the description of the decoded PCM.
func (s *OggOpusSource) Info() Info { return s.info }

// Skipped returns the number of pages that failed to decode.
func (s *OggOpusSource) Skipped() int { return s.skipped }

// SampleCount returns the decoded length in samples.
func (s *OggOpusSource) SampleCount() int { return len(s.pcm) }

// Chunk returns up to samples samples starting at seconds. It returns nil
// when seconds lies outside the decoded stream.
func (s *OggOpusSource) Chunk(seconds float64, samples int) *Chunk {
	start := int(math.Round(seconds * float64(s.info.SampleRate)))
	if start < 0 || start >= len(s.pcm) || samples <= 0 {
		return nil
	}
	end := min(start+samples, len(s.pcm))
	return NewChunkFromInt16(s.info, s.pcm[start:end])
}
