package synth

import (
	"context"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/netsync"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// Publisher receives playhead updates, typically a netsync.Broadcaster.
type Publisher interface {
	Publish(msg netsync.Message)
}

// Timeline describes a synthetic clip.
type Timeline struct {
	// Path is reported as the media file being played.
	Path string
	// Rate is the frame rate. Zero means 24.
	Rate float64
	// Frames is the clip length. Zero means one second.
	Frames int
	// In and Out select an inclusive frame range for export. An Out of
	// zero selects the whole clip.
	In, Out int

	// Video describes the decoded frames. A zero PixelType means the clip
	// has no video.
	Video pixel.Info

	// Audio describes the audio track. An invalid Info means no audio.
	Audio audio.Info
	// ToneHz is the frequency of the generated tone. Zero with no Ogg
	// source gives a silent layer.
	ToneHz float64
	// Ogg replaces the tone with decoded Ogg/Opus audio.
	Ogg *audio.OggOpusSource
}

// Player plays a Timeline. It is safe for concurrent use.
type Player struct {
	tl  Timeline
	pub Publisher

	mu      sync.Mutex
	current otime.RationalTime
	playing bool
	muted   bool
}

// NewPlayer returns a player parked on the first frame. pub may be nil.
func NewPlayer(tl Timeline, pub Publisher) *Player {
	if tl.Rate <= 0 {
		tl.Rate = 24
	}
	if tl.Frames <= 0 {
		tl.Frames = int(math.Round(tl.Rate))
	}
	if tl.Ogg != nil {
		tl.Audio = tl.Ogg.Info()
	}
	return &Player{tl: tl, pub: pub, current: otime.New(0, tl.Rate)}
}

// Path returns the timeline path.
func (p *Player) Path() string { return p.tl.Path }

// TimeRange returns the whole clip.
func (p *Player) TimeRange() otime.TimeRange {
	return otime.NewRange(otime.New(0, p.tl.Rate), otime.New(float64(p.tl.Frames), p.tl.Rate))
}

// InOutRange returns the selected range, clamped to the clip.
func (p *Player) InOutRange() otime.TimeRange {
	in, out := p.tl.In, p.tl.Out
	if out <= 0 || out >= p.tl.Frames {
		out = p.tl.Frames - 1
	}
	in = max(0, min(in, out))
	return otime.RangeFromInclusive(otime.New(float64(in), p.tl.Rate), otime.New(float64(out), p.tl.Rate))
}

// Speed returns the frame rate.
func (p *Player) Speed() float64 { return p.tl.Rate }

// IOInfo describes the clip streams.
func (p *Player) IOInfo() mediaio.Info {
	info := mediaio.Info{}
	if p.tl.Video.IsValid() {
		info.Video = []pixel.Info{p.tl.Video}
		info.VideoTime = p.TimeRange()
	}
	if p.tl.Audio.IsValid() {
		info.Audio = p.tl.Audio
		info.AudioTime = p.TimeRange().RescaledTo(float64(p.tl.Audio.SampleRate))
	}
	return info
}

func (p *Player) Start() { p.setPlaying(true) }
func (p *Player) Stop()  { p.setPlaying(false) }

func (p *Player) setPlaying(on bool) {
	p.mu.Lock()
	p.playing = on
	p.mu.Unlock()
	p.publish("playback", on)
}

// Playing reports whether Start was called after the last Stop.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) SetMute(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
}

// WaitForFrame returns once the frame is available. Synthetic frames are
// always available, so it only honors cancellation.
func (p *Player) WaitForFrame(ctx context.Context, t otime.RationalTime) error {
	return ctx.Err()
}

// FrameNext steps one frame, wrapping at the end of the clip.
func (p *Player) FrameNext() {
	p.mu.Lock()
	next := p.current.Round().Add(otime.New(1, p.current.Rate))
	if next.Frames() >= int64(p.tl.Frames) {
		next = otime.New(0, p.tl.Rate)
	}
	p.current = next
	p.mu.Unlock()
	p.publish("seek", next)
}

func (p *Player) Seek(t otime.RationalTime) {
	p.mu.Lock()
	p.current = t
	p.mu.Unlock()
	p.publish("seek", t)
}

// Current returns the playhead.
func (p *Player) Current() otime.RationalTime {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Audio returns one second of the audio layer starting at seconds. The
// result is empty when the clip has no audio track.
func (p *Player) Audio(ctx context.Context, seconds float64) ([]*audio.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.tl.Audio.IsValid() {
		return nil, nil
	}
	rate := p.tl.Audio.SampleRate
	switch {
	case p.tl.Ogg != nil:
		return []*audio.Chunk{p.tl.Ogg.Chunk(seconds, rate)}, nil
	case p.tl.ToneHz > 0:
		start := int(math.Round(seconds * float64(rate)))
		return []*audio.Chunk{audio.Tone(p.tl.Audio, p.tl.ToneHz, 0.5, start, rate)}, nil
	}
	return []*audio.Chunk{nil}, nil
}

func (p *Player) publish(command string, value any) {
	if p.pub == nil {
		return
	}
	msg, err := netsync.NewMessage(command, value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Player.publish",
			"command":  command,
			"error":    err.Error(),
		}).Warn("Failed to encode sync message")
		return
	}
	p.pub.Publish(msg)
}
