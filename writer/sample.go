package writer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v3/pkg/media"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// SampleSink receives media samples; *webrtc.TrackLocalStaticSample
// satisfies it.
type SampleSink interface {
	WriteSample(media.Sample) error
}

// SampleBroadcaster fans samples out to several sinks. Each sink has its own
// small queue served by a goroutine, so a slow sink drops samples instead of
// stalling the export.
type SampleBroadcaster struct {
	mu      sync.RWMutex
	sinks   map[*sampleQueue]struct{}
	dropped atomic.Uint64
}

type sampleQueue struct {
	ch   chan media.Sample
	quit chan struct{}
	done chan struct{}
	sink SampleSink
}

// NewSampleBroadcaster creates a broadcaster. Call Close when done.
func NewSampleBroadcaster() *SampleBroadcaster {
	return &SampleBroadcaster{sinks: make(map[*sampleQueue]struct{})}
}

// Add registers a sink with a queue of depth samples and returns a function
// that removes it.
func (b *SampleBroadcaster) Add(sink SampleSink, depth int) (remove func()) {
	q := &sampleQueue{
		ch:   make(chan media.Sample, max(1, depth)),
		quit: make(chan struct{}),
		done: make(chan struct{}),
		sink: sink,
	}
	go func() {
		defer close(q.done)
		for {
			select {
			case s := <-q.ch:
				_ = q.sink.WriteSample(s)
			case <-q.quit:
				for {
					select {
					case s := <-q.ch:
						_ = q.sink.WriteSample(s)
					default:
						return
					}
				}
			}
		}
	}()

	b.mu.Lock()
	b.sinks[q] = struct{}{}
	b.mu.Unlock()
	return func() { b.remove(q) }
}

func (b *SampleBroadcaster) remove(q *sampleQueue) {
	b.mu.Lock()
	_, ok := b.sinks[q]
	delete(b.sinks, q)
	b.mu.Unlock()
	if ok {
		close(q.quit)
		<-q.done
	}
}

// WriteSample implements SampleSink. Samples for full queues are dropped.
func (b *SampleBroadcaster) WriteSample(s media.Sample) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for q := range b.sinks {
		select {
		case q.ch <- s:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Dropped returns the number of samples discarded because a queue was full.
func (b *SampleBroadcaster) Dropped() uint64 { return b.dropped.Load() }

// Close drains and stops every sink.
func (b *SampleBroadcaster) Close() {
	b.mu.RLock()
	queues := make([]*sampleQueue, 0, len(b.sinks))
	for q := range b.sinks {
		queues = append(queues, q)
	}
	b.mu.RUnlock()
	for _, q := range queues {
		b.remove(q)
	}
}

// SamplePlugin delivers raw frames and PCM blocks as media.Sample values to
// live sinks instead of a file. The path given to Write is ignored.
type SamplePlugin struct {
	extension string
	video     SampleSink
	audio     SampleSink
}

// NewSamplePlugin returns a plugin registered under extension that sends
// frames to video and audio blocks to audio. Either sink may be nil.
func NewSamplePlugin(extension string, video, audio SampleSink) *SamplePlugin {
	return &SamplePlugin{extension: extension, video: video, audio: audio}
}

// Name implements mediaio.Plugin.
func (p *SamplePlugin) Name() string { return "sample" }

// Extensions implements mediaio.Plugin.
func (p *SamplePlugin) Extensions() []string { return []string{p.extension} }

// Kind implements mediaio.Plugin.
func (p *SamplePlugin) Kind() mediaio.Kind { return mediaio.KindMovie }

// WriteInfo implements mediaio.Plugin. Frames are sent as RGBA_U8.
func (p *SamplePlugin) WriteInfo(info pixel.Info) pixel.Info {
	info.PixelType = pixel.RGBAU8
	return info
}

// Write implements mediaio.Plugin.
func (p *SamplePlugin) Write(_ string, info mediaio.Info, _ mediaio.Options) (mediaio.Writer, error) {
	frame := time.Second / 24
	if rate := info.VideoTime.Duration.Rate; rate > 0 {
		frame = time.Duration(float64(time.Second) / rate)
	}
	return &sampleWriter{plugin: p, frameDuration: frame}, nil
}

type sampleWriter struct {
	plugin        *SamplePlugin
	frameDuration time.Duration
}

func (w *sampleWriter) WriteVideo(t otime.RationalTime, img *pixel.Image) error {
	if w.plugin.video == nil {
		return nil
	}
	return w.plugin.video.WriteSample(media.Sample{
		Data:            append([]byte(nil), img.Data()...),
		Duration:        w.frameDuration,
		PacketTimestamp: uint32(t.RescaledTo(videoClockRate).Round().Value),
	})
}

func (w *sampleWriter) WriteAudio(r otime.TimeRange, chunk *audio.Chunk) error {
	if w.plugin.audio == nil {
		return nil
	}
	return w.plugin.audio.WriteSample(media.Sample{
		Data:            append([]byte(nil), chunk.Data()...),
		Duration:        time.Duration(chunk.Duration() * float64(time.Second)),
		PacketTimestamp: uint32(r.Start.Round().Value),
	})
}

func (w *sampleWriter) Close() error { return nil }
