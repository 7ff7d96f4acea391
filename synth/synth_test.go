package synth

import (
	"context"
	"encoding/json"
	"image"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/cache"
	"github.com/opd-ai/framewright/export"
	"github.com/opd-ai/framewright/netsync"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
	"github.com/opd-ai/framewright/writer"
)

var (
	_ export.Player   = (*Player)(nil)
	_ export.Viewport = (*Viewport)(nil)
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []netsync.Message
}

func (r *recordingPublisher) Publish(msg netsync.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func stereo() audio.Info {
	return audio.Info{Channels: 2, SampleType: audio.S16, SampleRate: 48000}
}

func TestPlayer_Ranges(t *testing.T) {
	p := NewPlayer(Timeline{Frames: 48, In: 10, Out: 20}, nil)
	assert.Equal(t, 24.0, p.Speed())
	assert.Equal(t, otime.New(48, 24), p.TimeRange().Duration)

	io := p.InOutRange()
	assert.Equal(t, otime.New(10, 24), io.Start)
	assert.Equal(t, otime.New(20, 24), io.EndInclusive())

	whole := NewPlayer(Timeline{Frames: 48, In: 60}, nil).InOutRange()
	assert.Equal(t, otime.New(47, 24), whole.Start, "in point is clamped to the out point")
}

func TestPlayer_StepsAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewPlayer(Timeline{Frames: 3}, pub)

	p.FrameNext()
	p.FrameNext()
	assert.Equal(t, otime.New(2, 24), p.Current())
	p.FrameNext()
	assert.Equal(t, otime.New(0, 24), p.Current(), "stepping past the end wraps")

	p.Seek(otime.New(1, 24))
	p.Start()
	assert.True(t, p.Playing())
	p.Stop()

	require.Len(t, pub.msgs, 6)
	assert.Equal(t, "seek", pub.msgs[3].Command)
	var got otime.RationalTime
	require.NoError(t, json.Unmarshal(pub.msgs[3].Value, &got))
	assert.Equal(t, otime.New(1, 24), got)
	assert.Equal(t, "playback", pub.msgs[5].Command)
}

func TestPlayer_IOInfo(t *testing.T) {
	p := NewPlayer(Timeline{
		Frames: 24,
		Video:  pixel.Info{Width: 64, Height: 32, PixelType: pixel.RGBU8},
		Audio:  stereo(),
	}, nil)
	info := p.IOInfo()
	require.Len(t, info.Video, 1)
	assert.Equal(t, 64, info.Video[0].Width)
	assert.Equal(t, otime.New(48000, 48000), info.AudioTime.Duration)

	empty := NewPlayer(Timeline{}, nil).IOInfo()
	assert.False(t, empty.HasVideo())
	assert.False(t, empty.HasAudio())
}

func TestPlayer_AudioTone(t *testing.T) {
	p := NewPlayer(Timeline{Audio: stereo(), ToneHz: 440}, nil)
	chunks, err := p.Audio(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 48000, chunks[0].SampleCount())

	want := audio.Tone(stereo(), 440, 0.5, 48000, 10)
	assert.Equal(t, want.Data(), chunks[0].Data()[:len(want.Data())])

	silent, err := NewPlayer(Timeline{Audio: stereo()}, nil).Audio(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []*audio.Chunk{nil}, silent)

	none, err := NewPlayer(Timeline{}, nil).Audio(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Audio(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestViewport_RenderCachesFrames(t *testing.T) {
	lru := cache.New(1 << 20)
	v, err := NewViewport(ViewportConfig{Size: image.Pt(16, 8), Cache: lru})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, v.Render(ctx, otime.New(3, 24)))
	require.NoError(t, v.Render(ctx, otime.New(3, 24)))
	hits, misses := lru.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 1, lru.Len())

	dst, err := pixel.NewImage(pixel.Info{Width: 16, Height: 8, PixelType: pixel.RGBAF32})
	require.NoError(t, err)
	require.NoError(t, v.ReadPixels(dst))
	px := pixel.Samples[float32](dst.Data())
	// Frame 3 of 24 puts the marker at column 2.
	assert.Equal(t, float32(1), px[2*4])
	assert.Equal(t, float32(0.75), px[0])
	assert.Equal(t, float32(1), px[3], "alpha is opaque")
}

func TestViewport_ReadPixelsConvertsAndFlips(t *testing.T) {
	v, err := NewViewport(ViewportConfig{Size: image.Pt(7, 3), PixelType: pixel.RGBAU8, BottomUp: true})
	require.NoError(t, err)
	require.NoError(t, v.Render(context.Background(), otime.New(0, 24)))

	dst, err := pixel.NewImage(pixel.Info{Width: 7, Height: 3, PixelType: pixel.RGBAU8})
	require.NoError(t, err)
	require.NoError(t, v.ReadPixels(dst))
	d := dst.Data()
	// The bottom row is the luma ramp and comes first.
	assert.Equal(t, byte(255), d[0], "marker column at frame 0")
	assert.Equal(t, byte(255), d[6*4], "ramp ends white")
	assert.Equal(t, byte(191), d[len(d)-4*7+4], "bars on the last row")
}

func TestViewport_Overlay(t *testing.T) {
	v, err := NewViewport(ViewportConfig{Size: image.Pt(20, 20), Annotations: true, Frames: 2})
	require.NoError(t, err)
	require.NoError(t, v.Render(context.Background(), otime.New(1, 24)))

	dst, err := pixel.NewImage(pixel.Info{Width: 20, Height: 20, PixelType: pixel.RGBAU8})
	require.NoError(t, err)
	ok, err := v.ReadOverlay(dst)
	require.NoError(t, err)
	require.True(t, ok)
	d := dst.Data()
	assert.Equal(t, byte(0), d[3], "corner is transparent")
	corner := (2*20 + 2) * 4
	assert.Equal(t, []byte{255, 0, 0, 255}, d[corner:corner+4])

	plain, err := NewViewport(ViewportConfig{Size: image.Pt(20, 20)})
	require.NoError(t, err)
	ok, err = plain.ReadOverlay(dst)
	require.NoError(t, err)
	assert.False(t, ok)

	wrong, err := pixel.NewImage(pixel.Info{Width: 20, Height: 20, PixelType: pixel.RGBAF32})
	require.NoError(t, err)
	_, err = v.ReadOverlay(wrong)
	assert.ErrorIs(t, err, pixel.ErrUnsupportedConversion)
}

func TestViewport_InvalidConfig(t *testing.T) {
	_, err := NewViewport(ViewportConfig{})
	assert.ErrorIs(t, err, pixel.ErrInvalidImage)
	_, err = NewViewport(ViewportConfig{Size: image.Pt(4, 4), PixelType: pixel.YUV420PU8})
	assert.ErrorIs(t, err, pixel.ErrUnsupportedConversion)
}

// TestExportTimeline drives a full export of a synthetic timeline into a
// RawZ movie and checks that playback state and the cache are restored.
func TestExportTimeline(t *testing.T) {
	bc := netsync.NewBroadcaster()
	defer bc.Close()
	player := NewPlayer(Timeline{
		Path:   "synthetic",
		Frames: 12,
		Video:  pixel.Info{Width: 32, Height: 32, PixelType: pixel.RGBAF32},
		Audio:  stereo(),
		ToneHz: 440,
	}, bc)
	lru := cache.New(1 << 20)
	viewport, err := NewViewport(ViewportConfig{Size: image.Pt(32, 32), Annotations: true, Frames: 12, Cache: lru})
	require.NoError(t, err)

	e := &export.Exporter{
		Player:   player,
		Viewport: viewport,
		Registry: writer.Default(),
		Cache:    lru,
		SyncLock: bc,
	}
	opts := export.DefaultOptions()
	opts.Annotations = true
	out := filepath.Join(t.TempDir(), "timeline.rawz")

	res, err := e.Save(context.Background(), out, opts)
	require.NoError(t, err)
	assert.Equal(t, 12, res.FramesWritten)
	assert.Equal(t, int64(24000), res.AudioSamples)
	assert.FileExists(t, res.Path)

	assert.Equal(t, int64(1<<20), lru.Max(), "cache budget restored")
	assert.Equal(t, 12, lru.Len())
	assert.False(t, bc.Locked(), "sync lock released")
	assert.True(t, viewport.HUDActive())
	assert.False(t, viewport.SaveOverlay())
	assert.False(t, player.IsMuted())
	assert.Equal(t, otime.New(12, 24), player.Current())

	// Start, eleven steps and the final seek happen while locked.
	_, dropped := bc.Counters()
	assert.Equal(t, uint64(13), dropped)
}
