package export

import (
	"context"
	"image"
	"os"
	"sync"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

var stereo48k = audio.Info{Channels: 2, SampleType: audio.S16, SampleRate: 48000}

type mockPlayer struct {
	path     string
	inOut    otime.TimeRange
	info     mediaio.Info
	speed    float64
	muted    bool
	started  bool
	stopped  bool
	seeks    []otime.RationalTime
	steps    int
	noAudio  bool
	noChunks bool
	audioErr error
	stopErr  string
	fetches  []float64
}

func newMockPlayer(frames int, rate float64) *mockPlayer {
	r := otime.NewRange(otime.New(0, rate), otime.New(float64(frames), rate))
	return &mockPlayer{
		path:  "/media/source.mov",
		inOut: r,
		speed: rate,
		info: mediaio.Info{
			Video:     []pixel.Info{{Width: 512, Height: 512, PixelType: pixel.RGBAF32}},
			VideoTime: r,
		},
	}
}

func (p *mockPlayer) withAudio(info audio.Info) *mockPlayer {
	p.info.Audio = info
	p.info.AudioTime = p.inOut.RescaledTo(float64(info.SampleRate))
	return p
}

func (p *mockPlayer) Path() string                { return p.path }
func (p *mockPlayer) TimeRange() otime.TimeRange  { return p.inOut }
func (p *mockPlayer) InOutRange() otime.TimeRange { return p.inOut }
func (p *mockPlayer) Speed() float64              { return p.speed }
func (p *mockPlayer) IOInfo() mediaio.Info        { return p.info }
func (p *mockPlayer) Start()                      { p.started = true }
func (p *mockPlayer) Stop() {
	if p.stopErr != "" {
		panic(p.stopErr)
	}
	p.stopped = true
}
func (p *mockPlayer) IsMuted() bool               { return p.muted }
func (p *mockPlayer) SetMute(muted bool)          { p.muted = muted }
func (p *mockPlayer) FrameNext()                  { p.steps++ }
func (p *mockPlayer) Seek(t otime.RationalTime)   { p.seeks = append(p.seeks, t) }
func (p *mockPlayer) WaitForFrame(ctx context.Context, _ otime.RationalTime) error {
	return ctx.Err()
}

// Audio returns one second of a ramp, a layer without audio when noAudio is
// set, or no layers at all when noChunks is set.
func (p *mockPlayer) Audio(_ context.Context, seconds float64) ([]*audio.Chunk, error) {
	p.fetches = append(p.fetches, seconds)
	if p.audioErr != nil {
		return nil, p.audioErr
	}
	if p.noChunks {
		return nil, nil
	}
	if p.noAudio {
		return []*audio.Chunk{nil}, nil
	}
	info := p.info.Audio
	pcm := make([]int16, info.SampleRate*info.Channels)
	for i := range pcm {
		pcm[i] = int16(i % 1000)
	}
	return []*audio.Chunk{audio.NewChunkFromInt16(info, pcm)}, nil
}

type mockViewport struct {
	renderSize image.Point
	fb         FramebufferInfo
	hud        bool
	frameView  bool
	overlayOn  bool
	rendered   []otime.RationalTime
	overlay    func(dst *pixel.Image)
	fill       func(dst *pixel.Image, t otime.RationalTime)
	panicAt    int
	tags       map[string]string
}

func newMockViewport(w, h int) *mockViewport {
	return &mockViewport{
		renderSize: image.Pt(w, h),
		fb:         FramebufferInfo{Size: image.Pt(w, h), PixelType: pixel.RGBAF32},
		hud:        true,
		panicAt:    -1,
		tags:       map[string]string{"Source": "mock"},
	}
}

func (v *mockViewport) RenderSize() image.Point      { return v.renderSize }
func (v *mockViewport) Framebuffer() FramebufferInfo { return v.fb }
func (v *mockViewport) HUDActive() bool              { return v.hud }
func (v *mockViewport) SetHUDActive(active bool)     { v.hud = active }
func (v *mockViewport) FrameView() bool              { return v.frameView }
func (v *mockViewport) SetFrameView(on bool)         { v.frameView = on }
func (v *mockViewport) SetSaveOverlay(on bool)       { v.overlayOn = on }
func (v *mockViewport) Tags() map[string]string      { return v.tags }

func (v *mockViewport) Render(_ context.Context, t otime.RationalTime) error {
	if len(v.rendered) == v.panicAt {
		panic("device lost")
	}
	v.rendered = append(v.rendered, t)
	return nil
}

func (v *mockViewport) ReadPixels(dst *pixel.Image) error {
	t := v.rendered[len(v.rendered)-1]
	if v.fill != nil {
		v.fill(dst, t)
		return nil
	}
	if dst.PixelType() == pixel.RGBAF32 {
		px := pixel.Samples[float32](dst.Data())
		for i := range px {
			px[i] = float32(t.Value) / 10
		}
	}
	return nil
}

func (v *mockViewport) ReadOverlay(dst *pixel.Image) (bool, error) {
	if v.overlay == nil {
		return false, nil
	}
	v.overlay(dst)
	return true, nil
}

type videoCall struct {
	t    otime.RationalTime
	info pixel.Info
	data []byte
	tags map[string]string
}

type audioCall struct {
	r       otime.TimeRange
	samples int
}

type mockWriter struct {
	video  []videoCall
	audio  []audioCall
	closed bool
}

func (w *mockWriter) WriteVideo(t otime.RationalTime, img *pixel.Image) error {
	w.video = append(w.video, videoCall{t, img.Info(), append([]byte(nil), img.Data()...), img.Tags})
	return nil
}

func (w *mockWriter) WriteAudio(r otime.TimeRange, chunk *audio.Chunk) error {
	w.audio = append(w.audio, audioCall{r, chunk.SampleCount()})
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

type mockPlugin struct {
	ext       string
	kind      mediaio.Kind
	pixelType pixel.PixelType
	create    bool

	path   string
	info   mediaio.Info
	opts   mediaio.Options
	writer *mockWriter
}

func (p *mockPlugin) Name() string         { return "mock" }
func (p *mockPlugin) Extensions() []string { return []string{p.ext} }
func (p *mockPlugin) Kind() mediaio.Kind   { return p.kind }
func (p *mockPlugin) WriteInfo(info pixel.Info) pixel.Info {
	info.PixelType = p.pixelType
	return info
}

func (p *mockPlugin) Write(path string, info mediaio.Info, opts mediaio.Options) (mediaio.Writer, error) {
	if p.create {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			return nil, err
		}
	}
	p.path, p.info, p.opts = path, info, opts
	p.writer = &mockWriter{}
	return p.writer, nil
}

type mockCache struct {
	max      int64
	failOnce string
}

func (c *mockCache) Max() int64 { return c.max }

func (c *mockCache) SetMax(bytes int64) {
	if msg := c.failOnce; msg != "" {
		c.failOnce = ""
		panic(msg)
	}
	c.max = bytes
}

type mockLock struct {
	mu    sync.Mutex
	held  bool
	locks int
}

func (l *mockLock) Lock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = true
	l.locks++
}

func (l *mockLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
}

type mockRecent struct{ files []string }

func (r *mockRecent) AddRecentFile(path string) { r.files = append(r.files, path) }

type mockProgress struct {
	title  string
	shown  bool
	ticks  int
	cancel int
}

func (p *mockProgress) Show() { p.shown = true }

func (p *mockProgress) Tick() bool {
	p.ticks++
	return p.cancel == 0 || p.ticks < p.cancel
}
