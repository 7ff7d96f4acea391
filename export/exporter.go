package export

import (
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/imageops"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// CacheBudget is the I/O cache size in bytes used while exporting, large
// enough for long movies to be read sequentially without thrashing.
const CacheBudget int64 = 1 << 30

// Exporter renders a timeline and writes it through a writer plugin.
//
// Player and Registry are required. Viewport is required for video. The
// other collaborators are optional.
type Exporter struct {
	Player      Player
	Viewport    Viewport
	Registry    *mediaio.Registry
	Cache       Cache
	SyncLock    SyncLock
	Recent      RecentFiles
	NewProgress ProgressFunc

	running atomic.Bool
}

// Result summarizes a finished export.
type Result struct {
	JobID         string
	Path          string
	FramesWritten int
	AudioSamples  int64
	// Cancelled is set when the user stopped the export from the progress
	// report. A cancelled export is not an error.
	Cancelled bool
}

// Save exports the player's in/out range to file.
//
// Pre-flight failures (ErrExportInProgress, ErrSelfOverwrite,
// ErrDestinationCollision) return before any state is touched. Once the job
// has started, player, viewport, cache and sync state are restored on every
// exit path, including cancellation, errors and panics.
func (e *Exporter) Save(ctx context.Context, file string, opts Options) (Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return Result{}, ErrExportInProgress
	}
	defer e.running.Store(false)

	if e.Player == nil {
		return Result{}, ErrNoPlayer
	}

	j, err := e.newJob(file, opts)
	if err != nil {
		jobsFailed.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "Exporter.Save",
			"file":     file,
			"error":    err.Error(),
		}).Error("Export pre-flight failed")
		return Result{}, err
	}

	err = j.run(ctx)
	switch {
	case err != nil:
		jobsFailed.Add(1)
		j.log.WithField("error", err.Error()).Error("Export failed")
	case j.result.Cancelled:
		jobsCancelled.Add(1)
		j.log.Info("Export cancelled")
	default:
		jobsCompleted.Add(1)
		j.log.WithFields(logrus.Fields{
			"frames":  j.result.FramesWritten,
			"samples": j.result.AudioSamples,
		}).Info("Export finished")
	}
	return j.result, err
}

// Running reports whether an export is in progress.
func (e *Exporter) Running() bool { return e.running.Load() }

type job struct {
	e    *Exporter
	opts Options
	log  *logrus.Entry

	file string
	path string

	startTime   otime.RationalTime
	endTime     otime.RationalTime
	currentTime otime.RationalTime
	timeRange   otime.TimeRange

	// Restored on teardown, each only once its snapshot was taken.
	muted     bool
	hud       bool
	frameView bool
	oldCache  int64
	locked    bool

	savedMute     bool
	savedViewport bool
	savedCache    bool

	kind      mediaio.Kind
	hasVideo  bool
	hasAudio  bool
	videoTime otime.TimeRange
	audioTime otime.TimeRange
	audioInfo audio.Info
	writer    mediaio.Writer

	fb      FramebufferInfo
	buffer  *pixel.Image
	overlay *pixel.Image
	scale   *pixel.Image
	output  *pixel.Image

	sampleRate          float64
	currentSampleCount  int64
	totalSamples        int64
	endAudioSampleCount int64
	maxAudioSampleCount int64

	result Result
}

// newJob runs the pre-flight checks.
func (e *Exporter) newJob(file string, opts Options) (*job, error) {
	r := e.Player.InOutRange()
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: invalid range %s", ErrNothingToExport, r)
	}
	id := uuid.New().String()
	j := &job{
		e:           e,
		opts:        opts,
		file:        file,
		timeRange:   r,
		startTime:   r.Start,
		endTime:     r.EndInclusive(),
		currentTime: r.Start,
		result:      Result{JobID: id},
	}

	path, err := ResolvePath(file, j.startTime.Frames(), opts.Profile)
	if err != nil {
		return nil, err
	}
	if playing := e.Player.Path(); samePath(playing, file) || samePath(playing, path) {
		return nil, fmt.Errorf("%w: %s", ErrSelfOverwrite, file)
	}
	j.path = path
	j.result.Path = path
	j.log = logrus.WithFields(logrus.Fields{
		"function": "Exporter.Save",
		"job":      id,
		"path":     path,
	})
	return j, nil
}

func (j *job) run(ctx context.Context) (err error) {
	defer func() {
		if terr := j.teardown(); err == nil {
			err = terr
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			j.log.WithField("panic", fmt.Sprint(r)).Error("Recovered from export panic")
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()

	j.setup()
	if err := j.open(); err != nil {
		return err
	}
	return j.loop(ctx)
}

// setup stops playback and snapshots the state teardown restores.
func (j *job) setup() {
	p := j.e.Player
	p.Stop()
	j.muted = p.IsMuted()
	j.savedMute = true
	p.SetMute(true)
	if vp := j.e.Viewport; vp != nil {
		j.hud = vp.HUDActive()
		j.frameView = vp.FrameView()
		j.savedViewport = true
	}
	if c := j.e.Cache; c != nil {
		j.oldCache = c.Max()
		j.savedCache = true
		c.SetMax(CacheBudget)
	}
}

// teardown restores everything setup and the loop changed. It runs on
// every exit path, including a setup that stopped part way.
func (j *job) teardown() error {
	if vp := j.e.Viewport; vp != nil && j.savedViewport {
		vp.SetFrameView(j.frameView)
		vp.SetHUDActive(j.hud)
		vp.SetSaveOverlay(false)
	}
	p := j.e.Player
	p.Seek(j.currentTime)
	if j.savedMute {
		p.SetMute(j.muted)
	}
	if j.locked {
		j.e.SyncLock.Unlock()
		j.locked = false
	}

	var err error
	if j.writer != nil {
		if err = j.writer.Close(); err != nil {
			err = fmt.Errorf("close writer: %w", err)
		}
		j.writer = nil
	}
	if j.e.Recent != nil && isReadable(j.path) {
		j.e.Recent.AddRecentFile(j.path)
	}
	if c := j.e.Cache; c != nil && j.savedCache {
		c.SetMax(j.oldCache)
	}
	return err
}

// open negotiates the streams and the output format and opens the writer.
func (j *job) open() error {
	if j.e.Registry == nil {
		return fmt.Errorf("%w: no registry", ErrWriterUnavailable)
	}
	plugin, ok := j.e.Registry.Plugin(j.path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWriterUnavailable, j.path)
	}
	j.kind = plugin.Kind()

	p := j.e.Player
	info := p.IOInfo()
	j.hasVideo = len(info.Video) > 0 && j.opts.SaveVideo && j.kind != mediaio.KindAudio
	j.hasAudio = info.Audio.IsValid() && j.kind != mediaio.KindSequence
	if j.hasVideo && j.e.Viewport == nil {
		return fmt.Errorf("%w: video export needs a viewport", ErrNothingToExport)
	}
	if !j.hasVideo && !j.hasAudio {
		return fmt.Errorf("%w: %s writer has no stream to store", ErrNothingToExport, j.kind)
	}

	j.videoTime = info.VideoTime
	if j.hasVideo && (p.TimeRange() != j.timeRange || info.VideoTime != j.timeRange) {
		rate := info.VideoTime.Duration.Rate
		if rate <= 0 {
			rate = j.timeRange.Duration.Rate
		}
		j.videoTime = j.timeRange.RescaledTo(rate)
	}
	if j.hasAudio {
		j.audioInfo = info.Audio
		j.sampleRate = float64(info.Audio.SampleRate)
		j.audioTime = info.AudioTime
		start := j.timeRange.Start.RescaledTo(j.sampleRate)
		if p.TimeRange() != j.timeRange || !j.audioTime.Start.Equal(start) {
			j.audioTime = j.timeRange.RescaledTo(j.sampleRate)
		}
		j.endAudioSampleCount = int64(j.endTime.RescaledTo(j.sampleRate).Value)
		j.maxAudioSampleCount = int64(j.timeRange.Duration.RescaledTo(j.sampleRate).Value)
		j.currentSampleCount = int64(start.Value)
	}
	if !j.videoTime.IsValid() {
		j.videoTime = j.audioTime
	}

	ioInfo := mediaio.Info{}
	if j.hasVideo {
		out, err := j.setupVideo(plugin, info)
		if err != nil {
			return err
		}
		ioInfo.Video = []pixel.Info{out}
		ioInfo.VideoTime = j.videoTime
	}
	if j.hasAudio {
		ioInfo.Audio = j.audioInfo
		ioInfo.AudioTime = j.audioTime
	}

	j.log.WithFields(logrus.Fields{
		"kind":  j.kind.String(),
		"video": j.hasVideo,
		"audio": j.hasAudio,
	}).Info("Saving " + j.kind.String())

	w, err := plugin.Write(j.path, ioInfo, j.writerOptions(p.Speed()))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriterUnavailable, j.path, err)
	}
	j.writer = w
	return nil
}

func (j *job) writerOptions(speed float64) mediaio.Options {
	opts := mediaio.Options{}
	if j.startTime.Value > 0 {
		opts["timecode"] = j.startTime.Timecode()
	}
	if speed > 0 {
		opts["Speed"] = strconv.FormatFloat(speed, 'g', -1, 64)
	}
	if j.opts.Profile != "" && j.opts.Profile != "None" {
		opts["Profile"] = j.opts.Profile
	}
	return opts.Merge(j.opts.WriterOptions)
}

// setupVideo negotiates the output format with the plugin and allocates
// the frame buffers. It returns the info handed to the writer.
func (j *job) setupVideo(plugin mediaio.Plugin, info mediaio.Info) (pixel.Info, error) {
	vp := j.e.Viewport
	layer := min(max(j.opts.Layer, 0), len(info.Video)-1)

	renderSize := vp.RenderSize()
	outSize := j.opts.Resolution.Apply(renderSize)

	out := plugin.WriteInfo(pixel.Info{
		Width:            outSize.X,
		Height:           outSize.Y,
		PixelType:        info.Video[layer].PixelType,
		PixelAspectRatio: 1,
	})
	if out.Width <= 0 || out.Height <= 0 {
		out.Width, out.Height = outSize.X, outSize.Y
	}
	if out.PixelType == pixel.None {
		out.PixelType = pixel.RGBAU8
		j.log.WithField("pixel_type", out.PixelType.String()).Info("Writer plugin did not get output info, using default")
	}
	if strings.EqualFold(filepath.Ext(j.path), ".hdr") {
		out.PixelType = pixel.RGBF32
	}

	var err error
	if j.output, err = pixel.NewImage(out); err != nil {
		return out, err
	}

	j.fb = vp.Framebuffer()
	if j.fb.Size.X <= 0 || j.fb.Size.Y <= 0 {
		j.fb.Size = renderSize
	}
	if j.fb.PixelType == pixel.None {
		j.fb.PixelType = pixel.RGBAF32
	}
	if !pixel.CanConvert(j.fb.PixelType, out.PixelType) {
		return out, fmt.Errorf("%w: framebuffer %s to %s output", pixel.ErrUnsupportedConversion, j.fb.PixelType, out.PixelType)
	}
	if j.buffer, err = pixel.NewImage(pixel.Info{Width: j.fb.Size.X, Height: j.fb.Size.Y, PixelType: j.fb.PixelType}); err != nil {
		return out, err
	}
	if j.opts.Annotations {
		if j.overlay, err = pixel.NewImage(pixel.Info{Width: j.fb.Size.X, Height: j.fb.Size.Y, PixelType: pixel.RGBAU8}); err != nil {
			return out, err
		}
	}
	if j.fb.Size != image.Pt(out.Width, out.Height) {
		if j.scale, err = pixel.NewImage(pixel.Info{Width: j.fb.Size.X, Height: j.fb.Size.Y, PixelType: out.PixelType}); err != nil {
			return out, err
		}
	}

	j.log.WithFields(logrus.Fields{
		"framebuffer": j.buffer.Info().String(),
		"output":      out.String(),
		"resolution":  j.opts.Resolution.String(),
	}).Info("Output info")
	return out, nil
}

func (j *job) title() string {
	start, end := j.startTime.Frames(), j.endTime.Frames()
	switch {
	case j.hasVideo && j.kind == mediaio.KindMovie && j.hasAudio:
		return fmt.Sprintf("Saving Movie with Audio %d - %d", start, end)
	case j.hasVideo && j.kind == mediaio.KindMovie:
		return fmt.Sprintf("Saving Movie without Audio %d - %d", start, end)
	case !j.hasVideo:
		return fmt.Sprintf("Saving Audio %d - %d", start, end)
	}
	return fmt.Sprintf("Saving Pictures without Audio %d - %d", start, end)
}

func (j *job) loop(ctx context.Context) error {
	var progress Progress
	if j.e.NewProgress != nil {
		progress = j.e.NewProgress(j.title(), j.startTime.Frames(), j.endTime.Frames())
		progress.Show()
	}

	if j.e.SyncLock != nil {
		j.e.SyncLock.Lock()
		j.locked = true
	}

	if vp := j.e.Viewport; vp != nil && j.hasVideo {
		vp.SetHUDActive(false)
		if j.opts.Annotations {
			vp.SetSaveOverlay(true)
			vp.SetFrameView(true)
		}
	}

	p := j.e.Player
	p.Start()
	if err := p.WaitForFrame(ctx, j.startTime); err != nil {
		return fmt.Errorf("wait for frame %s: %w", j.startTime, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if progress != nil {
			if !progress.Tick() {
				j.result.Cancelled = true
				return nil
			}
		} else {
			j.log.WithField("time", j.currentTime.String()).Debug("Saving...")
		}

		if j.hasAudio {
			if err := j.writeAudio(ctx); err != nil {
				return err
			}
		}
		if j.hasVideo {
			if err := j.writeVideo(ctx); err != nil {
				return err
			}
		}

		rate := j.currentTime.Rate
		if j.hasVideo {
			j.currentTime = j.currentTime.Add(otime.New(1, rate))
		} else {
			j.currentTime = j.currentTime.Add(otime.New(rate, rate))
		}
		if j.currentTime.After(j.endTime) {
			return nil
		}
		// Stepping keeps large movies from lagging behind a seek.
		if j.hasVideo {
			p.FrameNext()
		} else {
			p.Seek(j.currentTime)
		}
	}
}

// writeAudio fetches one second of audio at the current time and writes
// the part not yet written, trimmed so the total never exceeds the range.
func (j *job) writeAudio(ctx context.Context) error {
	seconds := j.currentTime.Seconds()
	chunks, err := j.e.Player.Audio(ctx, seconds)
	if err != nil {
		return fmt.Errorf("fetch audio at %gs: %w", seconds, err)
	}
	var chunk *audio.Chunk
	// TODO: mix every audio layer instead of writing the first one.
	if len(chunks) > 0 {
		chunk = chunks[0]
	}
	if chunk == nil {
		chunk = audio.NewSilence(j.audioInfo, int(j.sampleRate))
	}

	current := j.currentTime.RescaledTo(j.sampleRate)
	if int64(math.Round(current.Value)) < j.currentSampleCount {
		return nil
	}
	n := int64(chunk.SampleCount())
	if j.currentSampleCount+n >= j.endAudioSampleCount {
		remaining := j.maxAudioSampleCount - j.totalSamples
		if remaining <= 0 {
			return nil
		}
		chunk = chunk.Trim(int(min(remaining, n)))
		n = int64(chunk.SampleCount())
	}
	if !j.audioTime.Contains(current) {
		return nil
	}

	r := otime.NewRange(current, otime.New(float64(n), j.sampleRate))
	if err := j.writer.WriteAudio(r, chunk); err != nil {
		return fmt.Errorf("write audio %s: %w", r, err)
	}
	j.currentSampleCount += n
	j.totalSamples += n
	j.result.AudioSamples += n
	incAudioSamples(int(n))
	return nil
}

// writeVideo renders the current frame, reads it back and writes it in the
// negotiated format and size.
func (j *job) writeVideo(ctx context.Context) error {
	vp := j.e.Viewport
	t := j.currentTime

	vp.SetSaveOverlay(j.opts.Annotations)
	if err := vp.Render(ctx, t); err != nil {
		return fmt.Errorf("render %s: %w", t, err)
	}
	if err := vp.ReadPixels(j.buffer); err != nil {
		return fmt.Errorf("read pixels at %s: %w", t, err)
	}
	incFramesRendered()
	if j.fb.BottomUp {
		imageops.FlipY(j.buffer)
	}

	if j.opts.Annotations {
		ok, err := vp.ReadOverlay(j.overlay)
		if err != nil {
			return fmt.Errorf("read annotations at %s: %w", t, err)
		}
		if ok {
			if j.fb.BottomUp {
				imageops.FlipY(j.overlay)
			}
			if err := imageops.CompositeOver(j.buffer, j.overlay); err != nil {
				return err
			}
		}
		vp.SetSaveOverlay(false)
	}

	target := j.output
	if j.scale != nil {
		target = j.scale
	}
	frame, err := pixel.ConvertImage(target, j.buffer)
	if err != nil {
		return err
	}
	if j.scale != nil {
		if err := imageops.ScaleImage(j.output, frame, j.opts.AlignCorners); err != nil {
			return err
		}
		frame = j.output
	}

	if !j.videoTime.Contains(t) {
		return nil
	}
	frame.Tags = vp.Tags()
	if err := j.writer.WriteVideo(t, frame); err != nil {
		return fmt.Errorf("write video %s: %w", t, err)
	}
	j.result.FramesWritten++
	incFramesWritten()
	j.log.WithField("time", t.String()).Debug("Wrote frame")
	return nil
}
