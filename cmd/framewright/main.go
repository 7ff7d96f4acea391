package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/opd-ai/framewright/audio"
	"github.com/opd-ai/framewright/cache"
	"github.com/opd-ai/framewright/export"
	"github.com/opd-ai/framewright/mediaio"
	"github.com/opd-ai/framewright/netsync"
	"github.com/opd-ai/framewright/pixel"
	"github.com/opd-ai/framewright/synth"
	"github.com/opd-ai/framewright/writer"
)

// CLIConfig holds the command configuration.
type CLIConfig struct {
	Output     string  `yaml:"output"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Rate       float64 `yaml:"rate"`
	Frames     int     `yaml:"frames"`
	In         int     `yaml:"in"`
	Out        int     `yaml:"out"`
	PixelType  string  `yaml:"pixel_type"`
	BottomUp   bool    `yaml:"bottom_up"`
	SampleRate int     `yaml:"sample_rate"`
	Channels   int     `yaml:"channels"`
	ToneHz     float64 `yaml:"tone_hz"`
	OggPath    string  `yaml:"ogg"`

	Resolution    string            `yaml:"resolution"`
	Profile       string            `yaml:"profile"`
	Annotations   bool              `yaml:"annotations"`
	NoVideo       bool              `yaml:"no_video"`
	AlignCorners  bool              `yaml:"align_corners"`
	WriterOptions map[string]string `yaml:"writer_options"`

	CacheMB    int           `yaml:"cache_mb"`
	SyncListen string        `yaml:"sync_listen"`
	Timeout    time.Duration `yaml:"timeout"`
	LogLevel   string        `yaml:"log_level"`
	LogFormat  string        `yaml:"log_format"`

	configFile string
	help       bool
}

// getEnv returns the environment variable key or fallback when unset.
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// getEnvInt returns the environment variable key as an int or fallback when
// unset or malformed.
func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "getEnvInt",
			"key":      key,
			"value":    v,
		}).Warn("Ignoring malformed environment variable")
		return fallback
	}
	return n
}

// parseCLIFlags parses args into a configuration. Defaults come from
// FRAMEWRIGHT_* environment variables, then a -config YAML file, and flags
// given on the command line win over both.
func parseCLIFlags(args []string, output io.Writer) (*CLIConfig, error) {
	config := &CLIConfig{}
	fs := flag.NewFlagSet("framewright", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&config.configFile, "config", getEnv("FRAMEWRIGHT_CONFIG", ""), "YAML configuration file")
	fs.StringVar(&config.Output, "o", getEnv("FRAMEWRIGHT_OUTPUT", ""), "Output file; the extension selects the writer")

	// Timeline
	fs.IntVar(&config.Width, "width", getEnvInt("FRAMEWRIGHT_WIDTH", 640), "Render width")
	fs.IntVar(&config.Height, "height", getEnvInt("FRAMEWRIGHT_HEIGHT", 360), "Render height")
	fs.Float64Var(&config.Rate, "rate", 24, "Frame rate")
	fs.IntVar(&config.Frames, "frames", getEnvInt("FRAMEWRIGHT_FRAMES", 48), "Timeline length in frames")
	fs.IntVar(&config.In, "in", 0, "First frame to export")
	fs.IntVar(&config.Out, "out", 0, "Last frame to export (0: end of timeline)")
	fs.StringVar(&config.PixelType, "pixel-type", "RGBA_F32", "Framebuffer pixel type")
	fs.BoolVar(&config.BottomUp, "bottom-up", false, "Read the framebuffer bottom row first")

	// Audio
	fs.IntVar(&config.SampleRate, "sample-rate", 48000, "Audio sample rate (0: no audio)")
	fs.IntVar(&config.Channels, "channels", 2, "Audio channels")
	fs.Float64Var(&config.ToneHz, "tone", 440, "Tone frequency in Hz (0: silence)")
	fs.StringVar(&config.OggPath, "ogg", "", "Ogg/Opus file used instead of the tone")

	// Export
	fs.StringVar(&config.Resolution, "resolution", "same", "Output resolution: same, half or quarter")
	fs.StringVar(&config.Profile, "profile", "None", "Codec profile")
	fs.BoolVar(&config.Annotations, "annotations", false, "Composite the annotation overlay")
	fs.BoolVar(&config.NoVideo, "no-video", false, "Export audio only")
	fs.BoolVar(&config.AlignCorners, "align-corners", false, "Align corners when scaling")

	// Runtime
	fs.IntVar(&config.CacheMB, "cache-mb", getEnvInt("FRAMEWRIGHT_CACHE_MB", 256), "Frame cache size in MiB")
	fs.StringVar(&config.SyncListen, "sync-listen", getEnv("FRAMEWRIGHT_SYNC_LISTEN", ""), "Address for sync peers, e.g. 127.0.0.1:7000")
	fs.DurationVar(&config.Timeout, "timeout", 0, "Abort the export after this long (0: no limit)")
	fs.StringVar(&config.LogLevel, "log-level", getEnv("FRAMEWRIGHT_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	fs.StringVar(&config.LogFormat, "log-format", getEnv("FRAMEWRIGHT_LOG_FORMAT", "text"), "Log format (text, json)")

	fs.BoolVar(&config.help, "help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if config.configFile == "" {
		return config, nil
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if err := config.mergeFile(config.configFile, set); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile loads a YAML file and reapplies the flags set on the command
// line on top of it.
func (c *CLIConfig) mergeFile(path string, set map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	fromFile := *c
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	flags := *c
	*c = fromFile
	override := map[string]func(){
		"o":             func() { c.Output = flags.Output },
		"width":         func() { c.Width = flags.Width },
		"height":        func() { c.Height = flags.Height },
		"rate":          func() { c.Rate = flags.Rate },
		"frames":        func() { c.Frames = flags.Frames },
		"in":            func() { c.In = flags.In },
		"out":           func() { c.Out = flags.Out },
		"pixel-type":    func() { c.PixelType = flags.PixelType },
		"bottom-up":     func() { c.BottomUp = flags.BottomUp },
		"sample-rate":   func() { c.SampleRate = flags.SampleRate },
		"channels":      func() { c.Channels = flags.Channels },
		"tone":          func() { c.ToneHz = flags.ToneHz },
		"ogg":           func() { c.OggPath = flags.OggPath },
		"resolution":    func() { c.Resolution = flags.Resolution },
		"profile":       func() { c.Profile = flags.Profile },
		"annotations":   func() { c.Annotations = flags.Annotations },
		"no-video":      func() { c.NoVideo = flags.NoVideo },
		"align-corners": func() { c.AlignCorners = flags.AlignCorners },
		"cache-mb":      func() { c.CacheMB = flags.CacheMB },
		"sync-listen":   func() { c.SyncListen = flags.SyncListen },
		"timeout":       func() { c.Timeout = flags.Timeout },
		"log-level":     func() { c.LogLevel = flags.LogLevel },
		"log-format":    func() { c.LogFormat = flags.LogFormat },
	}
	for name := range set {
		if apply, ok := override[name]; ok {
			apply()
		}
	}
	return nil
}

// printUsage prints the usage information.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "framewright: export a synthetic timeline")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s -o <file> [options]\n", os.Args[0])
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Writers:", strings.Join(writer.Default().Extensions(), " "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s -o shot.0001.png -frames 24\n", os.Args[0])
	fmt.Fprintf(w, "  %s -o take.rawz -resolution half -annotations\n", os.Args[0])
	fmt.Fprintf(w, "  %s -o mix.wav -ogg music.opus\n", os.Args[0])
	fmt.Fprintf(w, "  %s -config export.yaml -sync-listen 127.0.0.1:7000\n", os.Args[0])
}

// Validate checks the configuration.
func (c *CLIConfig) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("output file is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("frame rate must be positive")
	}
	if c.Frames <= 0 {
		return fmt.Errorf("frames must be positive")
	}
	if c.In < 0 || c.Out < 0 || (c.Out > 0 && c.In > c.Out) {
		return fmt.Errorf("invalid in/out range %d-%d", c.In, c.Out)
	}
	if _, err := pixel.ParsePixelType(c.PixelType); err != nil {
		return err
	}
	if _, err := export.ParseResolution(c.Resolution); err != nil {
		return err
	}
	if c.SampleRate < 0 || (c.SampleRate > 0 && c.Channels <= 0) {
		return fmt.Errorf("invalid audio %d Hz with %d channels", c.SampleRate, c.Channels)
	}
	if c.OggPath != "" && c.SampleRate == 0 {
		return fmt.Errorf("ogg audio needs a sample rate")
	}
	if c.CacheMB <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// setupLogging configures the global logrus logger.
func setupLogging(c *CLIConfig) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// logProgress reports export progress through the log every tenth of the
// range.
type logProgress struct {
	title      string
	start, end int64
	done       int64
}

func newLogProgress(title string, start, end int64) export.Progress {
	return &logProgress{title: title, start: start, end: end}
}

func (p *logProgress) Show() {
	logrus.WithField("function", "logProgress.Show").Info(p.title)
}

func (p *logProgress) Tick() bool {
	total := p.end - p.start + 1
	step := max(total/10, 1)
	if p.done%step == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "logProgress.Tick",
			"frame":    p.start + p.done,
			"total":    total,
		}).Info("Saving...")
	}
	p.done++
	return true
}

// recentLog records exported files in the log.
type recentLog struct{}

func (recentLog) AddRecentFile(path string) {
	logrus.WithFields(logrus.Fields{
		"function": "recentLog.AddRecentFile",
		"path":     path,
	}).Info("Added recent file")
}

// buildTimeline creates the synthetic player and viewport.
func buildTimeline(c *CLIConfig, pub synth.Publisher, lru *cache.LRU) (*synth.Player, *synth.Viewport, error) {
	pt, err := pixel.ParsePixelType(c.PixelType)
	if err != nil {
		return nil, nil, err
	}
	tl := synth.Timeline{
		Path:   "synthetic://bars",
		Rate:   c.Rate,
		Frames: c.Frames,
		In:     c.In,
		Out:    c.Out,
		Video:  pixel.Info{Width: c.Width, Height: c.Height, PixelType: pt},
		ToneHz: c.ToneHz,
	}
	if c.SampleRate > 0 {
		tl.Audio = audio.Info{Channels: c.Channels, SampleType: audio.S16, SampleRate: c.SampleRate}
	}
	if c.OggPath != "" {
		src, err := audio.OpenOggOpus(c.OggPath, c.SampleRate)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", c.OggPath, err)
		}
		tl.Ogg = src
	}

	vp, err := synth.NewViewport(synth.ViewportConfig{
		Size:        image.Pt(c.Width, c.Height),
		PixelType:   pt,
		BottomUp:    c.BottomUp,
		Annotations: c.Annotations,
		Frames:      c.Frames,
		Cache:       lru,
		Tags:        map[string]string{"Source": "framewright"},
	})
	if err != nil {
		return nil, nil, err
	}
	return synth.NewPlayer(tl, pub), vp, nil
}

// run performs one export. Sync peers, when configured, follow the
// playhead before and after the export and are told about the result.
func run(ctx context.Context, c *CLIConfig) (export.Result, error) {
	lru := cache.New(int64(c.CacheMB) << 20)

	var bc *netsync.Broadcaster
	var publisher synth.Publisher
	if c.SyncListen != "" {
		ln, err := net.Listen("tcp", c.SyncListen)
		if err != nil {
			return export.Result{}, fmt.Errorf("sync listen: %w", err)
		}
		bc = netsync.NewBroadcaster()
		defer bc.Close()
		serveCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			if err := bc.Serve(serveCtx, ln); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithFields(logrus.Fields{
					"function": "run",
					"error":    err.Error(),
				}).Warn("Sync listener stopped")
			}
		}()
		logrus.WithFields(logrus.Fields{
			"function": "run",
			"address":  ln.Addr().String(),
		}).Info("Listening for sync peers")
		publisher = bc
	}

	player, viewport, err := buildTimeline(c, publisher, lru)
	if err != nil {
		return export.Result{}, err
	}

	e := &export.Exporter{
		Player:      player,
		Viewport:    viewport,
		Registry:    writer.Default(),
		Cache:       lru,
		Recent:      recentLog{},
		NewProgress: newLogProgress,
	}
	if bc != nil {
		e.SyncLock = bc
	}

	opts := export.DefaultOptions()
	opts.Resolution, _ = export.ParseResolution(c.Resolution)
	opts.Profile = c.Profile
	opts.Annotations = c.Annotations
	opts.SaveVideo = !c.NoVideo
	opts.AlignCorners = c.AlignCorners
	opts.WriterOptions = mediaio.Options(c.WriterOptions)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	res, err := e.Save(ctx, c.Output, opts)
	if err != nil {
		return res, err
	}
	if bc != nil {
		if msg, err := netsync.NewMessage("exported", res.Path); err == nil {
			bc.Publish(msg)
		}
	}
	return res, nil
}

func main() {
	config, err := parseCLIFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(os.Stdout)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	if config.help {
		printUsage(os.Stdout)
		os.Exit(0)
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		os.Exit(1)
	}
	setupLogging(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, config)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Export failed")
		stop()
		os.Exit(1)
	}

	counters := export.GetCounters()
	logrus.WithFields(logrus.Fields{
		"function":  "main",
		"job":       res.JobID,
		"path":      res.Path,
		"frames":    res.FramesWritten,
		"samples":   res.AudioSamples,
		"cancelled": res.Cancelled,
		"rendered":  counters["frames_rendered"],
	}).Info("Export complete")
}
