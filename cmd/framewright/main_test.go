package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *CLIConfig {
	t.Helper()
	c, err := parseCLIFlags([]string{"-o", filepath.Join(t.TempDir(), "out.rawz")}, &bytes.Buffer{})
	require.NoError(t, err)
	return c
}

func TestParseCLIFlags_Defaults(t *testing.T) {
	c, err := parseCLIFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 640, c.Width)
	assert.Equal(t, 360, c.Height)
	assert.Equal(t, 24.0, c.Rate)
	assert.Equal(t, 48000, c.SampleRate)
	assert.Equal(t, "same", c.Resolution)
	assert.Equal(t, "None", c.Profile)
	assert.Equal(t, "info", c.LogLevel)
}

func TestParseCLIFlags_Environment(t *testing.T) {
	t.Setenv("FRAMEWRIGHT_WIDTH", "1280")
	t.Setenv("FRAMEWRIGHT_FRAMES", "not a number")
	t.Setenv("FRAMEWRIGHT_LOG_FORMAT", "json")

	c, err := parseCLIFlags([]string{"-width", "320"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 320, c.Width, "flags win over the environment")
	assert.Equal(t, 48, c.Frames, "malformed values fall back")
	assert.Equal(t, "json", c.LogFormat)
}

func TestParseCLIFlags_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output: from-file.rawz
width: 1920
height: 1080
resolution: quarter
timeout: 30s
writer_options:
  Speed: "25"
`), 0o644))

	c, err := parseCLIFlags([]string{"-config", path, "-height", "720"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "from-file.rawz", c.Output)
	assert.Equal(t, 1920, c.Width)
	assert.Equal(t, 720, c.Height, "command line wins over the file")
	assert.Equal(t, "quarter", c.Resolution)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, "25", c.WriterOptions["Speed"])
	assert.Equal(t, 24.0, c.Rate, "unset keys keep their defaults")

	_, err = parseCLIFlags([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *CLIConfig)
		errContains string
	}{
		{"valid", func(c *CLIConfig) {}, ""},
		{"no output", func(c *CLIConfig) { c.Output = "" }, "output file is required"},
		{"zero width", func(c *CLIConfig) { c.Width = 0 }, "invalid size"},
		{"zero rate", func(c *CLIConfig) { c.Rate = 0 }, "frame rate must be positive"},
		{"no frames", func(c *CLIConfig) { c.Frames = 0 }, "frames must be positive"},
		{"inverted range", func(c *CLIConfig) { c.In, c.Out = 10, 5 }, "invalid in/out range"},
		{"pixel type", func(c *CLIConfig) { c.PixelType = "RGBA_X9" }, "unknown pixel type"},
		{"resolution", func(c *CLIConfig) { c.Resolution = "double" }, "resolution"},
		{"audio channels", func(c *CLIConfig) { c.Channels = 0 }, "invalid audio"},
		{"ogg without rate", func(c *CLIConfig) { c.OggPath, c.SampleRate = "a.opus", 0 }, "ogg audio needs a sample rate"},
		{"cache", func(c *CLIConfig) { c.CacheMB = 0 }, "cache size must be positive"},
		{"timeout", func(c *CLIConfig) { c.Timeout = -time.Second }, "timeout cannot be negative"},
		{"log level", func(c *CLIConfig) { c.LogLevel = "chatty" }, "not a valid logrus Level"},
		{"log format", func(c *CLIConfig) { c.LogFormat = "xml" }, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig(t)
			tt.modify(c)
			err := c.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	assert.Contains(t, buf.String(), ".rawz")
	assert.Contains(t, buf.String(), "-sync-listen")
}

func TestRun_Movie(t *testing.T) {
	c := validConfig(t)
	c.Width, c.Height = 64, 32
	c.Frames = 6
	c.Resolution = "half"
	c.Annotations = true
	c.BottomUp = true
	c.SyncListen = "127.0.0.1:0"

	res, err := run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 6, res.FramesWritten)
	assert.Equal(t, int64(12000), res.AudioSamples)
	assert.FileExists(t, res.Path)
	assert.NotEmpty(t, res.JobID)
}

func TestRun_AudioOnly(t *testing.T) {
	c := validConfig(t)
	c.Output = filepath.Join(t.TempDir(), "tone.wav")
	c.Frames = 24

	res, err := run(context.Background(), c)
	require.NoError(t, err)
	assert.Zero(t, res.FramesWritten)
	assert.Equal(t, int64(48000), res.AudioSamples)

	st, err := os.Stat(res.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(44+48000*4), st.Size())
}

func TestRun_Cancelled(t *testing.T) {
	c := validConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := run(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
}
