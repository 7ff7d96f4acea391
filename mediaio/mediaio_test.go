package mediaio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opd-ai/framewright/pixel"
)

type stubPlugin struct {
	name string
	exts []string
}

func (s stubPlugin) Name() string                                { return s.name }
func (s stubPlugin) Extensions() []string                        { return s.exts }
func (s stubPlugin) Kind() Kind                                  { return KindMovie }
func (s stubPlugin) WriteInfo(info pixel.Info) pixel.Info        { return info }
func (s stubPlugin) Write(string, Info, Options) (Writer, error) { return nil, nil }

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"/shots/plate.0012.png", Path{"/shots/", "plate.", "0012", ".png"}},
		{"movie.mov", Path{"", "movie", "", ".mov"}},
		{"take2.exr", Path{"", "take", "2", ".exr"}},
		{"dir/noext", Path{"dir/", "noext", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParsePath(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestPath_WithNumber(t *testing.T) {
	p := ParsePath("out/frame.0001.png")
	assert.Equal(t, 4, p.Padding())
	assert.Equal(t, "out/frame.0101.png", p.WithNumber(101).String())

	unpadded := ParsePath("frame7.png")
	assert.Equal(t, 0, unpadded.Padding())
	assert.Equal(t, "frame120.png", unpadded.WithNumber(120).String())

	assert.Equal(t, "clip0042.png", ParsePath("clip.png").FrameName(42))
	assert.Equal(t, "movie.mp4", ParsePath("movie.mov").WithExtension(".mp4").String())
}

func TestRegistry_LookupByExtension(t *testing.T) {
	png := stubPlugin{"png", []string{".png"}}
	raw := stubPlugin{"raw", []string{".rawz", ".RAW"}}
	r := NewRegistry(png, raw)

	p, ok := r.Plugin("/a/b/shot.0001.PNG")
	assert.True(t, ok)
	assert.Equal(t, "png", p.Name())

	p, ok = r.Plugin("x.raw")
	assert.True(t, ok)
	assert.Equal(t, "raw", p.Name())

	_, ok = r.Plugin("movie.mov")
	assert.False(t, ok)

	assert.Equal(t, []string{".png", ".raw", ".rawz"}, r.Extensions())
}

func TestOptions_Merge(t *testing.T) {
	base := Options{"timecode": "00:00:00:00", "Profile": "None"}
	merged := base.Merge(Options{"Profile": "H264"})
	assert.Equal(t, "H264", merged["Profile"])
	assert.Equal(t, "None", base["Profile"])
	assert.Equal(t, "00:00:00:00", merged["timecode"])
}
