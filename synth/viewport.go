package synth

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framewright/cache"
	"github.com/opd-ai/framewright/export"
	"github.com/opd-ai/framewright/imageops"
	"github.com/opd-ai/framewright/otime"
	"github.com/opd-ai/framewright/pixel"
)

// ViewportConfig configures a Viewport.
type ViewportConfig struct {
	// Size is the render and framebuffer size.
	Size image.Point
	// PixelType is the framebuffer format. Zero means RGBA_F32.
	PixelType pixel.PixelType
	// BottomUp makes readbacks start with the bottom row, as a GL
	// framebuffer does.
	BottomUp bool
	// Annotations enables the overlay buffer.
	Annotations bool
	// Frames is the clip length used to draw the progress mark.
	Frames int
	// Cache holds rendered frames. Nil disables caching.
	Cache *cache.LRU
	// Tags are attached to every written frame.
	Tags map[string]string
}

// Viewport renders test patterns into an offscreen framebuffer.
type Viewport struct {
	cfg ViewportConfig

	mu          sync.Mutex
	hud         bool
	frameView   bool
	saveOverlay bool
	frame       *pixel.Image
	current     otime.RationalTime
}

// NewViewport returns a viewport with the HUD and frame view on.
func NewViewport(cfg ViewportConfig) (*Viewport, error) {
	if cfg.Size.X <= 0 || cfg.Size.Y <= 0 {
		return nil, fmt.Errorf("%w: viewport size %v", pixel.ErrInvalidImage, cfg.Size)
	}
	if cfg.PixelType == pixel.None {
		cfg.PixelType = pixel.RGBAF32
	}
	if !pixel.CanConvert(pixel.RGBAF32, cfg.PixelType) {
		return nil, fmt.Errorf("%w: framebuffer %s", pixel.ErrUnsupportedConversion, cfg.PixelType)
	}
	return &Viewport{cfg: cfg, hud: true, frameView: true}, nil
}

func (v *Viewport) RenderSize() image.Point { return v.cfg.Size }

func (v *Viewport) Framebuffer() export.FramebufferInfo {
	return export.FramebufferInfo{Size: v.cfg.Size, PixelType: v.cfg.PixelType, BottomUp: v.cfg.BottomUp}
}

func (v *Viewport) HUDActive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hud
}

func (v *Viewport) SetHUDActive(active bool) {
	v.mu.Lock()
	v.hud = active
	v.mu.Unlock()
}

func (v *Viewport) FrameView() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frameView
}

func (v *Viewport) SetFrameView(on bool) {
	v.mu.Lock()
	v.frameView = on
	v.mu.Unlock()
}

func (v *Viewport) SetSaveOverlay(on bool) {
	v.mu.Lock()
	v.saveOverlay = on
	v.mu.Unlock()
}

// SaveOverlay reports the overlay rendering mode.
func (v *Viewport) SaveOverlay() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.saveOverlay
}

// Render draws the frame at t, reusing a cached rendering when present.
func (v *Viewport) Render(ctx context.Context, t otime.RationalTime) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := t.Round().String()

	var frame *pixel.Image
	if v.cfg.Cache != nil {
		if cached, ok := v.cfg.Cache.Get(key); ok {
			frame, _ = cached.(*pixel.Image)
		}
	}
	if frame == nil {
		img, err := pixel.NewImage(pixel.Info{Width: v.cfg.Size.X, Height: v.cfg.Size.Y, PixelType: pixel.RGBAF32})
		if err != nil {
			return err
		}
		DrawBars(img, t)
		frame = img
		if v.cfg.Cache != nil {
			v.cfg.Cache.Put(key, img)
		}
		logrus.WithFields(logrus.Fields{
			"function": "Viewport.Render",
			"time":     key,
		}).Debug("Rendered frame")
	}

	v.mu.Lock()
	v.frame = frame
	v.current = t
	v.mu.Unlock()
	return nil
}

// ReadPixels converts the last rendered frame into dst.
func (v *Viewport) ReadPixels(dst *pixel.Image) error {
	v.mu.Lock()
	frame := v.frame
	v.mu.Unlock()
	if frame == nil {
		return fmt.Errorf("%w: nothing rendered", pixel.ErrInvalidImage)
	}

	out, err := pixel.ConvertImage(dst, frame)
	if err != nil {
		return err
	}
	if out != dst {
		if !dst.SameSize(out) {
			return fmt.Errorf("%w: %s into %s", pixel.ErrSizeMismatch, out.Info(), dst.Info())
		}
		copy(dst.Data(), out.Data())
	}
	if v.cfg.BottomUp {
		imageops.FlipY(dst)
	}
	return nil
}

// ReadOverlay draws the safe-area marks for the last rendered frame into
// dst when annotations are enabled.
func (v *Viewport) ReadOverlay(dst *pixel.Image) (bool, error) {
	if !v.cfg.Annotations {
		return false, nil
	}
	if dst.PixelType() != pixel.RGBAU8 {
		return false, fmt.Errorf("%w: overlay must be %s", pixel.ErrUnsupportedConversion, pixel.RGBAU8)
	}
	v.mu.Lock()
	t := v.current
	v.mu.Unlock()

	progress := 0.0
	if v.cfg.Frames > 1 {
		progress = t.Round().Value / float64(v.cfg.Frames-1)
	}
	DrawFrameMarks(dst, progress)
	if v.cfg.BottomUp {
		imageops.FlipY(dst)
	}
	return true, nil
}

// Tags returns the configured frame tags.
func (v *Viewport) Tags() map[string]string { return v.cfg.Tags }
