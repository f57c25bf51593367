package cadview

import (
	"log/slog"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gputypes"
	"github.com/tanema/gween/ease"

	"github.com/gogpu/cadview/engine"
	"github.com/gogpu/cadview/gesture"
	"github.com/gogpu/cadview/render"
)

// Option configures a Bridge during creation.
//
// Example:
//
//	b := cadview.New(
//	    cadview.WithEngineName("placeholder"),
//	    cadview.WithPixelFormat(gputypes.TextureFormatBGRA8Unorm),
//	    cadview.WithTransition(250*time.Millisecond, nil),
//	)
type Option func(*options)

// options holds optional configuration for Bridge creation.
type options struct {
	engine      engine.Engine
	engineName  string
	logger      *slog.Logger
	format      gputypes.TextureFormat
	style       render.Style
	transition  time.Duration
	easing      ease.TweenFunc
	minDistance float64
	gesture     gesture.Config
	cacheSize   int
}

func defaultOptions() options {
	return options{
		format: gputypes.TextureFormatRGBA8Unorm,
		style:  render.DefaultStyle(),
	}
}

// WithEngine sets the rendering engine directly, bypassing the engine
// registry.
func WithEngine(e engine.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithEngineName selects a registered engine by name. Without it the
// highest-priority available engine is used.
func WithEngineName(name string) Option {
	return func(o *options) {
		o.engineName = name
	}
}

// WithLogger sets the bridge logger. Without it the package logger
// (see SetLogger) is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPixelFormat sets the pixel format of rendered frames:
// gputypes.TextureFormatRGBA8Unorm (default) or TextureFormatBGRA8Unorm.
func WithPixelFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithStyle sets the colors used by the renderer.
func WithStyle(s render.Style) Option {
	return func(o *options) {
		o.style = s
	}
}

// WithBackground sets the top and bottom colors of the background
// gradient, as hex strings like "#28334a".
func WithBackground(top, bottom string) Option {
	return func(o *options) {
		o.style.BackgroundTop = gg.Hex(top)
		o.style.BackgroundBottom = gg.Hex(bottom)
	}
}

// WithHUD enables or disables the text overlay.
func WithHUD(enabled bool) Option {
	return func(o *options) {
		o.style.HUD = enabled
	}
}

// WithTransition animates FitView and ResetView over d using fn.
// A nil fn uses ease.InOutCubic; d <= 0 disables animation.
func WithTransition(d time.Duration, fn ease.TweenFunc) Option {
	return func(o *options) {
		o.transition = d
		o.easing = fn
	}
}

// WithMinDistance sets the closest the camera may zoom to its target.
func WithMinDistance(d float64) Option {
	return func(o *options) {
		o.minDistance = d
	}
}

// WithGesture sets the pointer sensitivities.
func WithGesture(cfg gesture.Config) Option {
	return func(o *options) {
		o.gesture = cfg
	}
}

// WithInspectCacheCapacity sets the per-shard capacity of the Inspect
// cache.
func WithInspectCacheCapacity(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}
