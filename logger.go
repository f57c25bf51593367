package cadview

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the package logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger used by bridges that were not given one
// through WithLogger. By default cadview produces no log output.
//
// Pass nil to restore the silent default. Engines of bridges without their
// own logger follow the change too, including engines already started.
//
// Log levels used by cadview:
//   - [slog.LevelDebug]: handles, surface sizes, frame sequence numbers
//   - [slog.LevelInfo]: engine start and stop, model load and unload
//   - [slog.LevelWarn]: ignored requests, resource close errors
//
// Example:
//
//	cadview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by engines that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// packageHandler forwards records to the handler of the package logger
// current at the time of each call. derive replays WithAttrs and WithGroup
// on that handler.
type packageHandler struct {
	derive func(slog.Handler) slog.Handler
}

func (h packageHandler) handler() slog.Handler {
	return h.derived(Logger().Handler())
}

func (h packageHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler().Enabled(ctx, level)
}

func (h packageHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler().Handle(ctx, r)
}

func (h packageHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return packageHandler{derive: func(base slog.Handler) slog.Handler {
		return h.derived(base).WithAttrs(attrs)
	}}
}

func (h packageHandler) WithGroup(name string) slog.Handler {
	return packageHandler{derive: func(base slog.Handler) slog.Handler {
		return h.derived(base).WithGroup(name)
	}}
}

func (h packageHandler) derived(base slog.Handler) slog.Handler {
	if h.derive == nil {
		return base
	}
	return h.derive(base)
}
