package cadview

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/cadview/engine"
	_ "github.com/gogpu/cadview/engine/placeholder" // default engine
	"github.com/gogpu/cadview/gesture"
	"github.com/gogpu/cadview/internal/arena"
	"github.com/gogpu/cadview/internal/cache"
)

// EngineState is the lifecycle state of a Bridge.
type EngineState int32

const (
	StateUninitialized EngineState = iota
	StateReady
	StateShuttingDown
)

func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting down"
	default:
		return fmt.Sprintf("EngineState(%d)", int32(s))
	}
}

// Bridge connects a host to one rendering engine.
//
// The zero value is not usable; create bridges with New or use Default.
type Bridge struct {
	opts options

	// lifeMu serializes Initialize and Shutdown, including the part of
	// Shutdown that waits for loads without holding mu.
	lifeMu sync.Mutex

	// mu is the lifecycle lock. Initialize and Shutdown hold it exclusively;
	// every other operation holds the shared side while it touches the
	// engine, the model arena or a surface.
	mu     sync.RWMutex
	state  atomic.Int32
	gen    uint64
	eng    engine.Engine
	models *arena.Arena[*model]

	// loads counts LoadFile calls between their ready check and the
	// insert or discard of the opened resource.
	loads sync.WaitGroup

	surfMu   sync.Mutex
	surfaces map[string]*Surface

	interp  *gesture.Interpreter
	inspect *cache.Sharded[inspectKey, inspectResult]
	lastErr atomic.Pointer[string]
	now     func() time.Time
}

// New creates a bridge in the Uninitialized state.
func New(opts ...Option) *Bridge {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b := &Bridge{
		opts:     o,
		surfaces: make(map[string]*Surface),
		interp:   gesture.NewInterpreter(o.gesture),
		inspect:  cache.NewSharded[inspectKey, inspectResult](o.cacheSize, inspectKey.hash),
		now:      time.Now,
	}
	b.models = b.newArena()
	return b
}

var defaultOnce = sync.OnceValue(func() *Bridge { return New() })

// Default returns the process-wide bridge, creating it on first use.
func Default() *Bridge {
	return defaultOnce()
}

func (b *Bridge) log() *slog.Logger {
	if b.opts.logger != nil {
		return b.opts.logger
	}
	return Logger()
}

// engineLogger returns the logger handed to the engine. Without WithLogger
// the engine follows later SetLogger calls.
func (b *Bridge) engineLogger() *slog.Logger {
	if b.opts.logger != nil {
		return b.opts.logger
	}
	return slog.New(packageHandler{})
}

func (b *Bridge) newArena() *arena.Arena[*model] {
	return arena.New[*model](func(handle int64, err error) {
		if err != nil {
			b.log().Warn("cadview: closing model failed", "handle", handle, "err", err)
			return
		}
		b.log().Debug("cadview: model released", "handle", handle)
	})
}

// State returns the lifecycle state. It never blocks.
func (b *Bridge) State() EngineState {
	return EngineState(b.state.Load())
}

// IsInitialized reports whether the engine is ready. It never blocks.
func (b *Bridge) IsInitialized() bool {
	return b.State() == StateReady
}

// Initialize starts the engine with license. Calling it on a ready bridge
// is a no-op. On failure the bridge stays Uninitialized.
func (b *Bridge) Initialize(license string) error {
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.State() == StateReady {
		b.log().Info("cadview: engine already initialized")
		return nil
	}
	if strings.TrimSpace(license) == "" {
		return b.fail(fmt.Errorf("cadview: initialize: %w: empty license", ErrLicense))
	}

	e, err := b.resolveEngine()
	if err != nil {
		return b.fail(fmt.Errorf("cadview: initialize: %w", err))
	}
	if ls, ok := e.(loggerSetter); ok {
		ls.SetLogger(b.engineLogger())
	}
	if err := e.Start(license); err != nil {
		if errors.Is(err, engine.ErrLicense) {
			return b.fail(fmt.Errorf("cadview: initialize %s: %w: %w", e.Name(), ErrLicense, err))
		}
		return b.fail(fmt.Errorf("cadview: initialize %s: %w", e.Name(), err))
	}

	b.gen++
	b.models = b.newArena()
	b.state.Store(int32(StateReady))
	b.log().Info("cadview: engine started", "engine", e.Name(), "generation", b.gen)
	return nil
}

// resolveEngine returns the configured engine, creating it from the engine
// registry on first use. b.mu must be held exclusively.
func (b *Bridge) resolveEngine() (engine.Engine, error) {
	if b.eng != nil {
		return b.eng, nil
	}
	var (
		e   engine.Engine
		err error
	)
	switch {
	case b.opts.engine != nil:
		e = b.opts.engine
	case b.opts.engineName != "":
		e, err = engine.NewByName(b.opts.engineName)
	default:
		e, err = engine.New()
	}
	if err != nil {
		return nil, err
	}
	b.eng = e
	return e, nil
}

// Shutdown releases every model and surface and stops the engine. It waits
// for in-flight renders and loads and is a no-op unless the bridge is ready.
//
// Loads still parsing when Shutdown starts are waited for outside the
// lifecycle lock; they see the bridge shutting down and close what they
// opened, so the engine is stopped with no resource open.
func (b *Bridge) Shutdown() {
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()

	b.mu.Lock()
	if b.State() != StateReady {
		b.mu.Unlock()
		return
	}
	b.state.Store(int32(StateShuttingDown))
	b.mu.Unlock()

	b.loads.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.surfMu.Lock()
	surfaces := b.surfaces
	b.surfaces = make(map[string]*Surface)
	b.surfMu.Unlock()
	for _, s := range surfaces {
		s.close()
	}

	n := b.models.Drain()
	b.inspect.Clear()
	if err := b.eng.Stop(); err != nil {
		b.log().Warn("cadview: engine stop failed", "err", err)
		b.fail(fmt.Errorf("cadview: shutdown: %w", err))
	}

	b.state.Store(int32(StateUninitialized))
	b.log().Info("cadview: engine stopped", "models", n, "surfaces", len(surfaces))
}

// ready reports whether operations may proceed. b.mu must be held.
func (b *Bridge) ready() bool {
	return b.State() == StateReady
}

func (b *Bridge) notInitialized(op string) error {
	return b.fail(fmt.Errorf("cadview: %s: %w", op, ErrNotInitialized))
}

// fail records err as the last error and returns it.
func (b *Bridge) fail(err error) error {
	msg := err.Error()
	b.lastErr.Store(&msg)
	return err
}

// RecordError stores err as the last error and returns it. Host adapters
// use it for failures they detect before reaching the bridge. A nil err is
// ignored.
func (b *Bridge) RecordError(err error) error {
	if err == nil {
		return nil
	}
	return b.fail(err)
}

// LastError returns the message of the most recent failure, or "" if
// there was none since the last ClearError. Reading does not clear it.
func (b *Bridge) LastError() string {
	if p := b.lastErr.Load(); p != nil {
		return *p
	}
	return ""
}

// ClearError forgets the last error.
func (b *Bridge) ClearError() {
	b.lastErr.Store(nil)
}
