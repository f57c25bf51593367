// Package placeholder implements the built-in reference engine that the
// bridge falls back to when no vendor SDK binding is registered.
//
// It accepts any non-blank license, recognizes DWG files by their version
// header and reads the header variables, layer table and LINE/3DFACE
// entities of ASCII DXF files. A DWG is presented as a unit box because its
// object stream can only be decoded by a vendor engine.
package placeholder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/cadview/engine"
)

// Name is the registry name of the placeholder engine.
const Name = "placeholder"

// Options configures the placeholder engine.
type Options struct {
	// Verify, if set, is called by Start with the license string.
	// A non-nil error rejects the license.
	Verify func(license string) error
}

// Engine is the placeholder engine. It is safe for concurrent use.
type Engine struct {
	opts   Options
	logger atomic.Pointer[slog.Logger]

	mu      sync.Mutex
	started bool

	open atomic.Int64
}

// New creates a placeholder engine.
func New(opts Options) *Engine {
	e := &Engine{opts: opts}
	e.logger.Store(slog.New(slog.DiscardHandler))
	return e
}

// SetLogger sets the logger used by the engine. Pass nil to disable logging.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	e.logger.Store(l)
}

// Name implements engine.Engine.
func (e *Engine) Name() string { return Name }

// Start implements engine.Engine.
func (e *Engine) Start(license string) error {
	if strings.TrimSpace(license) == "" {
		return fmt.Errorf("%w: empty license", engine.ErrLicense)
	}
	if e.opts.Verify != nil {
		if err := e.opts.Verify(license); err != nil {
			return fmt.Errorf("%w: %w", engine.ErrLicense, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.New("placeholder: already started")
	}
	e.started = true
	e.logger.Load().Info("placeholder: engine started")
	return nil
}

// Stop implements engine.Engine.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return nil
	}
	e.started = false
	if n := e.open.Load(); n != 0 {
		return fmt.Errorf("placeholder: stopped with %d drawings still open", n)
	}
	e.logger.Load().Info("placeholder: engine stopped")
	return nil
}

// Supports implements engine.Engine.
func (e *Engine) Supports(ext string) bool {
	return ext == ".dwg" || ext == ".dxf"
}

// OpenCount returns the number of drawings opened and not yet closed.
func (e *Engine) OpenCount() int64 {
	return e.open.Load()
}

// Open implements engine.Engine.
func (e *Engine) Open(ctx context.Context, path string) (engine.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if !started {
		return nil, errors.New("placeholder: engine not started")
	}

	ext := engine.Ext(path)
	if !e.Supports(ext) {
		return nil, fmt.Errorf("%w: %q", engine.ErrUnsupportedFormat, ext)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("placeholder: %s is not a regular file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var d *drawing
	switch ext {
	case ".dwg":
		d, err = parseDWG(data, fi.ModTime())
	case ".dxf":
		d, err = parseDXF(data, fi.ModTime())
	}
	if err != nil {
		return nil, err
	}

	d.owner = e
	e.open.Add(1)
	e.logger.Load().Debug("placeholder: drawing opened",
		"path", path, "format", d.info.Format, "version", d.info.Version,
		"vertices", len(d.mesh.Vertices))
	return d, nil
}

// ErrClosed is returned by Mesh after the drawing has been closed.
var ErrClosed = errors.New("placeholder: drawing closed")

// drawing is an immutable loaded drawing.
type drawing struct {
	info   engine.Info
	layers []string
	bounds engine.Bounds
	mesh   *engine.Mesh

	owner  *Engine
	closed atomic.Bool
}

func (d *drawing) Bounds() engine.Bounds { return d.bounds }
func (d *drawing) Info() engine.Info     { return d.info }

func (d *drawing) Layers() []string {
	out := make([]string, len(d.layers))
	copy(out, d.layers)
	return out
}

func (d *drawing) Mesh() (*engine.Mesh, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	return d.mesh, nil
}

func (d *drawing) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if d.owner != nil {
		d.owner.open.Add(-1)
	}
	return nil
}

func init() {
	engine.Register(Name, 10, func() (engine.Engine, error) {
		return New(Options{}), nil
	}, nil)
}
