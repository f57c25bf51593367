package cadview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gogpu/cadview/camera"
	"github.com/gogpu/cadview/frame"
	"github.com/gogpu/cadview/gesture"
	"github.com/gogpu/cadview/render"
	"github.com/gogpu/cadview/viewport"
)

// Surface is one embedded viewport: its view state, its renderer and the
// double buffer its frames are published through.
type Surface struct {
	id  string
	vp  *viewport.Viewport
	buf *frame.DoubleBuffer

	// renderMu serializes renders of this surface and guards the fields
	// below it.
	renderMu   sync.Mutex
	renderer   *render.SoftwareRenderer
	lastRender time.Time
	closed     bool
}

// ID returns the surface id.
func (s *Surface) ID() string { return s.id }

// Front returns the last published frame, or nil.
func (s *Surface) Front() *frame.Frame { return s.buf.Front() }

func (s *Surface) close() {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.renderer.Close()
	s.buf.Reset()
}

// OpenSurface opens the surface id, or returns it if it is already open.
func (b *Bridge) OpenSurface(id string) (*Surface, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() {
		return nil, b.notInitialized("open surface")
	}
	if id == "" {
		return nil, b.fail(fmt.Errorf("cadview: open surface: %w: empty id", ErrInvalidOperation))
	}

	b.surfMu.Lock()
	defer b.surfMu.Unlock()
	if s, ok := b.surfaces[id]; ok {
		return s, nil
	}
	s := &Surface{
		id: id,
		vp: viewport.New(viewport.Config{
			MinDistance: b.opts.minDistance,
			Transition:  b.opts.transition,
			Easing:      b.opts.easing,
		}),
		buf:      frame.NewDoubleBuffer(),
		renderer: render.NewSoftwareRenderer(b.opts.style),
	}
	b.surfaces[id] = s
	b.log().Debug("cadview: surface opened", "surface", id)
	return s, nil
}

// CloseSurface closes the surface and drops its frames. Closing an unknown
// surface is a no-op.
func (b *Bridge) CloseSurface(id string) {
	b.surfMu.Lock()
	s, ok := b.surfaces[id]
	delete(b.surfaces, id)
	b.surfMu.Unlock()
	if ok {
		s.close()
		b.log().Debug("cadview: surface closed", "surface", id)
	}
}

// Surfaces returns the ids of the open surfaces, sorted.
func (b *Bridge) Surfaces() []string {
	b.surfMu.Lock()
	ids := make([]string, 0, len(b.surfaces))
	for id := range b.surfaces {
		ids = append(ids, id)
	}
	b.surfMu.Unlock()
	sort.Strings(ids)
	return ids
}

func (b *Bridge) lookupSurface(id string) (*Surface, bool) {
	b.surfMu.Lock()
	defer b.surfMu.Unlock()
	s, ok := b.surfaces[id]
	return s, ok
}

// withViewport runs fn on the viewport of surface id while holding the
// shared lifecycle lock.
func (b *Bridge) withViewport(op, id string, fn func(v *viewport.Viewport) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() {
		return b.notInitialized(op)
	}
	s, ok := b.lookupSurface(id)
	if !ok {
		return b.fail(fmt.Errorf("cadview: %s: %w: %w %q", op, ErrInvalidOperation, ErrUnknownSurface, id))
	}
	if err := fn(s.vp); err != nil {
		return b.fail(fmt.Errorf("cadview: %s: %w: %w", op, ErrInvalidOperation, err))
	}
	return nil
}

// SetSize sets the pixel size of the surface. The back buffer follows on
// the next render.
func (b *Bridge) SetSize(id string, width, height int) error {
	return b.withViewport("set size", id, func(v *viewport.Viewport) error {
		if err := v.SetSize(width, height); err != nil {
			return err
		}
		b.log().Debug("cadview: surface resized", "surface", id, "width", width, "height", height)
		return nil
	})
}

// FitView frames every loaded model. With no models it resets the view.
func (b *Bridge) FitView(id string) error {
	return b.withViewport("fit view", id, func(v *viewport.Viewport) error {
		v.Fit(b.sceneBounds())
		return nil
	})
}

// ResetView restores the canonical camera.
func (b *Bridge) ResetView(id string) error {
	return b.withViewport("reset view", id, func(v *viewport.Viewport) error {
		v.Reset()
		return nil
	})
}

// SetOperation selects what pointer drags do: "orbit" (or "rotate"),
// "pan", "zoom" (or "dolly") or "select", in any letter case. On error
// the previous mode is kept.
func (b *Bridge) SetOperation(id, op string) error {
	return b.withViewport("set operation", id, func(v *viewport.Viewport) error {
		return v.SetOperation(op)
	})
}

// Camera returns the camera of the surface.
func (b *Bridge) Camera(id string) (camera.Transform, error) {
	var cam camera.Transform
	err := b.withViewport("camera", id, func(v *viewport.Viewport) error {
		cam = v.Camera()
		return nil
	})
	return cam, err
}

// Operation returns the interaction mode of the surface.
func (b *Bridge) Operation(id string) (viewport.Operation, error) {
	var op viewport.Operation
	err := b.withViewport("operation", id, func(v *viewport.Viewport) error {
		op = v.Operation()
		return nil
	})
	return op, err
}

// HandlePointer applies a pointer event to the surface camera.
func (b *Bridge) HandlePointer(id string, ev gesture.Event) error {
	return b.withViewport("pointer event", id, func(v *viewport.Viewport) error {
		b.interp.Handle(v, ev)
		return nil
	})
}

// Render draws every loaded model into the back buffer of the surface and
// publishes it. On failure the previous frame stays published.
//
// ctx is checked once before rendering starts; a started render is never
// interrupted.
func (b *Bridge) Render(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return b.fail(fmt.Errorf("cadview: render %q: %w: %w", id, ErrRender, err))
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() {
		return b.notInitialized("render")
	}
	s, ok := b.lookupSurface(id)
	if !ok {
		return b.fail(fmt.Errorf("cadview: render %q: %w: %w", id, ErrRender, ErrUnknownSurface))
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if s.closed {
		return b.fail(fmt.Errorf("cadview: render %q: %w: %w", id, ErrRender, ErrUnknownSurface))
	}

	width, height := s.vp.Size()
	if width == 0 || height == 0 {
		return b.fail(fmt.Errorf("cadview: render %q: %w: viewport size not set", id, ErrRender))
	}

	refs := b.models.Snapshot()
	defer refs.Release()

	now := b.now()
	var dt time.Duration
	if !s.lastRender.IsZero() {
		dt = now.Sub(s.lastRender)
	}
	s.lastRender = now
	state := s.vp.Snapshot(dt)

	scene := &render.Scene{
		Camera:  state.Camera,
		Sources: make([]render.MeshSource, refs.Len()),
		Overlay: overlay(state, refs.Len()),
	}
	for i := range scene.Sources {
		scene.Sources[i] = refs.Value(i).res
	}

	back, err := s.buf.Back(width, height, b.opts.format)
	if err != nil {
		return b.fail(fmt.Errorf("cadview: render %q: %w: %w", id, ErrRender, err))
	}
	if err := s.renderer.Render(back, scene); err != nil {
		s.buf.Discard()
		return b.fail(fmt.Errorf("cadview: render %q: %w: %w", id, ErrRender, err))
	}
	f, err := s.buf.Swap()
	if err != nil {
		return b.fail(fmt.Errorf("cadview: render %q: %w: %w", id, ErrRender, err))
	}
	b.log().Debug("cadview: frame rendered", "surface", id, "seq", f.Seq,
		"models", refs.Len(), "width", width, "height", height)
	return nil
}

func overlay(s viewport.State, models int) []string {
	c := s.Camera
	return []string{
		fmt.Sprintf("%s  %dx%d  models %d", s.Operation, s.Width, s.Height, models),
		fmt.Sprintf("yaw %.0f  pitch %.0f  dist %.3g",
			c.Yaw*180/math.Pi, c.Pitch*180/math.Pi, c.Distance),
	}
}

// GetFrame returns the last published frame of the surface without waiting
// for a render in progress. The frame is nil before the first render.
func (b *Bridge) GetFrame(id string) (*frame.Frame, error) {
	if !b.IsInitialized() {
		return nil, b.notInitialized("get frame")
	}
	s, ok := b.lookupSurface(id)
	if !ok {
		return nil, b.fail(fmt.Errorf("cadview: get frame: %w: %w %q", ErrInvalidOperation, ErrUnknownSurface, id))
	}
	return s.Front(), nil
}

// RecycleFrame returns a frame obtained from GetFrame that the host no
// longer reads, so the next render can reuse its memory.
func (b *Bridge) RecycleFrame(id string, f *frame.Frame) {
	if s, ok := b.lookupSurface(id); ok {
		s.buf.Recycle(f)
	}
}

// ExportFrame encodes the last published frame of the surface to w as a
// png, jpeg, bmp or tiff image.
func (b *Bridge) ExportFrame(id string, w io.Writer, format string) error {
	f, err := b.GetFrame(id)
	if err != nil {
		return err
	}
	if f == nil {
		return b.fail(fmt.Errorf("cadview: export %q: %w: no frame rendered", id, ErrRender))
	}
	if err := frame.Encode(w, f, format); err != nil {
		if errors.Is(err, frame.ErrUnsupportedFormat) {
			return b.fail(fmt.Errorf("cadview: export %q: %w: %w", id, ErrInvalidOperation, err))
		}
		return b.fail(fmt.Errorf("cadview: export %q: %w", id, err))
	}
	return nil
}
