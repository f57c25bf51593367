// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/google/uuid"

	"github.com/gogpu/cadview"
	"github.com/gogpu/cadview/frame"
	"github.com/gogpu/cadview/gesture"
)

// Errors returned by the view. They are also recorded as the last error of
// the bridge.
var (
	// ErrNoFrame is returned when nothing has been rendered yet.
	ErrNoFrame = errors.New("platform: no frame rendered")

	// ErrNotUpdatable is returned when the texture does not implement
	// gpucontext.TextureUpdater.
	ErrNotUpdatable = errors.New("platform: texture must implement gpucontext.TextureUpdater")

	// ErrDisposed is returned by operations on a disposed view.
	ErrDisposed = errors.New("platform: view disposed")
)

// Factory creates and tracks the views of one bridge.
type Factory struct {
	bridge *cadview.Bridge

	mu    sync.Mutex
	views map[string]*View
}

// NewFactory returns a factory for b. A nil b uses cadview.Default().
func NewFactory(b *cadview.Bridge) *Factory {
	if b == nil {
		b = cadview.Default()
	}
	return &Factory{bridge: b, views: make(map[string]*View)}
}

// Create returns the view with the given id, creating it if needed. An
// empty id is replaced by a random UUID.
func (f *Factory) Create(id string) *View {
	if id == "" {
		id = uuid.NewString()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.views[id]; ok {
		return v
	}
	v := &View{id: id, bridge: f.bridge}
	f.views[id] = v
	cadview.Logger().Debug("platform: view created", "view", id)
	return v
}

// Get returns the view with the given id.
func (f *Factory) Get(id string) (*View, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.views[id]
	return v, ok
}

// Dispose closes the view and its bridge surface. Unknown ids are ignored.
func (f *Factory) Dispose(id string) {
	f.mu.Lock()
	v, ok := f.views[id]
	delete(f.views, id)
	f.mu.Unlock()
	if !ok {
		return
	}
	v.dispose()
	cadview.Logger().Debug("platform: view disposed", "view", id)
}

// Views returns the ids of the live views, sorted.
func (f *Factory) Views() []string {
	f.mu.Lock()
	ids := make([]string, 0, len(f.views))
	for id := range f.views {
		ids = append(ids, id)
	}
	f.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// View is one embedded viewport.
//
// The bridge surface behind a view is opened lazily and reopened after the
// engine is shut down and initialized again; the last size and operation
// set through the view are restored on the new surface.
type View struct {
	id     string
	bridge *cadview.Bridge

	mu       sync.Mutex
	surf     *cadview.Surface
	width    int
	height   int
	op       string
	disposed bool
}

// ID returns the view id, which is also its bridge surface id.
func (v *View) ID() string { return v.id }

// surface opens the bridge surface if needed and restores the view
// settings on a new one.
func (v *View) surface() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return v.bridge.RecordError(fmt.Errorf("%w: %s", ErrDisposed, v.id))
	}
	s, err := v.bridge.OpenSurface(v.id)
	if err != nil {
		return err
	}
	if s == v.surf {
		return nil
	}
	v.surf = s
	if v.width > 0 && v.height > 0 {
		if err := v.bridge.SetSize(v.id, v.width, v.height); err != nil {
			return err
		}
	}
	if v.op != "" {
		if err := v.bridge.SetOperation(v.id, v.op); err != nil {
			return err
		}
	}
	return nil
}

func (v *View) dispose() {
	v.mu.Lock()
	v.disposed = true
	v.surf = nil
	v.mu.Unlock()
	v.bridge.CloseSurface(v.id)
}

// Initialize starts the engine. It reports success.
func (v *View) Initialize(license string) bool {
	return v.bridge.Initialize(license) == nil
}

// Shutdown stops the engine and releases every model.
func (v *View) Shutdown() {
	v.bridge.Shutdown()
}

// IsInitialized reports whether the engine is ready.
func (v *View) IsInitialized() bool {
	return v.bridge.IsInitialized()
}

// LoadFile loads a drawing and returns its handle, or -1 on failure.
func (v *View) LoadFile(path string) int64 {
	h, err := v.bridge.LoadFile(context.Background(), path)
	if err != nil {
		return -1
	}
	return h
}

// UnloadModel releases a model. Unknown handles are ignored.
func (v *View) UnloadModel(handle int64) {
	_ = v.bridge.UnloadModel(handle)
}

// SetViewportSize sets the viewport size in pixels.
func (v *View) SetViewportSize(width, height int) {
	if err := v.surface(); err != nil {
		return
	}
	if err := v.bridge.SetSize(v.id, width, height); err != nil {
		return
	}
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
}

// FitView frames every loaded model.
func (v *View) FitView() {
	if err := v.surface(); err != nil {
		return
	}
	_ = v.bridge.FitView(v.id)
}

// ResetView restores the canonical camera.
func (v *View) ResetView() {
	if err := v.surface(); err != nil {
		return
	}
	_ = v.bridge.ResetView(v.id)
}

// SetViewOperation selects what pointer drags do.
func (v *View) SetViewOperation(op string) {
	if err := v.surface(); err != nil {
		return
	}
	if err := v.bridge.SetOperation(v.id, op); err != nil {
		return
	}
	v.mu.Lock()
	v.op = op
	v.mu.Unlock()
}

// HandlePointerEvent applies a pointer event. kind is one of "down",
// "move", "up", "scroll", "pinch" or "cancel"; other kinds are ignored.
func (v *View) HandlePointerEvent(kind string, x, y, dx, dy, scale float64) {
	if err := v.surface(); err != nil {
		return
	}
	_ = v.bridge.HandlePointer(v.id, gesture.Event{
		Kind:  gesture.ParseKind(kind),
		X:     x,
		Y:     y,
		DX:    dx,
		DY:    dy,
		Scale: scale,
	})
}

// Render draws a new frame. It reports success.
//
// A frame obtained from GetFrame stays valid until the next successful
// Render of the view; its memory is then reused for later frames.
func (v *View) Render() bool {
	if err := v.surface(); err != nil {
		return false
	}
	prev := v.GetFrame()
	if err := v.bridge.Render(context.Background(), v.id); err != nil {
		return false
	}
	if prev != nil {
		v.bridge.RecycleFrame(v.id, prev)
	}
	return true
}

// GetFrame returns the last rendered frame, or nil. See Render for how
// long the frame stays valid.
func (v *View) GetFrame() *frame.Frame {
	f, err := v.bridge.GetFrame(v.id)
	if err != nil {
		return nil
	}
	return f
}

// Export encodes the last rendered frame as png, jpeg, bmp or tiff. It
// returns nil on failure.
func (v *View) Export(format string) []byte {
	var buf bytes.Buffer
	if err := v.bridge.ExportFrame(v.id, &buf, format); err != nil {
		return nil
	}
	return buf.Bytes()
}

// GetLastError returns the message of the most recent failure, or "".
func (v *View) GetLastError() string {
	return v.bridge.LastError()
}

// Present uploads the last rendered frame into a host texture. The texture
// must match the frame size and pixel format.
func (v *View) Present(tex any) error {
	updater, ok := tex.(gpucontext.TextureUpdater)
	if !ok {
		return v.bridge.RecordError(ErrNotUpdatable)
	}
	f := v.GetFrame()
	if f == nil {
		return v.bridge.RecordError(ErrNoFrame)
	}
	if err := updater.UpdateData(f.Pixels()); err != nil {
		return v.bridge.RecordError(fmt.Errorf("platform: texture update failed: %w", err))
	}
	return nil
}
