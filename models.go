package cadview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/gogpu/cadview/engine"
	"github.com/gogpu/cadview/internal/cache"
)

// model is a loaded drawing owned by the model arena.
type model struct {
	handle   int64
	path     string
	loadedAt time.Time
	res      engine.Resource
}

func (m *model) Close() error { return m.res.Close() }

func (m *model) info() ModelInfo {
	return ModelInfo{
		Handle:   m.handle,
		Path:     m.path,
		LoadedAt: m.loadedAt,
		Bounds:   m.res.Bounds(),
		Info:     m.res.Info(),
	}
}

// ModelInfo describes a loaded drawing.
type ModelInfo struct {
	Handle   int64
	Path     string
	LoadedAt time.Time
	Bounds   engine.Bounds
	engine.Info
}

// LoadFile loads the drawing at path and returns its handle. Handles start
// at 1 after every Initialize and are never reused while the bridge stays
// ready.
//
// Parsing happens without holding the lifecycle lock. Shutdown waits for it
// to finish; the drawing is then discarded and the error matches
// ErrNotInitialized.
func (b *Bridge) LoadFile(ctx context.Context, path string) (int64, error) {
	b.mu.RLock()
	if !b.ready() {
		b.mu.RUnlock()
		return -1, b.notInitialized("load")
	}
	gen, eng := b.gen, b.eng
	b.loads.Add(1)
	b.mu.RUnlock()
	defer b.loads.Done()

	if err := checkDrawingPath(eng, path); err != nil {
		return -1, b.fail(fmt.Errorf("cadview: load %q: %w: %w", path, ErrLoad, err))
	}
	res, err := eng.Open(ctx, path)
	if err != nil {
		return -1, b.fail(fmt.Errorf("cadview: load %q: %w: %w", path, ErrLoad, err))
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() || b.gen != gen {
		if cerr := res.Close(); cerr != nil {
			b.log().Warn("cadview: closing discarded model failed", "path", path, "err", cerr)
		}
		return -1, b.notInitialized("load")
	}
	loadedAt := b.now()
	h := b.models.Insert(func(h int64) *model {
		return &model{handle: h, path: path, loadedAt: loadedAt, res: res}
	})
	info := res.Info()
	b.log().Info("cadview: model loaded", "handle", h, "path", path,
		"format", info.Format, "version", info.Version)
	return h, nil
}

// checkDrawingPath verifies that path names a readable regular file the
// engine can open.
func checkDrawingPath(eng engine.Engine, path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	if ext := engine.Ext(path); !eng.Supports(ext) {
		return fmt.Errorf("%w: %q", engine.ErrUnsupportedFormat, ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// UnloadModel releases the model. Unknown handles are ignored. A model in
// use by a render stays usable until that render finishes.
func (b *Bridge) UnloadModel(handle int64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() {
		return b.notInitialized("unload")
	}
	if !b.models.Remove(handle) {
		b.log().Debug("cadview: unload of unknown model ignored", "handle", handle)
		return nil
	}
	b.log().Info("cadview: model unloaded", "handle", handle)
	return nil
}

// Models returns the loaded models ordered by handle. It returns nil while
// the bridge is not ready.
func (b *Bridge) Models() []ModelInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() {
		return nil
	}
	refs := b.models.Snapshot()
	defer refs.Release()
	out := make([]ModelInfo, refs.Len())
	for i := range out {
		out[i] = refs.Value(i).info()
	}
	return out
}

// ModelInfo returns the metadata of a loaded model.
func (b *Bridge) ModelInfo(handle int64) (ModelInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() {
		return ModelInfo{}, b.notInitialized("model info")
	}
	m, release, ok := b.models.Acquire(handle)
	defer release()
	if !ok {
		return ModelInfo{}, b.unknownModel("model info", handle)
	}
	return m.info(), nil
}

// Layers returns the layer names of a loaded model.
func (b *Bridge) Layers(handle int64) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() {
		return nil, b.notInitialized("layers")
	}
	m, release, ok := b.models.Acquire(handle)
	defer release()
	if !ok {
		return nil, b.unknownModel("layers", handle)
	}
	return slices.Clone(m.res.Layers()), nil
}

func (b *Bridge) unknownModel(op string, handle int64) error {
	return b.fail(fmt.Errorf("cadview: %s: %w: %w %d", op, ErrInvalidOperation, ErrUnknownModel, handle))
}

// sceneBounds returns the union of the bounds of every loaded model.
// b.mu must be held.
func (b *Bridge) sceneBounds() engine.Bounds {
	refs := b.models.Snapshot()
	defer refs.Release()
	var bounds engine.Bounds
	for i := 0; i < refs.Len(); i++ {
		bounds = bounds.Union(refs.Value(i).res.Bounds())
	}
	return bounds
}

// inspectKey identifies one version of a file on disk.
type inspectKey struct {
	path    string
	size    int64
	modTime int64
}

func (k inspectKey) hash() uint64 {
	return cache.StringHasher(k.path) ^ uint64(k.size)*0x9e3779b97f4a7c15 ^ uint64(k.modTime)
}

type inspectResult struct {
	info   engine.Info
	layers []string
}

// Inspect reads the metadata and layer names of a drawing without loading
// it as a model. Results are cached until the file changes.
func (b *Bridge) Inspect(ctx context.Context, path string) (engine.Info, []string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready() {
		return engine.Info{}, nil, b.notInitialized("inspect")
	}
	if err := checkDrawingPath(b.eng, path); err != nil {
		return engine.Info{}, nil, b.fail(fmt.Errorf("cadview: inspect %q: %w: %w", path, ErrLoad, err))
	}
	fi, err := os.Stat(path)
	if err != nil {
		return engine.Info{}, nil, b.fail(fmt.Errorf("cadview: inspect %q: %w: %w", path, ErrLoad, err))
	}

	key := inspectKey{path: path, size: fi.Size(), modTime: fi.ModTime().UnixNano()}
	if r, ok := b.inspect.Get(key); ok {
		return r.info, slices.Clone(r.layers), nil
	}

	res, err := b.eng.Open(ctx, path)
	if err != nil {
		return engine.Info{}, nil, b.fail(fmt.Errorf("cadview: inspect %q: %w: %w", path, ErrLoad, err))
	}
	r := inspectResult{info: res.Info(), layers: slices.Clone(res.Layers())}
	if err := res.Close(); err != nil {
		b.log().Warn("cadview: closing inspected drawing failed", "path", path, "err", err)
	}
	b.inspect.Set(key, r)
	return r.info, slices.Clone(r.layers), nil
}
