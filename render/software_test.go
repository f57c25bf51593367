// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/cadview/camera"
	"github.com/gogpu/cadview/engine"
	"github.com/gogpu/cadview/frame"
)

type meshSource struct {
	mesh *engine.Mesh
	err  error
}

func (s meshSource) Mesh() (*engine.Mesh, error) { return s.mesh, s.err }

func newTarget(t *testing.T, w, h int, format gputypes.TextureFormat) *frame.Frame {
	t.Helper()
	f, err := frame.New(w, h, format)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -4 && d <= 4
}

func sameColor(c color.RGBA, want color.Color) bool {
	r, g, b, _ := want.RGBA()
	return near(c.R, uint8(r>>8)) && near(c.G, uint8(g>>8)) && near(c.B, uint8(b>>8))
}

func TestRenderBackgroundOnly(t *testing.T) {
	style := DefaultStyle()
	r := NewSoftwareRenderer(style)
	defer r.Close()

	target := newTarget(t, 64, 128, gputypes.TextureFormatRGBA8Unorm)
	if err := r.Render(target, &Scene{Camera: camera.Default()}); err != nil {
		t.Fatal(err)
	}
	img := target.RGBA()
	if top := img.RGBAAt(32, 0); !sameColor(top, style.BackgroundTop.Color()) {
		t.Errorf("top pixel = %v, want ~%v", top, style.BackgroundTop.Color())
	}
	if bottom := img.RGBAAt(32, 127); !sameColor(bottom, style.BackgroundBottom.Color()) {
		t.Errorf("bottom pixel = %v, want ~%v", bottom, style.BackgroundBottom.Color())
	}
	if a := img.RGBAAt(10, 60).A; a != 255 {
		t.Errorf("alpha = %d, want opaque", a)
	}
}

func TestRenderBox(t *testing.T) {
	style := DefaultStyle()
	style.HUD = false
	r := NewSoftwareRenderer(style)
	defer r.Close()

	b := engine.NewBounds(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	scene := &Scene{
		Camera:  camera.Fit(b, 1),
		Sources: []MeshSource{meshSource{mesh: engine.BoxMesh(b)}},
	}

	empty := newTarget(t, 100, 100, gputypes.TextureFormatRGBA8Unorm)
	if err := r.Render(empty, &Scene{Camera: scene.Camera}); err != nil {
		t.Fatal(err)
	}
	box := newTarget(t, 100, 100, gputypes.TextureFormatRGBA8Unorm)
	if err := r.Render(box, scene); err != nil {
		t.Fatal(err)
	}

	center := box.RGBA().RGBAAt(50, 50)
	if center == empty.RGBA().RGBAAt(50, 50) {
		t.Error("box not drawn at the viewport center")
	}
	if corner := box.RGBA().RGBAAt(1, 1); corner != empty.RGBA().RGBAAt(1, 1) {
		t.Errorf("corner pixel %v should be background", corner)
	}
}

func TestRenderResizes(t *testing.T) {
	r := NewSoftwareRenderer(DefaultStyle())
	defer r.Close()
	for _, sz := range [][2]int{{32, 16}, {80, 60}, {32, 16}} {
		target := newTarget(t, sz[0], sz[1], gputypes.TextureFormatBGRA8Unorm)
		if err := r.Render(target, &Scene{Camera: camera.Default(), Overlay: []string{"x"}}); err != nil {
			t.Fatalf("%dx%d: %v", sz[0], sz[1], err)
		}
	}
}

func TestRenderMeshError(t *testing.T) {
	r := NewSoftwareRenderer(DefaultStyle())
	defer r.Close()
	boom := errors.New("boom")
	err := r.Render(newTarget(t, 8, 8, gputypes.TextureFormatRGBA8Unorm), &Scene{
		Camera:  camera.Default(),
		Sources: []MeshSource{meshSource{err: boom}},
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapping boom", err)
	}
}

func TestRenderInvalidIndicesSkipped(t *testing.T) {
	r := NewSoftwareRenderer(DefaultStyle())
	defer r.Close()
	m := &engine.Mesh{
		Vertices:  []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}},
		Triangles: [][3]int{{0, 1, 5}},
		Edges:     [][2]int{{0, 9}, {-1, 1}},
	}
	err := r.Render(newTarget(t, 8, 8, gputypes.TextureFormatRGBA8Unorm), &Scene{
		Camera:  camera.Default(),
		Sources: []MeshSource{meshSource{mesh: m}},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestOverlayDrawsText(t *testing.T) {
	style := DefaultStyle()
	r := NewSoftwareRenderer(style)
	defer r.Close()

	plain := newTarget(t, 120, 40, gputypes.TextureFormatRGBA8Unorm)
	_ = r.Render(plain, &Scene{Camera: camera.Default()})
	text := newTarget(t, 120, 40, gputypes.TextureFormatRGBA8Unorm)
	_ = r.Render(text, &Scene{Camera: camera.Default(), Overlay: []string{"HUD TEXT"}})

	diff := 0
	a, b := plain.Pixels(), text.Pixels()
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	if diff == 0 {
		t.Error("overlay did not change any pixel")
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewSoftwareRenderer(DefaultStyle())
	if err := r.Render(nil, nil); !errors.Is(err, ErrNilTarget) {
		t.Errorf("Render(nil) = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := r.Render(newTarget(t, 4, 4, gputypes.TextureFormatRGBA8Unorm), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Render after Close = %v", err)
	}
}
