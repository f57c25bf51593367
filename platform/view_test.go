// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package platform

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/gogpu/cadview"
	"github.com/gogpu/cadview/frame"
	"github.com/gogpu/cadview/viewport"
)

// mockTexture implements gpucontext.TextureUpdater for testing.
type mockTexture struct {
	data    []byte
	updated int
	err     error
}

func (m *mockTexture) UpdateData(data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data = append(m.data[:0], data...)
	m.updated++
	return nil
}

func newFactory(t *testing.T) *Factory {
	t.Helper()
	b := cadview.New(cadview.WithEngineName("placeholder"))
	t.Cleanup(b.Shutdown)
	return NewFactory(b)
}

func boxFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "box.dwg")
	if err := os.WriteFile(path, []byte("AC1032....."), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFactoryCreate(t *testing.T) {
	f := newFactory(t)

	v := f.Create("")
	if _, err := uuid.Parse(v.ID()); err != nil {
		t.Errorf("generated id %q is not a UUID: %v", v.ID(), err)
	}
	if f.Create(v.ID()) != v {
		t.Error("Create should return the existing view")
	}
	if got, ok := f.Get(v.ID()); !ok || got != v {
		t.Error("Get did not find the view")
	}
	named := f.Create("main")
	if named.ID() != "main" || len(f.Views()) != 2 {
		t.Errorf("Views() = %v", f.Views())
	}

	f.Dispose("main")
	f.Dispose("main")
	if _, ok := f.Get("main"); ok {
		t.Error("disposed view still registered")
	}
	if named.Render() {
		t.Error("Render on a disposed view succeeded")
	}
}

func TestDisposedViewReportsError(t *testing.T) {
	f := newFactory(t)
	v := f.Create("main")
	if !v.Initialize("key") {
		t.Fatal(v.GetLastError())
	}
	f.Dispose("main")

	f.bridge.ClearError()
	v.SetViewportSize(10, 10)
	if !strings.Contains(v.GetLastError(), ErrDisposed.Error()) {
		t.Errorf("GetLastError() after SetViewportSize = %q", v.GetLastError())
	}

	f.bridge.ClearError()
	if v.Render() {
		t.Fatal("Render on a disposed view succeeded")
	}
	if !strings.Contains(v.GetLastError(), ErrDisposed.Error()) {
		t.Errorf("GetLastError() after Render = %q", v.GetLastError())
	}
}

func TestViewReusesFrames(t *testing.T) {
	f := newFactory(t)
	v := f.Create("main")
	if !v.Initialize("key") {
		t.Fatal(v.GetLastError())
	}
	v.SetViewportSize(80, 60)
	tex := &mockTexture{}

	frames := make(map[*frame.Frame]bool)
	var last uint64
	for i := 0; i < 6; i++ {
		if !v.Render() {
			t.Fatal(v.GetLastError())
		}
		if err := v.Present(tex); err != nil {
			t.Fatal(err)
		}
		fr := v.GetFrame()
		if fr.Seq <= last {
			t.Errorf("render %d: Seq = %d, want > %d", i, fr.Seq, last)
		}
		last = fr.Seq
		frames[fr] = true
	}
	if len(frames) > 2 {
		t.Errorf("%d frames allocated for 6 renders, want at most 2", len(frames))
	}
}

func TestViewBoundary(t *testing.T) {
	f := newFactory(t)
	v := f.Create("main")

	// Nothing works before Initialize.
	if v.LoadFile(boxFile(t)) >= 0 {
		t.Error("LoadFile before Initialize returned a handle")
	}
	if v.GetLastError() == "" {
		t.Error("GetLastError() empty after failure")
	}
	if v.Render() || v.GetFrame() != nil {
		t.Error("render before Initialize")
	}

	if v.Initialize("  ") {
		t.Error("Initialize with a blank license succeeded")
	}
	if !v.Initialize("key") || !v.IsInitialized() {
		t.Fatal("Initialize failed: " + v.GetLastError())
	}

	h := v.LoadFile(boxFile(t))
	if h != 1 {
		t.Fatalf("LoadFile = %d: %s", h, v.GetLastError())
	}
	v.SetViewportSize(80, 60)
	v.FitView()
	v.SetViewOperation("Rotate")
	v.HandlePointerEvent("PointerDown", 10, 10, 0, 0, 0)
	v.HandlePointerEvent("move", 20, 12, 10, 2, 0)
	v.HandlePointerEvent("up", 20, 12, 0, 0, 0)
	v.HandlePointerEvent("hover", 0, 0, 5, 5, 2)
	v.HandlePointerEvent("scroll", 0, 0, 0, 0, 2)

	if !v.Render() {
		t.Fatal("Render failed: " + v.GetLastError())
	}
	fr := v.GetFrame()
	if fr == nil || fr.Width() != 80 || fr.Height() != 60 {
		t.Fatalf("GetFrame() = %+v", fr)
	}

	data := v.Export("png")
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("Export(png) not decodable: %v", err)
	}
	if v.Export("gif") != nil {
		t.Error("Export(gif) should fail")
	}

	v.UnloadModel(h)
	v.UnloadModel(h)
	v.ResetView()
	if !v.Render() {
		t.Error("Render after unload failed: " + v.GetLastError())
	}
}

func TestViewSurvivesReinitialize(t *testing.T) {
	f := newFactory(t)
	v := f.Create("main")
	if !v.Initialize("key") {
		t.Fatal(v.GetLastError())
	}
	v.SetViewportSize(40, 30)
	v.SetViewOperation("pan")
	if !v.Render() {
		t.Fatal(v.GetLastError())
	}

	v.Shutdown()
	if v.GetFrame() != nil {
		t.Error("frame survived shutdown")
	}
	if !v.Initialize("key") {
		t.Fatal(v.GetLastError())
	}
	if !v.Render() {
		t.Fatalf("Render after reinitialize: %s", v.GetLastError())
	}
	if fr := v.GetFrame(); fr == nil || fr.Width() != 40 || fr.Height() != 30 {
		t.Errorf("size not restored: %+v", fr)
	}
	if op, err := f.bridge.Operation("main"); err != nil || op != viewport.OpPan {
		t.Errorf("operation not restored: %v, %v", op, err)
	}
}

func TestPresent(t *testing.T) {
	f := newFactory(t)
	v := f.Create("main")
	tex := &mockTexture{}

	if err := v.Present(struct{}{}); !errors.Is(err, ErrNotUpdatable) {
		t.Errorf("Present(non-texture) = %v", err)
	}
	if err := v.Present(tex); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Present before render = %v", err)
	}
	if v.GetLastError() != ErrNoFrame.Error() {
		t.Errorf("GetLastError() = %q, want %q", v.GetLastError(), ErrNoFrame)
	}

	if !v.Initialize("key") {
		t.Fatal(v.GetLastError())
	}
	v.SetViewportSize(16, 8)
	if !v.Render() {
		t.Fatal(v.GetLastError())
	}
	if err := v.Present(tex); err != nil {
		t.Fatal(err)
	}
	if tex.updated != 1 || len(tex.data) != 16*8*4 {
		t.Errorf("texture updated %d times with %d bytes", tex.updated, len(tex.data))
	}
	if !bytes.Equal(tex.data, v.GetFrame().Pixels()) {
		t.Error("texture data differs from the frame")
	}

	boom := errors.New("device lost")
	tex.err = boom
	if err := v.Present(tex); !errors.Is(err, boom) {
		t.Errorf("Present = %v, want wrapping %v", err, boom)
	}
}
