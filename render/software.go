// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"cmp"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/gogpu/cadview/camera"
	"github.com/gogpu/cadview/engine"
	"github.com/gogpu/cadview/frame"
)

// gradientSteps is the number of bands used for the background gradient.
const gradientSteps = 64

// Style controls the colors of a rendered frame.
type Style struct {
	BackgroundTop    gg.RGBA
	BackgroundBottom gg.RGBA
	Surface          gg.RGBA
	Edge             gg.RGBA
	EdgeWidth        float64

	// Ambient is the light level of faces turned away from the viewer, 0..1.
	Ambient float64

	// HUD enables the text overlay.
	HUD bool
}

// DefaultStyle returns a dark blue background with light grey geometry.
func DefaultStyle() Style {
	return Style{
		BackgroundTop:    gg.RGB(0.16, 0.20, 0.28),
		BackgroundBottom: gg.RGB(0.05, 0.06, 0.09),
		Surface:          gg.RGB(0.78, 0.80, 0.84),
		Edge:             gg.RGB(0.10, 0.12, 0.16),
		EdgeWidth:        1,
		Ambient:          0.25,
		HUD:              true,
	}
}

// tri is a projected triangle ready to fill.
type tri struct {
	x, y  [3]float64
	depth float64
	shade float64
}

// SoftwareRenderer rasterizes scenes on the CPU with a gg.Context.
//
// The context is kept between renders and resized when the target size
// changes.
type SoftwareRenderer struct {
	style  Style
	dc     *gg.Context
	tris   []tri
	closed bool
}

// NewSoftwareRenderer creates a renderer with the given style.
func NewSoftwareRenderer(style Style) *SoftwareRenderer {
	return &SoftwareRenderer{style: style}
}

// Render draws scene into target.
func (r *SoftwareRenderer) Render(target *frame.Frame, scene *Scene) error {
	if r.closed {
		return ErrClosed
	}
	if target == nil {
		return ErrNilTarget
	}
	if scene == nil {
		scene = &Scene{Camera: camera.Default()}
	}

	meshes := make([]*engine.Mesh, 0, len(scene.Sources))
	for i, src := range scene.Sources {
		m, err := src.Mesh()
		if err != nil {
			return fmt.Errorf("render: mesh %d: %w", i, err)
		}
		meshes = append(meshes, m)
	}

	w, h := target.Width(), target.Height()
	if err := r.ensureContext(w, h); err != nil {
		return err
	}

	if err := r.drawBackground(w, h); err != nil {
		return err
	}
	proj := scene.Camera.Projector(w, h)
	if err := r.drawFaces(meshes, scene.Camera, proj); err != nil {
		return err
	}
	if err := r.drawEdges(meshes, proj); err != nil {
		return err
	}

	img := toRGBA(r.dc.Image())
	if r.style.HUD && len(scene.Overlay) > 0 {
		drawOverlay(img, scene.Overlay)
	}
	target.Draw(img)
	return nil
}

// Close releases the drawing context. Render fails afterwards.
func (r *SoftwareRenderer) Close() error {
	r.closed = true
	if r.dc == nil {
		return nil
	}
	err := r.dc.Close()
	r.dc = nil
	return err
}

func (r *SoftwareRenderer) ensureContext(w, h int) error {
	if r.dc == nil {
		r.dc = gg.NewContext(w, h)
		return nil
	}
	if err := r.dc.Resize(w, h); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func (r *SoftwareRenderer) drawBackground(w, h int) error {
	top, bottom := r.style.BackgroundTop, r.style.BackgroundBottom
	band := float64(h) / gradientSteps
	for i := 0; i < gradientSteps; i++ {
		c := top.Lerp(bottom, float64(i)/float64(gradientSteps-1))
		r.dc.SetRGBA(c.R, c.G, c.B, 1)
		r.dc.DrawRectangle(0, float64(i)*band, float64(w), band+1)
		if err := r.dc.Fill(); err != nil {
			return fmt.Errorf("render: background: %w", err)
		}
	}
	return nil
}

func (r *SoftwareRenderer) drawFaces(meshes []*engine.Mesh, cam camera.Transform, proj camera.Projector) error {
	forward, right, up := cam.Basis()
	light := forward.Mul(-1).Add(right.Mul(0.3)).Add(up.Mul(0.5)).Normalize()

	r.tris = r.tris[:0]
	for _, m := range meshes {
		r.tris = appendTriangles(r.tris, m, proj, light, r.style.Ambient)
	}
	// back to front
	slices.SortStableFunc(r.tris, func(a, b tri) int { return cmp.Compare(b.depth, a.depth) })

	s := r.style.Surface
	for i := range r.tris {
		t := &r.tris[i]
		r.dc.SetRGBA(s.R*t.shade, s.G*t.shade, s.B*t.shade, s.A)
		r.dc.MoveTo(t.x[0], t.y[0])
		r.dc.LineTo(t.x[1], t.y[1])
		r.dc.LineTo(t.x[2], t.y[2])
		r.dc.ClosePath()
		if err := r.dc.Fill(); err != nil {
			return fmt.Errorf("render: faces: %w", err)
		}
	}
	return nil
}

func appendTriangles(dst []tri, m *engine.Mesh, proj camera.Projector, light mgl64.Vec3, ambient float64) []tri {
	n := len(m.Vertices)
	for _, f := range m.Triangles {
		if !validIndex(f[0], n) || !validIndex(f[1], n) || !validIndex(f[2], n) {
			continue
		}
		var t tri
		visible := true
		for k, vi := range f {
			x, y, z, ok := proj.Project(m.Vertices[vi])
			if !ok {
				visible = false
				break
			}
			t.x[k], t.y[k] = x, y
			t.depth += z / 3
		}
		if !visible {
			continue
		}
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		normal := b.Sub(a).Cross(c.Sub(a))
		t.shade = ambient
		if l := normal.Len(); l > 0 {
			t.shade += (1 - ambient) * math.Abs(normal.Mul(1/l).Dot(light))
		}
		dst = append(dst, t)
	}
	return dst
}

func (r *SoftwareRenderer) drawEdges(meshes []*engine.Mesh, proj camera.Projector) error {
	if r.style.EdgeWidth <= 0 {
		return nil
	}
	drawn := false
	for _, m := range meshes {
		n := len(m.Vertices)
		for _, e := range m.Edges {
			if !validIndex(e[0], n) || !validIndex(e[1], n) {
				continue
			}
			x0, y0, _, ok0 := proj.Project(m.Vertices[e[0]])
			x1, y1, _, ok1 := proj.Project(m.Vertices[e[1]])
			if !ok0 || !ok1 {
				continue
			}
			r.dc.MoveTo(x0, y0)
			r.dc.LineTo(x1, y1)
			drawn = true
		}
	}
	if !drawn {
		return nil
	}
	e := r.style.Edge
	r.dc.SetRGBA(e.R, e.G, e.B, e.A)
	r.dc.SetLineWidth(r.style.EdgeWidth)
	if err := r.dc.Stroke(); err != nil {
		return fmt.Errorf("render: edges: %w", err)
	}
	return nil
}

func validIndex(i, n int) bool { return i >= 0 && i < n }

// toRGBA returns img as *image.RGBA, converting when needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba
}

var _ Renderer = (*SoftwareRenderer)(nil)
