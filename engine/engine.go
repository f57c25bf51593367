// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Engine is the contract a CAD rendering engine implements to be driven by
// the bridge.
//
// The bridge owns the engine's lifecycle: Start is called once per
// successful initialization and Stop once per shutdown. Open may be called
// concurrently from several goroutines while the engine is started; it is
// expected to be slow (it parses a complete drawing).
type Engine interface {
	// Name identifies the engine in logs and in the registry.
	Name() string

	// Start verifies the license and allocates engine-wide resources.
	// A rejected license must be reported by wrapping ErrLicense.
	Start(license string) error

	// Stop releases engine-wide resources. Every Resource opened since
	// Start has already been closed when Stop is called.
	Stop() error

	// Supports reports whether files with the given extension
	// (lower case, including the dot) can be opened.
	Supports(ext string) bool

	// Open loads the drawing at path.
	Open(ctx context.Context, path string) (Resource, error)
}

// Resource is an engine-native loaded drawing.
//
// Bounds, Info and Layers must be safe for concurrent use. Mesh is called
// by renderers while they hold a reference to the resource, possibly from
// several surfaces at once. Close is called exactly once, after the last
// reference is released.
type Resource interface {
	Bounds() Bounds
	Info() Info
	Layers() []string
	Mesh() (*Mesh, error)
	Close() error
}

// Info is descriptive drawing metadata.
type Info struct {
	Format   string // "DWG", "DXF", ...
	Version  string // file format version code, e.g. "AC1032"
	Release  string // product release the version maps to
	Author   string
	Created  time.Time
	Modified time.Time
	Units    string
}

// Errors reported by engines.
var (
	// ErrLicense is wrapped by Start when the license is rejected.
	ErrLicense = errors.New("engine: license rejected")

	// ErrUnsupportedFormat is wrapped by Open for files the engine cannot read.
	ErrUnsupportedFormat = errors.New("engine: unsupported drawing format")

	// ErrCorrupt is wrapped by Open for files whose content is malformed.
	ErrCorrupt = errors.New("engine: corrupt drawing")
)

// Ext returns the lower-cased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Bounds is an axis-aligned bounding box in world units.
// The zero value is empty.
type Bounds struct {
	Min, Max mgl64.Vec3
	valid    bool
}

// NewBounds returns the box spanning the two corners in any order.
func NewBounds(a, b mgl64.Vec3) Bounds {
	return Bounds{
		Min:   mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max:   mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
		valid: true,
	}
}

// IsEmpty reports whether the box contains no point.
func (b Bounds) IsEmpty() bool {
	return !b.valid
}

// Extend grows the box to contain p.
func (b Bounds) Extend(p mgl64.Vec3) Bounds {
	if !b.valid {
		return NewBounds(p, p)
	}
	return NewBounds(
		mgl64.Vec3{math.Min(b.Min[0], p[0]), math.Min(b.Min[1], p[1]), math.Min(b.Min[2], p[2])},
		mgl64.Vec3{math.Max(b.Max[0], p[0]), math.Max(b.Max[1], p[1]), math.Max(b.Max[2], p[2])},
	)
}

// Union returns the smallest box containing both boxes.
func (b Bounds) Union(o Bounds) Bounds {
	switch {
	case !o.valid:
		return b
	case !b.valid:
		return o
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the box center.
func (b Bounds) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the radius of the bounding sphere around Center.
func (b Bounds) Radius() float64 {
	if !b.valid {
		return 0
	}
	return b.Max.Sub(b.Min).Len() / 2
}

// Mesh is renderable geometry: triangles for faces and index pairs for
// edges, both indexing into Vertices.
type Mesh struct {
	Vertices  []mgl64.Vec3
	Triangles [][3]int
	Edges     [][2]int
}

// Bounds returns the box around all vertices.
func (m *Mesh) Bounds() Bounds {
	var b Bounds
	for _, v := range m.Vertices {
		b = b.Extend(v)
	}
	return b
}

// BoxMesh returns a closed box covering b with 12 triangles and 12 edges.
func BoxMesh(b Bounds) *Mesh {
	lo, hi := b.Min, b.Max
	v := []mgl64.Vec3{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]}, {lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
	return &Mesh{
		Vertices: v,
		Triangles: [][3]int{
			{0, 2, 1}, {0, 3, 2}, // back
			{4, 5, 6}, {4, 6, 7}, // front
			{0, 1, 5}, {0, 5, 4}, // bottom
			{3, 7, 6}, {3, 6, 2}, // top
			{0, 4, 7}, {0, 7, 3}, // left
			{1, 2, 6}, {1, 6, 5}, // right
		},
		Edges: [][2]int{
			{0, 1}, {1, 2}, {2, 3}, {3, 0},
			{4, 5}, {5, 6}, {6, 7}, {7, 4},
			{0, 4}, {1, 5}, {2, 6}, {3, 7},
		},
	}
}
