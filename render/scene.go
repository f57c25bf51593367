// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/cadview/camera"
	"github.com/gogpu/cadview/engine"
)

// MeshSource supplies triangle and edge geometry. engine.Resource
// implements it.
type MeshSource interface {
	Mesh() (*engine.Mesh, error)
}

// Scene is everything drawn in one frame.
type Scene struct {
	Camera  camera.Transform
	Sources []MeshSource

	// Overlay lines are drawn in the top-left corner when the renderer's
	// style enables the HUD.
	Overlay []string
}
