// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/cadview/frame"
)

// Errors returned by renderers.
var (
	// ErrNilTarget is returned when Render is called without a target frame.
	ErrNilTarget = errors.New("render: nil target")

	// ErrClosed is returned by Render after Close.
	ErrClosed = errors.New("render: renderer closed")
)

// Renderer draws a scene into a frame.
//
// Renderers keep scratch state between calls and are NOT safe for
// concurrent use; callers serialize Render per renderer.
type Renderer interface {
	// Render draws scene into target. On error the contents of target are
	// unspecified and it must not be published.
	Render(target *frame.Frame, scene *Scene) error

	// Close releases the renderer's drawing surface.
	Close() error
}
