// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns a camera and a set of drawing meshes into pixels.
//
// The SoftwareRenderer rasterizes with gg: a vertical gradient background,
// flat-shaded triangles in back-to-front order, edge lines on top and an
// optional text overlay. The result is copied into a frame.Frame supplied
// by the caller, usually the back buffer of a frame.DoubleBuffer.
//
// # Usage
//
//	r := render.NewSoftwareRenderer(render.DefaultStyle())
//	defer r.Close()
//
//	back, _ := buf.Back(800, 600, gputypes.TextureFormatRGBA8Unorm)
//	if err := r.Render(back, &render.Scene{Camera: cam, Sources: models}); err != nil {
//		buf.Discard()
//		return err
//	}
//	buf.Swap()
package render
