// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package frame provides rendered frames and the double buffer that hands
// them from the renderer to the host compositor.
//
// A Frame is immutable once it has been published by DoubleBuffer.Swap:
// readers may hold on to it for as long as they like without locking.
package frame

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// Frame is a block of pixels produced by one render.
type Frame struct {
	// Seq numbers published frames of a buffer, starting at 1.
	Seq uint64

	// Format is gputypes.TextureFormatRGBA8Unorm or TextureFormatBGRA8Unorm.
	Format gputypes.TextureFormat

	// RenderedAt is the time the frame was published.
	RenderedAt time.Time

	width, height int
	stride        int
	pix           []byte
}

// New allocates a zeroed frame. Formats other than RGBA8Unorm and
// BGRA8Unorm are rejected.
func New(width, height int, format gputypes.TextureFormat) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame: invalid size %dx%d", width, height)
	}
	if !SupportedFormat(format) {
		return nil, fmt.Errorf("frame: unsupported pixel format %v", format)
	}
	return &Frame{
		Format: format,
		width:  width,
		height: height,
		stride: width * 4,
		pix:    make([]byte, width*height*4),
	}, nil
}

// SupportedFormat reports whether frames can be stored in format.
func SupportedFormat(format gputypes.TextureFormat) bool {
	return format == gputypes.TextureFormatRGBA8Unorm || format == gputypes.TextureFormatBGRA8Unorm
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int { return f.stride }

// Pixels returns the raw pixel bytes in Format order. Callers must not
// modify a published frame.
func (f *Frame) Pixels() []byte { return f.pix }

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// RGBA returns the frame as an image. RGBA frames share their pixels with
// the result; BGRA frames are converted into a new image.
func (f *Frame) RGBA() *image.RGBA {
	img := &image.RGBA{Pix: f.pix, Stride: f.stride, Rect: f.Bounds()}
	if f.Format != gputypes.TextureFormatBGRA8Unorm {
		return img
	}
	out := &image.RGBA{Pix: make([]byte, len(f.pix)), Stride: f.stride, Rect: f.Bounds()}
	copy(out.Pix, f.pix)
	swizzle(out.Pix)
	return out
}

// Draw copies src into the frame, scaling it when the sizes differ, and
// converts to the frame's pixel format.
func (f *Frame) Draw(src image.Image) {
	dst := &image.RGBA{Pix: f.pix, Stride: f.stride, Rect: f.Bounds()}
	if src.Bounds().Size() == dst.Rect.Size() {
		draw.Draw(dst, dst.Rect, src, src.Bounds().Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
	}
	if f.Format == gputypes.TextureFormatBGRA8Unorm {
		swizzle(f.pix)
	}
}

// swizzle swaps the R and B channels in place.
func swizzle(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
