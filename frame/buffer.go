// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
)

// ErrNoBackBuffer is returned by Swap when Back was not called first.
var ErrNoBackBuffer = errors.New("frame: no back buffer to swap")

// DoubleBuffer holds the published front frame and the back frame being
// drawn. Front is lock-free; Back and Swap are meant to be called by a
// single renderer at a time.
//
// Published frames are never written again. After a swap the next Back
// call allocates a fresh frame, unless the host has handed an old frame
// back through Recycle.
type DoubleBuffer struct {
	front atomic.Pointer[Frame]

	mu    sync.Mutex
	back  *Frame
	spare *Frame
	seq   uint64
	now   func() time.Time
}

// NewDoubleBuffer returns an empty buffer.
func NewDoubleBuffer() *DoubleBuffer {
	return &DoubleBuffer{now: time.Now}
}

// Front returns the most recently published frame, or nil before the
// first Swap.
func (d *DoubleBuffer) Front() *Frame {
	return d.front.Load()
}

// Back returns the frame to draw into, sized width×height in format.
func (d *DoubleBuffer) Back(width, height int, format gputypes.TextureFormat) (*Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fits(d.back, width, height, format) {
		return d.back, nil
	}
	if fits(d.spare, width, height, format) {
		d.back, d.spare = d.spare, nil
		return d.back, nil
	}
	f, err := New(width, height, format)
	if err != nil {
		return nil, err
	}
	d.back = f
	return f, nil
}

func fits(f *Frame, width, height int, format gputypes.TextureFormat) bool {
	return f != nil && f.width == width && f.height == height && f.Format == format
}

// Swap publishes the back frame as the new front and returns it.
func (d *DoubleBuffer) Swap() (*Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.back == nil {
		return nil, ErrNoBackBuffer
	}
	f := d.back
	d.back = nil
	d.seq++
	f.Seq = d.seq
	f.RenderedAt = d.now()
	d.front.Store(f)
	return f, nil
}

// Discard drops the back frame without publishing it.
func (d *DoubleBuffer) Discard() {
	d.mu.Lock()
	d.back = nil
	d.mu.Unlock()
}

// Recycle hands a frame the host no longer reads back to the buffer for
// reuse. The current front is never recycled.
func (d *DoubleBuffer) Recycle(f *Frame) {
	if f == nil {
		return
	}
	d.mu.Lock()
	if f != d.back && f != d.front.Load() {
		d.spare = f
	}
	d.mu.Unlock()
}

// Reset drops every frame. Front returns nil afterwards.
func (d *DoubleBuffer) Reset() {
	d.mu.Lock()
	d.back, d.spare = nil, nil
	d.front.Store(nil)
	d.mu.Unlock()
}
