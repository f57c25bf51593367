// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestNew(t *testing.T) {
	f, err := New(4, 3, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	if f.Width() != 4 || f.Height() != 3 || f.Stride() != 16 || len(f.Pixels()) != 48 {
		t.Errorf("unexpected geometry %dx%d stride %d len %d", f.Width(), f.Height(), f.Stride(), len(f.Pixels()))
	}
	if _, err := New(0, 3, gputypes.TextureFormatRGBA8Unorm); err == nil {
		t.Error("New(0, 3) should fail")
	}
	if _, err := New(2, 2, gputypes.TextureFormatR8Unorm); err == nil {
		t.Error("New with R8Unorm should fail")
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDrawFormats(t *testing.T) {
	src := solid(2, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	rgba, _ := New(2, 2, gputypes.TextureFormatRGBA8Unorm)
	rgba.Draw(src)
	if got := rgba.Pixels()[:4]; !bytes.Equal(got, []byte{10, 20, 30, 255}) {
		t.Errorf("RGBA pixel = %v", got)
	}

	bgra, _ := New(2, 2, gputypes.TextureFormatBGRA8Unorm)
	bgra.Draw(src)
	if got := bgra.Pixels()[:4]; !bytes.Equal(got, []byte{30, 20, 10, 255}) {
		t.Errorf("BGRA pixel = %v", got)
	}
	if got := bgra.RGBA().RGBAAt(1, 1); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("BGRA RGBA() = %v", got)
	}
	if bgra.Pixels()[0] != 30 {
		t.Error("RGBA() modified the frame")
	}
}

func TestDrawScales(t *testing.T) {
	f, _ := New(8, 8, gputypes.TextureFormatRGBA8Unorm)
	f.Draw(solid(2, 2, color.RGBA{R: 200, A: 255}))
	if got := f.RGBA().RGBAAt(7, 7); got.R != 200 || got.A != 255 {
		t.Errorf("scaled pixel = %v", got)
	}
}

func TestDoubleBufferSwap(t *testing.T) {
	d := NewDoubleBuffer()
	if d.Front() != nil {
		t.Fatal("front should be nil before the first swap")
	}
	if _, err := d.Swap(); !errors.Is(err, ErrNoBackBuffer) {
		t.Errorf("Swap() err = %v, want ErrNoBackBuffer", err)
	}

	b1, err := d.Back(4, 4, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := d.Back(4, 4, gputypes.TextureFormatRGBA8Unorm); again != b1 {
		t.Error("Back should return the same frame until swapped")
	}
	f1, _ := d.Swap()
	if f1 != b1 || d.Front() != b1 || f1.Seq != 1 || f1.RenderedAt.IsZero() {
		t.Errorf("first swap: %+v", f1)
	}

	b2, _ := d.Back(4, 4, gputypes.TextureFormatRGBA8Unorm)
	if b2 == f1 {
		t.Fatal("published front reused as back buffer")
	}
	f2, _ := d.Swap()
	if f2.Seq != 2 || d.Front() != b2 {
		t.Errorf("second swap: seq %d", f2.Seq)
	}
}

func TestDoubleBufferRecycle(t *testing.T) {
	d := NewDoubleBuffer()
	_, _ = d.Back(4, 4, gputypes.TextureFormatRGBA8Unorm)
	old, _ := d.Swap()

	d.Recycle(old) // current front: ignored
	b, _ := d.Back(4, 4, gputypes.TextureFormatRGBA8Unorm)
	if b == old {
		t.Fatal("front was recycled")
	}
	_, _ = d.Swap()

	d.Recycle(old)
	if b, _ := d.Back(4, 4, gputypes.TextureFormatRGBA8Unorm); b != old {
		t.Error("recycled frame not reused")
	}
	d.Discard()
	if b, _ := d.Back(8, 8, gputypes.TextureFormatRGBA8Unorm); b == old {
		t.Error("mismatched size should allocate")
	}
}

func TestDoubleBufferReset(t *testing.T) {
	d := NewDoubleBuffer()
	_, _ = d.Back(1, 1, gputypes.TextureFormatRGBA8Unorm)
	_, _ = d.Swap()
	d.Reset()
	if d.Front() != nil {
		t.Error("Front() after Reset should be nil")
	}
}

func TestDoubleBufferConcurrentReaders(t *testing.T) {
	d := NewDoubleBuffer()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for {
				select {
				case <-stop:
					return
				default:
				}
				f := d.Front()
				if f == nil {
					continue
				}
				if f.Seq < last {
					t.Errorf("sequence went backwards: %d < %d", f.Seq, last)
					return
				}
				last = f.Seq
				// A published frame is uniform: every pixel carries its sequence.
				v := f.Pixels()[0]
				for _, p := range f.Pixels() {
					if p != v {
						t.Errorf("torn frame %d", f.Seq)
						return
					}
				}
			}
		}()
	}

	for i := 1; i <= 200; i++ {
		b, err := d.Back(16, 16, gputypes.TextureFormatRGBA8Unorm)
		if err != nil {
			t.Fatal(err)
		}
		for j := range b.Pixels() {
			b.Pixels()[j] = byte(i)
		}
		if _, err := d.Swap(); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestEncode(t *testing.T) {
	f, _ := New(3, 2, gputypes.TextureFormatBGRA8Unorm)
	f.Draw(solid(3, 2, color.RGBA{R: 255, G: 128, A: 255}))

	for _, name := range []string{"png", "PNG", "jpg", ".jpeg", "bmp", "tif", "tiff"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, f, name); err != nil {
				t.Fatal(err)
			}
			if buf.Len() == 0 {
				t.Error("empty output")
			}
		})
	}

	var buf bytes.Buffer
	if err := Encode(&buf, f, "gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Encode(gif) err = %v", err)
	}
	if err := Encode(&buf, nil, "png"); err == nil {
		t.Error("Encode(nil) should fail")
	}
}

func TestEncodeLossless(t *testing.T) {
	f, _ := New(3, 2, gputypes.TextureFormatBGRA8Unorm)
	want := color.RGBA{R: 255, G: 128, B: 7, A: 255}
	f.Draw(solid(3, 2, want))

	decoders := map[string]func(*bytes.Buffer) (image.Image, error){
		"png":  func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) },
		"bmp":  func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) },
		"tiff": func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) },
	}
	for name, decode := range decoders {
		var buf bytes.Buffer
		if err := Encode(&buf, f, name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		img, err := decode(&buf)
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		r, g, b, a := img.At(2, 1).RGBA()
		got := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
		if got != want {
			t.Errorf("%s pixel = %v, want %v", name, got, want)
		}
	}
}
