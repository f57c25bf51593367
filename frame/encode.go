// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/text/cases"
)

// ErrUnsupportedFormat is returned by Encode for unknown image formats.
var ErrUnsupportedFormat = errors.New("frame: unsupported image format")

// JPEGQuality is the quality used for jpeg exports.
const JPEGQuality = 90

// Formats lists the names accepted by Encode.
func Formats() []string {
	return []string{"png", "jpeg", "bmp", "tiff"}
}

// NormalizeFormat returns the canonical name for an image format, accepting
// any letter case, a leading dot and the jpg/tif spellings.
func NormalizeFormat(name string) (string, error) {
	n := strings.TrimPrefix(cases.Fold().String(strings.TrimSpace(name)), ".")
	switch n {
	case "png", "bmp":
		return n, nil
	case "jpeg", "jpg":
		return "jpeg", nil
	case "tiff", "tif":
		return "tiff", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Encode writes f to w as an image file in the named format.
func Encode(w io.Writer, f *Frame, format string) error {
	if f == nil {
		return errors.New("frame: nil frame")
	}
	name, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	img := f.RGBA()
	switch name {
	case "png":
		err = png.Encode(w, img)
	case "jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if err != nil {
		return fmt.Errorf("frame: encode %s: %w", name, err)
	}
	return nil
}
