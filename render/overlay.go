// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const overlayMargin = 8

var overlayColor = color.RGBA{R: 0xe0, G: 0xe6, B: 0xf0, A: 0xff}

// drawOverlay writes lines of text into the top-left corner of img.
func drawOverlay(img *image.RGBA, lines []string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(overlayColor),
		Face: face,
	}
	lineHeight := face.Metrics().Height.Ceil()
	for i, line := range lines {
		d.Dot = fixed.P(overlayMargin, overlayMargin+face.Ascent+i*lineHeight)
		d.DrawString(line)
	}
}
