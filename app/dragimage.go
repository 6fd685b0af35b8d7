// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"image"

	"golang.org/x/image/draw"
)

// scaleDragImage scales img down to fit within max, preserving its
// aspect ratio, and scales offset along with it. Images that already
// fit are returned unchanged.
func scaleDragImage(img image.Image, offset, max image.Point) (image.Image, image.Point) {
	if img == nil {
		return nil, offset
	}
	b := img.Bounds()
	sz := b.Size()
	if max.X <= 0 || max.Y <= 0 || (sz.X <= max.X && sz.Y <= max.Y) {
		return img, offset
	}
	scale := float64(max.X) / float64(sz.X)
	if sy := float64(max.Y) / float64(sz.Y); sy < scale {
		scale = sy
	}
	w := int(float64(sz.X) * scale)
	h := int(float64(sz.Y) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	offset = image.Pt(int(float64(offset.X)*scale), int(float64(offset.Y)*scale))
	return dst, offset
}
