//go:build !gocv
// +build !gocv

package renderer

import (
	"image"
	"image/color"
)

// drawOverlay rasterizes the outlines and links in pure Go.
func drawOverlay(dst *image.RGBA, boxes []box, links []link) error {
	for _, b := range boxes {
		drawBox(dst, b.r, BoxThickness, b.c)
	}
	for _, l := range links {
		drawLine(dst, l.a, l.b, LinkColor)
	}
	return nil
}

// drawBox outlines r with a border of the given thickness drawn inward.
// Pixels outside dst are skipped.
func drawBox(dst *image.RGBA, r image.Rectangle, thickness int, c color.RGBA) {
	for t := 0; t < thickness; t++ {
		inner := r.Inset(t)
		if inner.Empty() {
			return
		}
		for x := inner.Min.X; x < inner.Max.X; x++ {
			dst.SetRGBA(x, inner.Min.Y, c)
			dst.SetRGBA(x, inner.Max.Y-1, c)
		}
		for y := inner.Min.Y; y < inner.Max.Y; y++ {
			dst.SetRGBA(inner.Min.X, y, c)
			dst.SetRGBA(inner.Max.X-1, y, c)
		}
	}
}

// drawLine rasterizes a one pixel line with Bresenham's algorithm.
func drawLine(dst *image.RGBA, a, b image.Point, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy

	for {
		dst.SetRGBA(a.X, a.Y, c)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
