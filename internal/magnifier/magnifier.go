// Package magnifier crops a square around a cursor and scales it up for a
// zoom view. It only reads the displayed buffer and keeps no state.
package magnifier

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

const (
	DefaultFactor = 1
	MaxFactor     = 10
	DefaultSize   = 200
)

// CropRect returns the region Zoom magnifies: a square of side size/factor
// centred on cursor, shifted so it stays inside bounds. The side shrinks to
// fit buffers smaller than the crop.
func CropRect(bounds image.Rectangle, cursor image.Point, factor, size int) image.Rectangle {
	if factor < 1 {
		factor = 1
	}
	if size < 1 {
		size = 1
	}
	crop := size / factor
	if crop < 1 {
		crop = 1
	}
	crop = min(crop, bounds.Dx(), bounds.Dy())

	x := clamp(cursor.X-crop/2, bounds.Min.X, bounds.Max.X-crop)
	y := clamp(cursor.Y-crop/2, bounds.Min.Y, bounds.Max.Y-crop)
	return image.Rect(x, y, x+crop, y+crop)
}

// Zoom returns a size x size bilinear enlargement of the crop around cursor.
func Zoom(src image.Image, cursor image.Point, factor, size int) *image.RGBA {
	if size < 1 {
		size = DefaultSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	b := src.Bounds()
	if b.Empty() {
		return dst
	}

	crop := CropRect(b, cursor, factor, size)
	xdraw.BiLinear.Scale(dst, dst.Rect, src, crop, xdraw.Src, nil)
	return dst
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
