//go:build gocv
// +build gocv

package renderer

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// drawOverlay draws the outlines and links with OpenCV on a 4-channel Mat
// over the frame pixels, then copies the result back into dst.
func drawOverlay(dst *image.RGBA, boxes []box, links []link) error {
	if len(boxes) == 0 && len(links) == 0 {
		return nil
	}
	b := dst.Rect
	if dst.Stride != b.Dx()*4 {
		return fmt.Errorf("overlay needs a packed frame, stride %d for width %d", dst.Stride, b.Dx())
	}
	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, dst.Pix)
	if err != nil {
		return fmt.Errorf("overlay mat: %w", err)
	}
	defer mat.Close()

	origin := b.Min
	for _, bx := range boxes {
		// OpenCV centres a thick stroke on the rectangle edge; shrinking the
		// inclusive corners keeps the whole stroke inside the block.
		r := bx.r.Sub(origin)
		inner := image.Rect(r.Min.X+BoxThickness/2, r.Min.Y+BoxThickness/2,
			r.Max.X-1-BoxThickness/2, r.Max.Y-1-BoxThickness/2)
		gocv.Rectangle(&mat, inner, matColor(bx.c), BoxThickness)
	}
	for _, l := range links {
		gocv.Line(&mat, l.a.Sub(origin), l.b.Sub(origin), matColor(LinkColor), 1)
	}

	out, err := mat.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("overlay mat data: %w", err)
	}
	copy(dst.Pix, out)
	return nil
}

// matColor maps c onto the Mat channel order. OpenCV reads the colour as
// BGRA while the Mat holds the frame's RGBA bytes.
func matColor(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.B, G: c.G, B: c.R, A: c.A}
}
