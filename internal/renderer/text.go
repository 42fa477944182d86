package renderer

import (
	"image"
	"image/color"

	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawLabel writes text in the top-left corner with a dark shadow so it
// stays readable on light images.
func DrawLabel(dst *image.RGBA, text string) {
	face := basicfont.Face7x13
	origin := dst.Rect.Min.Add(image.Pt(10, 20))

	for _, layer := range []struct {
		off image.Point
		col color.Color
	}{
		{image.Pt(1, 1), color.Black},
		{image.Pt(0, 0), color.RGBA{R: 255, G: 255, B: 0, A: 255}},
	} {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(layer.col),
			Face: face,
			Dot:  fixed.P(origin.X+layer.off.X, origin.Y+layer.off.Y),
		}
		d.DrawString(text)
	}
}

// StampQR encodes text as a QR code in the bottom-right corner. Images too
// small to hold a readable code are left unchanged.
func StampQR(dst *image.RGBA, text string) error {
	side := min(dst.Rect.Dx(), dst.Rect.Dy()) / 4
	if side < 64 {
		return nil
	}

	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return err
	}
	code := q.Image(side)

	r := image.Rectangle{Min: dst.Rect.Max.Sub(image.Pt(side, side)), Max: dst.Rect.Max}
	xdraw.NearestNeighbor.Scale(dst, r, code, code.Bounds(), xdraw.Src, nil)
	return nil
}
