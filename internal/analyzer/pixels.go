package analyzer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// PixelBuffer is the read-only input of a detection pass. Both planes are
// normalized so that the top-left pixel is (0,0).
type PixelBuffer struct {
	src *image.RGBA
	lum *image.Gray
}

// NewPixelBuffer copies img into an RGBA plane and derives its luminance
// plane with color.GrayModel (0.299R + 0.587G + 0.114B).
func NewPixelBuffer(img image.Image) (*PixelBuffer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInput)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image %v", ErrInput, b)
	}

	rect := image.Rect(0, 0, b.Dx(), b.Dy())
	src := image.NewRGBA(rect)
	draw.Draw(src, rect, img, b.Min, draw.Src)

	return &PixelBuffer{src: src, lum: toGrayscale(src)}, nil
}

// Width of the buffer in pixels.
func (p *PixelBuffer) Width() int { return p.lum.Rect.Dx() }

// Height of the buffer in pixels.
func (p *PixelBuffer) Height() int { return p.lum.Rect.Dy() }

// Bounds returns the buffer rectangle, always anchored at (0,0).
func (p *PixelBuffer) Bounds() image.Rectangle { return p.lum.Rect }

// Image returns the colour plane. Callers must not modify it.
func (p *PixelBuffer) Image() image.Image { return p.src }

// Luminance returns the 8-bit luminance plane. Callers must not modify it.
func (p *PixelBuffer) Luminance() *image.Gray { return p.lum }

// Block returns a view of the luminance plane for the block at origin.
// The rectangle is clipped to the buffer so it can never read out of bounds.
func (p *PixelBuffer) Block(origin image.Point, size int) *image.Gray {
	r := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))}.Intersect(p.lum.Rect)
	return p.lum.SubImage(r).(*image.Gray)
}

func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}

	return gray
}
