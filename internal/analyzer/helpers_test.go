package analyzer

import (
	"image"
	"image/color"
	"math/rand"
)

// flatImage returns a w x h RGBA image filled with gray level v.
func flatImage(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// fillNoise paints a size x size patch of seeded gray noise at origin.
func fillNoise(img *image.RGBA, origin image.Point, size int, seed int64) {
	r := rand.New(rand.NewSource(seed))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(r.Intn(256))
			img.SetRGBA(origin.X+x, origin.Y+y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
}

// copyRegion duplicates the size x size region at from onto to.
func copyRegion(img *image.RGBA, from, to image.Point, size int) {
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(to.X+x, to.Y+y, img.RGBAAt(from.X+x, from.Y+y))
		}
	}
}

func mustBuffer(img image.Image) *PixelBuffer {
	buf, err := NewPixelBuffer(img)
	if err != nil {
		panic(err)
	}
	return buf
}
