//go:build gocv
// +build gocv

package analyzer

import (
	"image"
	"log"

	"gocv.io/x/gocv"
)

// OpenCVScorer computes the same score as LaplacianScorer through OpenCV.
type OpenCVScorer struct{}

func newOpenCVScorer() (DetailScorer, error) {
	return OpenCVScorer{}, nil
}

func (OpenCVScorer) Score(block *image.Gray) float64 {
	b := block.Bounds()
	pix := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := block.PixOffset(b.Min.X, y)
		pix = append(pix, block.Pix[off:off+b.Dx()]...)
	}

	src, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8U, pix)
	if err != nil {
		log.Printf("[!] opencv: %v", err)
		return 0
	}
	defer src.Close()

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(src, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderReflect101)

	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	gocv.MeanStdDev(lap, &mean, &std)

	return std.GetDoubleAt(0, 0)
}
