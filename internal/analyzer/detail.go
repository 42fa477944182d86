package analyzer

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DetailScorer measures the high-frequency energy of a luminance block.
type DetailScorer interface {
	Score(block *image.Gray) float64
}

const (
	ScorerLaplacian = "laplacian"
	ScorerOpenCV    = "opencv"
)

// NewDetailScorer creates a scorer based on the specified backend name.
func NewDetailScorer(name string) (DetailScorer, error) {
	switch name {
	case ScorerLaplacian, "":
		return LaplacianScorer{}, nil
	case ScorerOpenCV:
		return newOpenCVScorer()
	default:
		return nil, fmt.Errorf("%w: unknown detail scorer: %s", ErrConfig, name)
	}
}

// LaplacianScorer applies the 4-neighbour Laplacian
//
//	0  1  0
//	1 -4  1
//	0  1  0
//
// with reflect-101 borders inside the block and returns the population
// standard deviation of the response.
type LaplacianScorer struct{}

func (LaplacianScorer) Score(block *image.Gray) float64 {
	resp := laplacian(block)
	if len(resp) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(resp, nil)
	if !(variance > 0) {
		return 0
	}
	return math.Sqrt(variance)
}

func laplacian(block *image.Gray) []float64 {
	b := block.Bounds()
	w, h := b.Dx(), b.Dy()
	resp := make([]float64, 0, w*h)

	at := func(x, y int) float64 {
		return float64(block.GrayAt(b.Min.X+reflect101(x, w), b.Min.Y+reflect101(y, h)).Y)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x, y-1) + at(x-1, y) + at(x+1, y) + at(x, y+1) - 4*at(x, y)
			resp = append(resp, v)
		}
	}
	return resp
}

// reflect101 mirrors i into [0, n) without repeating the edge sample
// (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
