package analyzer

import (
	"image"
	"iter"
)

// Scanner enumerates block origins over a W x H grid. It holds no state
// beyond its inputs, so every range over its sequences starts from the top.
type Scanner struct {
	Width, Height int
	Block         int
	Step          int
}

// NewScanner returns a scanner for blocks of side block advancing by step.
func NewScanner(width, height, block, step int) Scanner {
	return Scanner{Width: width, Height: height, Block: block, Step: step}
}

// Rows yields the y coordinate of every scan row.
func (s Scanner) Rows() iter.Seq[int] {
	return axis(s.Height, s.Block, s.Step)
}

// Cols yields the x coordinate of every scan column.
func (s Scanner) Cols() iter.Seq[int] {
	return axis(s.Width, s.Block, s.Step)
}

// All yields block origins in row-major order: outer over y, inner over x.
func (s Scanner) All() iter.Seq[image.Point] {
	return func(yield func(image.Point) bool) {
		for y := range s.Rows() {
			for x := range s.Cols() {
				if !yield(image.Pt(x, y)) {
					return
				}
			}
		}
	}
}

// Count returns the number of origins All yields.
func (s Scanner) Count() int {
	return axisLen(s.Width, s.Block, s.Step) * axisLen(s.Height, s.Block, s.Step)
}

func axis(extent, block, step int) iter.Seq[int] {
	return func(yield func(int) bool) {
		if block <= 0 || step <= 0 {
			return
		}
		for v := 0; v <= extent-block; v += step {
			if !yield(v) {
				return
			}
		}
	}
}

func axisLen(extent, block, step int) int {
	if block <= 0 || step <= 0 || extent < block {
		return 0
	}
	return (extent-block)/step + 1
}
