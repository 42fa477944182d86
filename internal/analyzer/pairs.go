package analyzer

import (
	"image"
	"math"
)

// ClonePair links a block to the earlier block it duplicates.
type ClonePair struct {
	Source image.Point
	Dest   image.Point
}

// Displacement is Dest - Source.
func (p ClonePair) Displacement() image.Point {
	return p.Dest.Sub(p.Source)
}

// Distance is the Euclidean distance between Source and Dest.
func (p ClonePair) Distance() float64 {
	d := p.Displacement()
	return math.Hypot(float64(d.X), float64(d.Y))
}

// PairFilter drops matches whose blocks are too close to be a copy-move.
type PairFilter struct {
	MinDistance float64
}

// Pair returns the ClonePair for a match and whether it passed the gate.
func (f PairFilter) Pair(source, current image.Point) (ClonePair, bool) {
	p := ClonePair{Source: source, Dest: current}
	if p.Distance() < f.MinDistance {
		return p, false
	}
	return p, true
}
