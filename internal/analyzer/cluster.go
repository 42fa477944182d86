package analyzer

import (
	"image"
	"math"
)

// Cluster is a run of clone pairs sharing one displacement, in detection order.
type Cluster struct {
	Pairs []ClonePair
}

// Seed is the displacement of the pair that opened the cluster.
func (c Cluster) Seed() image.Point {
	if len(c.Pairs) == 0 {
		return image.Point{}
	}
	return c.Pairs[0].Displacement()
}

// Len is the number of pairs in the cluster.
func (c Cluster) Len() int {
	return len(c.Pairs)
}

// ClusterPairs groups pairs greedily. Each unused pair in detection order
// seeds a cluster and claims every later unused pair whose displacement is
// within tol of the seed on both axes. Clusters smaller than minSize are
// dropped, but their pairs stay claimed.
//
// The result depends on pair order: a different scan order can pick
// different seeds and so a different partition.
func ClusterPairs(pairs []ClonePair, minSize int, tol float64) []Cluster {
	var clusters []Cluster
	used := make([]bool, len(pairs))

	for i := range pairs {
		if used[i] {
			continue
		}
		used[i] = true
		seed := pairs[i].Displacement()
		members := []ClonePair{pairs[i]}

		for j := i + 1; j < len(pairs); j++ {
			if used[j] {
				continue
			}
			if withinTolerance(pairs[j].Displacement(), seed, tol) {
				members = append(members, pairs[j])
				used[j] = true
			}
		}

		if len(members) >= minSize {
			clusters = append(clusters, Cluster{Pairs: members})
		}
	}
	return clusters
}

func withinTolerance(d, seed image.Point, tol float64) bool {
	return math.Abs(float64(d.X-seed.X)) <= tol && math.Abs(float64(d.Y-seed.Y)) <= tol
}
