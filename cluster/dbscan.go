// Package cluster implements a single generic density-based (DBSCAN)
// clustering engine, shared by the Candidate Selector (component G, 1-D
// m/z clustering) and the Feature Collator (component I, 2-D
// scan-index×mass clustering), per spec.md's component table listing the
// same underlying technique twice.
package cluster

import (
	"math"
	"sort"
)

// Noise is the cluster label assigned to points DBSCAN does not place in
// any cluster.
const Noise = -1

// Point2 is a 2-D point clustered by X then refined by Euclidean distance
// in (X,Y). For 1-D clustering callers set Y to a constant.
type Point2 struct {
	X, Y float64
}

// DBSCAN clusters points using a sorted sweep over X to bound the
// candidate-neighbor search, then an exact Euclidean distance test,
// classical DBSCAN semantics (core points, border points, noise).
// Returns a label per input point: -1 for noise, otherwise a 0-based
// cluster id.
func DBSCAN(points []Point2, eps float64, minPts int) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	visited := make([]bool, n)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return points[order[a]].X < points[order[b]].X })
	// rank[i] is the position of point i within the X-sorted order.
	rank := make([]int, n)
	for pos, idx := range order {
		rank[idx] = pos
	}

	regionQuery := func(i int) []int {
		var neighbors []int
		pos := rank[i]
		for j := pos; j >= 0; j-- {
			k := order[j]
			if points[i].X-points[k].X > eps {
				break
			}
			if dist(points[i], points[k]) <= eps {
				neighbors = append(neighbors, k)
			}
		}
		for j := pos + 1; j < n; j++ {
			k := order[j]
			if points[k].X-points[i].X > eps {
				break
			}
			if dist(points[i], points[k]) <= eps {
				neighbors = append(neighbors, k)
			}
		}
		return neighbors
	}

	clusterID := 0
	for _, i := range order {
		if visited[i] {
			continue
		}
		visited[i] = true
		neighbors := regionQuery(i)
		if len(neighbors) < minPts {
			continue // stays Noise, possibly reclaimed as a border point later
		}
		labels[i] = clusterID
		seeds := append([]int(nil), neighbors...)
		for p := 0; p < len(seeds); p++ {
			j := seeds[p]
			if !visited[j] {
				visited[j] = true
				jNeighbors := regionQuery(j)
				if len(jNeighbors) >= minPts {
					seeds = append(seeds, jNeighbors...)
				}
			}
			if labels[j] == Noise {
				labels[j] = clusterID
			}
		}
		clusterID++
	}
	return labels
}

func dist(a, b Point2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
