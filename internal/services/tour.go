package services

import (
	"math"

	"multimodal-route-service/internal/domain"
)

// Improvements smaller than this are treated as float noise so 2-opt always terminates.
const twoOptEpsilon = 1e-9

// distanceMatrix holds pairwise great-circle distances of points.
type distanceMatrix [][]float64

func newDistanceMatrix(points []domain.Coordinates) distanceMatrix {
	m := make(distanceMatrix, len(points))
	for i := range points {
		m[i] = make([]float64, len(points))
		for j := 0; j < i; j++ {
			d := domain.Distance(points[i], points[j])
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

// nearestNeighbor orders the node indexes [first, n) greedily starting from node start.
// weight scales the distance from the current node to a candidate (1 for plain distance).
// Ties keep the first-encountered candidate.
func nearestNeighbor(m distanceMatrix, start, first int, weight func(cur, cand int) float64) []int {
	n := len(m)
	visited := make([]bool, n)
	visited[start] = true

	order := make([]int, 0, n-first)
	if start >= first {
		order = append(order, start)
	}

	cur := start
	for len(order) < n-first {
		best := -1
		bestScore := math.Inf(1)
		for cand := first; cand < n; cand++ {
			if visited[cand] {
				continue
			}
			score := m[cur][cand]
			if weight != nil {
				score *= weight(cur, cand)
			}
			if score < bestScore {
				bestScore = score
				best = cand
			}
		}

		visited[best] = true
		order = append(order, best)
		cur = best
	}

	return order
}

// twoOpt improves path in place by reversing segments while the total length strictly decreases.
// path[0] stays fixed; when closed, the last node is fixed as well.
func twoOpt(m distanceMatrix, path []int, closed bool) {
	last := len(path)
	if closed {
		last = len(path) - 1
	}

	for improved := true; improved; {
		improved = false
		for i := 0; i < len(path)-2; i++ {
			for j := i + 2; j < last; j++ {
				delta := m[path[i]][path[j]] - m[path[i]][path[i+1]]
				if j+1 < len(path) {
					delta += m[path[i+1]][path[j+1]] - m[path[j]][path[j+1]]
				}
				if delta < -twoOptEpsilon {
					reverse(path[i+1 : j+1])
					improved = true
				}
			}
		}
	}
}

func pathLength(m distanceMatrix, path []int) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += m[path[i-1]][path[i]]
	}
	return total
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// minutesAt converts meters travelled at speedKmh to minutes.
func minutesAt(meters, speedKmh float64) float64 {
	if speedKmh <= 0 {
		return 0
	}
	return meters / 1000 / speedKmh * 60
}
