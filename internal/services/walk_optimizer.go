package services

import (
	"multimodal-route-service/internal/domain"
)

// WalkRoute is the walking order of one cluster, anchor to anchor.
type WalkRoute struct {
	OrderedStopIDs []string
	DistanceMeters float64
	TimeMinutes    float64
}

// OptimizeWalk orders members on a closed tour starting and ending at anchor:
// nearest-neighbor construction followed by 2-opt until a local optimum.
// Members must be located.
func OptimizeWalk(members []domain.Stop, anchor domain.Coordinates, walkingSpeedKmh float64) WalkRoute {
	if len(members) == 0 {
		return WalkRoute{OrderedStopIDs: []string{}}
	}

	// Node 0 is the anchor, node i+1 is members[i].
	points := make([]domain.Coordinates, 0, len(members)+1)
	points = append(points, anchor)
	for _, s := range members {
		points = append(points, *s.Coordinates)
	}
	m := newDistanceMatrix(points)

	path := make([]int, 0, len(members)+2)
	path = append(path, 0)
	if len(members) <= 2 {
		for i := range members {
			path = append(path, i+1)
		}
	} else {
		path = append(path, nearestNeighbor(m, 0, 1, nil)...)
	}
	path = append(path, 0)

	if len(members) > 2 {
		twoOpt(m, path, true)
	}

	ids := make([]string, 0, len(members))
	for _, node := range path[1 : len(path)-1] {
		ids = append(ids, members[node-1].ID)
	}

	meters := pathLength(m, path)
	return WalkRoute{
		OrderedStopIDs: ids,
		DistanceMeters: meters,
		TimeMinutes:    minutesAt(meters, walkingSpeedKmh),
	}
}
