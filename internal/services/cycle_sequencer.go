package services

import (
	"multimodal-route-service/internal/domain"
)

// CyclingRoute is the visiting order of cluster anchors.
type CyclingRoute struct {
	OrderedClusterIDs []string
	DistanceMeters    float64
	TimeMinutes       float64
}

// SequenceClusters orders cluster anchors by nearest neighbor, starting from homeBase when
// given (and returning to it), otherwise from the first cluster.
func SequenceClusters(clusters []domain.Cluster, homeBase *domain.Coordinates, cyclingSpeedKmh float64) CyclingRoute {
	if len(clusters) == 0 {
		return CyclingRoute{OrderedClusterIDs: []string{}}
	}

	// With a home base, node 0 is home and node i+1 is clusters[i].
	offset := 0
	points := make([]domain.Coordinates, 0, len(clusters)+1)
	if homeBase != nil {
		points = append(points, *homeBase)
		offset = 1
	}
	for _, c := range clusters {
		points = append(points, c.Anchor)
	}
	m := newDistanceMatrix(points)

	order := nearestNeighbor(m, 0, offset, nil)

	path := order
	if homeBase != nil {
		path = make([]int, 0, len(order)+2)
		path = append(path, 0)
		path = append(path, order...)
		path = append(path, 0)
	}

	ids := make([]string, 0, len(order))
	for _, node := range order {
		ids = append(ids, clusters[node-offset].ID)
	}

	meters := pathLength(m, path)
	return CyclingRoute{
		OrderedClusterIDs: ids,
		DistanceMeters:    meters,
		TimeMinutes:       minutesAt(meters, cyclingSpeedKmh),
	}
}
