package services

import (
	"multimodal-route-service/internal/domain"
)

// Candidates sharing the current stop's category look this much closer.
const categoryDiscount = 0.8

type SingleModeOptions struct {
	WalkingSpeedKmh    float64
	PrioritizeCategory bool
	// TwoOpt refines the open path after construction. Off by default.
	TwoOpt bool
}

type SingleModeRoute struct {
	OrderedStopIDs []string
	DistanceMeters float64
	TimeMinutes    float64
}

// OptimizeSingleMode orders all stops for a walking-only route: one nearest-neighbor pass
// starting at the first stop, with no return leg. Stops must be located.
func OptimizeSingleMode(stops []domain.Stop, opts SingleModeOptions) SingleModeRoute {
	if len(stops) == 0 {
		return SingleModeRoute{OrderedStopIDs: []string{}}
	}

	points := make([]domain.Coordinates, 0, len(stops))
	for _, s := range stops {
		points = append(points, *s.Coordinates)
	}
	m := newDistanceMatrix(points)

	var weight func(cur, cand int) float64
	if opts.PrioritizeCategory {
		weight = func(cur, cand int) float64 {
			if stops[cur].Category != "" && stops[cur].Category == stops[cand].Category {
				return categoryDiscount
			}
			return 1
		}
	}

	path := nearestNeighbor(m, 0, 0, weight)
	if opts.TwoOpt && len(path) > 3 {
		twoOpt(m, path, false)
	}

	ids := make([]string, 0, len(path))
	for _, node := range path {
		ids = append(ids, stops[node].ID)
	}

	meters := pathLength(m, path)
	return SingleModeRoute{
		OrderedStopIDs: ids,
		DistanceMeters: meters,
		TimeMinutes:    minutesAt(meters, opts.WalkingSpeedKmh),
	}
}
