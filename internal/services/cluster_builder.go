package services

import (
	"errors"
	"fmt"
	"math"

	"multimodal-route-service/internal/domain"
)

// ClusterParams bounds the walking groups.
type ClusterParams struct {
	MaxWalkDistanceMeters float64
	PreferredSize         int
	WalkingSpeedKmh       float64
}

// BuildClusters partitions located stops into walking-radius groups by seed-and-grow:
// the first unassigned stop seeds a cluster, which then absorbs any unassigned stop within
// MaxWalkDistanceMeters of any member until no stop qualifies or PreferredSize is reached.
// Ties follow input order.
func BuildClusters(stops []domain.Stop, p ClusterParams) ([]domain.Cluster, error) {
	if p.PreferredSize < 1 {
		return nil, fmt.Errorf("build clusters: preferred size must be >= 1, got %d", p.PreferredSize)
	}
	for _, s := range stops {
		if s.Coordinates == nil {
			return nil, fmt.Errorf("build clusters: stop %q has no coordinate", s.ID)
		}
	}

	assigned := make([]bool, len(stops))
	clusters := make([]domain.Cluster, 0)

	for seed := range stops {
		if assigned[seed] {
			continue
		}
		assigned[seed] = true
		members := []domain.Stop{stops[seed]}

		for grew := true; grew && len(members) < p.PreferredSize; {
			grew = false
			for j := range stops {
				if len(members) >= p.PreferredSize {
					break
				}
				if assigned[j] {
					continue
				}
				if withinReach(*stops[j].Coordinates, members, p.MaxWalkDistanceMeters) {
					members = append(members, stops[j])
					assigned[j] = true
					grew = true
				}
			}
		}

		c, err := newCluster(fmt.Sprintf("cluster-%d", len(clusters)+1), members, p.WalkingSpeedKmh)
		if err != nil {
			return nil, fmt.Errorf("build clusters: %w", err)
		}
		clusters = append(clusters, c)
	}

	return clusters, nil
}

// withinReach reports whether c is within maxMeters of some member.
func withinReach(c domain.Coordinates, members []domain.Stop, maxMeters float64) bool {
	for _, m := range members {
		if domain.Distance(c, *m.Coordinates) <= maxMeters {
			return true
		}
	}
	return false
}

// newCluster derives the anchor and walking route of a member set.
func newCluster(id string, members []domain.Stop, walkingSpeedKmh float64) (domain.Cluster, error) {
	if len(members) == 0 {
		return domain.Cluster{}, errors.New("cluster must have at least one member")
	}

	anchor, err := anchorStop(members)
	if err != nil {
		return domain.Cluster{}, fmt.Errorf("cluster %s: %w", id, err)
	}

	ids := make([]string, 0, len(members))
	for _, s := range members {
		ids = append(ids, s.ID)
	}

	walk := OptimizeWalk(members, *anchor.Coordinates, walkingSpeedKmh)

	return domain.Cluster{
		ID:                    id,
		MemberStopIDs:         ids,
		AnchorStopID:          anchor.ID,
		Anchor:                *anchor.Coordinates,
		OrderedStopIDs:        walk.OrderedStopIDs,
		WalkingDistanceMeters: walk.DistanceMeters,
		WalkingTimeMinutes:    walk.TimeMinutes,
	}, nil
}

// anchorStop returns the member closest to the member centroid, the first one on ties.
func anchorStop(members []domain.Stop) (domain.Stop, error) {
	coords := make([]domain.Coordinates, 0, len(members))
	for _, s := range members {
		coords = append(coords, *s.Coordinates)
	}
	center, err := domain.Centroid(coords)
	if err != nil {
		return domain.Stop{}, err
	}

	best := 0
	bestDist := math.Inf(1)
	for i, c := range coords {
		if d := domain.Distance(c, center); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return members[best], nil
}

func memberCoordinates(c domain.Cluster, byID map[string]domain.Stop) []domain.Coordinates {
	coords := make([]domain.Coordinates, 0, len(c.MemberStopIDs))
	for _, id := range c.MemberStopIDs {
		coords = append(coords, *byID[id].Coordinates)
	}
	return coords
}
