package services

import (
	"fmt"
	"math"

	"multimodal-route-service/internal/domain"
)

// MinClusterSize is the size below which a cluster is merged into a neighbor when possible.
func MinClusterSize(preferredSize int) int {
	return max(2, int(math.Floor(float64(preferredSize)*0.4)))
}

// Redistribute merges undersized clusters into a neighboring normal cluster in one pass.
//
// A target qualifies when the merged size stays within 1.5x PreferredSize and every member
// of the small cluster is within MaxWalkDistanceMeters of some target member. Among qualifying
// targets the highest score (MaxWalk - centroidDistance) + (PreferredSize - targetSize)*100 wins,
// the earlier cluster on ties. Merged clusters keep the target id and get a new anchor and
// walking route. Small clusters without a target are returned unchanged.
func Redistribute(clusters []domain.Cluster, stops []domain.Stop, p ClusterParams) ([]domain.Cluster, error) {
	byID := make(map[string]domain.Stop, len(stops))
	for _, s := range stops {
		if s.Coordinates == nil {
			return nil, fmt.Errorf("redistribute: stop %q has no coordinate", s.ID)
		}
		byID[s.ID] = s
	}
	for _, c := range clusters {
		for _, id := range c.MemberStopIDs {
			if _, ok := byID[id]; !ok {
				return nil, fmt.Errorf("redistribute: cluster %s references unknown stop %q", c.ID, id)
			}
		}
	}

	minSize := MinClusterSize(p.PreferredSize)
	maxMerged := float64(p.PreferredSize) * 1.5

	out := make([]domain.Cluster, len(clusters))
	copy(out, clusters)
	absorbed := make([]bool, len(out))

	var normal []int
	var small []int
	for i, c := range out {
		if c.Size() < minSize {
			small = append(small, i)
		} else {
			normal = append(normal, i)
		}
	}

	for _, si := range small {
		src := out[si]
		srcCoords := memberCoordinates(src, byID)
		srcCenter, err := domain.Centroid(srcCoords)
		if err != nil {
			return nil, fmt.Errorf("redistribute: cluster %s: %w", src.ID, err)
		}

		best := -1
		bestScore := math.Inf(-1)
		for _, ti := range normal {
			target := out[ti]
			if float64(target.Size()+src.Size()) > maxMerged {
				continue
			}

			targetCoords := memberCoordinates(target, byID)
			if !allWithinReach(srcCoords, targetCoords, p.MaxWalkDistanceMeters) {
				continue
			}

			targetCenter, err := domain.Centroid(targetCoords)
			if err != nil {
				return nil, fmt.Errorf("redistribute: cluster %s: %w", target.ID, err)
			}
			score := (p.MaxWalkDistanceMeters - domain.Distance(srcCenter, targetCenter)) +
				float64(p.PreferredSize-target.Size())*100
			if score > bestScore {
				bestScore = score
				best = ti
			}
		}

		if best < 0 {
			continue
		}

		target := out[best]
		members := make([]domain.Stop, 0, target.Size()+src.Size())
		for _, id := range target.MemberStopIDs {
			members = append(members, byID[id])
		}
		for _, id := range src.MemberStopIDs {
			members = append(members, byID[id])
		}

		merged, err := newCluster(target.ID, members, p.WalkingSpeedKmh)
		if err != nil {
			return nil, fmt.Errorf("redistribute: merge %s into %s: %w", src.ID, target.ID, err)
		}
		out[best] = merged
		absorbed[si] = true
	}

	result := make([]domain.Cluster, 0, len(out))
	for i, c := range out {
		if !absorbed[i] {
			result = append(result, c)
		}
	}
	return result, nil
}

// allWithinReach reports whether every point in from is within maxMeters of some point in to.
func allWithinReach(from, to []domain.Coordinates, maxMeters float64) bool {
	for _, f := range from {
		reached := false
		for _, t := range to {
			if domain.Distance(f, t) <= maxMeters {
				reached = true
				break
			}
		}
		if !reached {
			return false
		}
	}
	return true
}
