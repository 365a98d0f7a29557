package domain

// Cluster is a group of stops reachable on foot from one bike anchor.
// Anchor is always the coordinate of a real member stop.
type Cluster struct {
	ID                    string      `json:"id"`
	MemberStopIDs         []string    `json:"member_stop_ids"`
	AnchorStopID          string      `json:"anchor_stop_id"`
	Anchor                Coordinates `json:"anchor"`
	OrderedStopIDs        []string    `json:"ordered_stop_ids"`
	WalkingDistanceMeters float64     `json:"walking_distance_meters"`
	WalkingTimeMinutes    float64     `json:"walking_time_minutes"`
}

func (c Cluster) Size() int { return len(c.MemberStopIDs) }
