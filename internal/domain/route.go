package domain

import "time"

type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeCycling TravelMode = "cycling"
)

// Leg is one measured hop of the plan. Empty stop ids mean the home base.
// Estimated is set when the distance is a great-circle estimate instead of a street route.
type Leg struct {
	Mode            TravelMode  `json:"mode"`
	ClusterID       string      `json:"cluster_id,omitempty"`
	FromStopID      string      `json:"from_stop_id,omitempty"`
	ToStopID        string      `json:"to_stop_id,omitempty"`
	From            Coordinates `json:"from"`
	To              Coordinates `json:"to"`
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds float64     `json:"duration_seconds"`
	Estimated       bool        `json:"estimated"`
}

// Warning is a non-fatal problem, e.g. a stop placed on an approximate location.
type Warning struct {
	StopID string `json:"stop_id"`
	Reason string `json:"reason"`
}

// StopError reports a stop excluded from the plan.
type StopError struct {
	StopID string `json:"stop_id"`
	Reason string `json:"reason"`
}

// Represents the result of one optimization run.
// A RoutePlan is built once from a snapshot of stops and never mutated afterwards;
// a new run produces a new plan.
//
// Great-circle totals come from the optimizers. Street totals sum the measured legs.
type RoutePlan struct {
	ID              string       `json:"id"`
	CreatedAt       time.Time    `json:"created_at"`
	MultiModal      bool         `json:"multi_modal"`
	HomeBase        *Coordinates `json:"home_base,omitempty"`
	Clusters        []Cluster    `json:"clusters"`
	ClusterSequence []string     `json:"cluster_sequence"`
	StopSequence    []string     `json:"stop_sequence"`
	Legs            []Leg        `json:"legs"`

	TotalWalkingDistanceMeters float64 `json:"total_walking_distance_meters"`
	TotalWalkingTimeMinutes    float64 `json:"total_walking_time_minutes"`
	TotalCyclingDistanceMeters float64 `json:"total_cycling_distance_meters"`
	TotalCyclingTimeMinutes    float64 `json:"total_cycling_time_minutes"`
	TotalTimeMinutes           float64 `json:"total_time_minutes"`

	StreetWalkingDistanceMeters float64 `json:"street_walking_distance_meters"`
	StreetCyclingDistanceMeters float64 `json:"street_cycling_distance_meters"`

	Warnings []Warning   `json:"warnings"`
	Errors   []StopError `json:"errors"`
}

