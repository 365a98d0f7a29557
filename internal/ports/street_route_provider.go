package ports

import (
	"context"
	"multimodal-route-service/internal/domain"
)

// Street-accurate distance, duration and path between two coordinates.
type RouteResult struct {
	DistanceMeters  float64
	DurationSeconds float64
	Path            []domain.Coordinates
}

// Contract for retrieving a walking or cycling path between coordinates.
type StreetRouteProvider interface {
	Route(ctx context.Context, from, to domain.Coordinates, mode domain.TravelMode) (RouteResult, error)
}
