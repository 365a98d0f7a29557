package ports

import (
	"context"
	"multimodal-route-service/internal/domain"
)

// A single geocoding candidate returned by a provider.
type GeocodeResult struct {
	Coordinates domain.Coordinates
	Confidence  float64
	Formatted   string
	Accuracy    domain.Accuracy
}

// Contract for turning a free-form address query into a coordinate.
type GeocodeProvider interface {
	// Return the best match for query, or an error when nothing matched.
	Geocode(ctx context.Context, query string) (GeocodeResult, error)
}
