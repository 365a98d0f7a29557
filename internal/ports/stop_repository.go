package ports

import (
	"context"
	"multimodal-route-service/internal/domain"
)

// Port: a boundary for retrieving Stop entities from a data source.
type StopRepository interface {
	// Retrieve all stops available for routing, in stable order.
	ListStops(ctx context.Context) ([]domain.Stop, error)
}
