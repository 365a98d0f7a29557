package ports

import (
	"context"
	"multimodal-route-service/internal/domain"
)

// Cache of resolved coordinates keyed by normalized address.
// Staleness is decided by the reader from Resolution.ResolvedAt.
type GeocodeCache interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.Resolution, error)
	PutMany(ctx context.Context, results map[string]domain.Resolution) error
}

// Cache of street route legs keyed by LegKey.
type LegCache interface {
	Get(ctx context.Context, key string) (RouteResult, bool, error)
	Put(ctx context.Context, key string, r RouteResult) error
}
