package cache

import (
	"context"
	"time"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/memo"
	"multimodal-route-service/internal/ports"
)

var (
	_ ports.GeocodeCache = (*MemoryGeocodeCache)(nil)
	_ ports.LegCache     = (*MemoryLegCache)(nil)
)

// MemoryGeocodeCache keeps resolutions in process. Used when no database is configured.
type MemoryGeocodeCache struct {
	entries *memo.Cache[string, domain.Resolution]
}

func NewMemoryGeocodeCache(ttl time.Duration) *MemoryGeocodeCache {
	return &MemoryGeocodeCache{entries: memo.New[string, domain.Resolution](ttl)}
}

func (m *MemoryGeocodeCache) GetMany(_ context.Context, keys []string) (map[string]domain.Resolution, error) {
	out := make(map[string]domain.Resolution, len(keys))
	for _, k := range uniqueKeys(keys) {
		if r, ok := m.entries.Get(k); ok {
			out[k] = r
		}
	}
	return out, nil
}

func (m *MemoryGeocodeCache) PutMany(_ context.Context, results map[string]domain.Resolution) error {
	for k, r := range results {
		m.entries.Set(k, r)
	}
	return nil
}

// MemoryLegCache keeps street legs in process.
type MemoryLegCache struct {
	entries *memo.Cache[string, ports.RouteResult]
}

func NewMemoryLegCache(ttl time.Duration) *MemoryLegCache {
	return &MemoryLegCache{entries: memo.New[string, ports.RouteResult](ttl)}
}

func (m *MemoryLegCache) Get(_ context.Context, key string) (ports.RouteResult, bool, error) {
	r, ok := m.entries.Get(key)
	return r, ok, nil
}

func (m *MemoryLegCache) Put(_ context.Context, key string, r ports.RouteResult) error {
	m.entries.Set(key, r)
	return nil
}
