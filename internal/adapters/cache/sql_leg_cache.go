package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/ports"
)

var _ ports.LegCache = (*SQLLegCache)(nil)

// SQLLegCache is a Postgres-backed cache of street route legs. Paths are not stored.
type SQLLegCache struct {
	DB *sql.DB
}

func NewSQLLegCache(db *sql.DB) *SQLLegCache {
	return &SQLLegCache{DB: db}
}

func (s *SQLLegCache) Get(ctx context.Context, key string) (_ ports.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "leg.cache.Get")(&err)

	if s.DB == nil {
		return ports.RouteResult{}, false, errors.New("leg cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return ports.RouteResult{}, false, errors.New("get leg cache: key must not be empty")
	}

	var r ports.RouteResult
	err = s.DB.QueryRowContext(ctx, `
	SELECT distance_meters, duration_seconds
    FROM leg_cache
    WHERE leg_key = $1;
	`, key).Scan(&r.DistanceMeters, &r.DurationSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RouteResult{}, false, nil
	}
	if err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}

	return r, true, nil
}

func (s *SQLLegCache) Put(ctx context.Context, key string, r ports.RouteResult) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert leg cache: key must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO leg_cache (leg_key, distance_meters, duration_seconds)
    VALUES ($1, $2, $3)
	ON CONFLICT (leg_key) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds;
	`, key, r.DistanceMeters, r.DurationSeconds)
	if err != nil {
		return fmt.Errorf("insert leg cache key=%q: %w", key, err)
	}

	return nil
}
