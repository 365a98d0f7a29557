package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"multimodal-route-service/internal/ports"
)

var _ ports.LegCache = (*SqliteLegCache)(nil)

// SQLite backed cache of street route legs keyed by leg key. Paths are not stored.
type SqliteLegCache struct {
	DB *sql.DB
}

func NewSqliteLegCache(db *sql.DB) *SqliteLegCache {
	return &SqliteLegCache{DB: db}
}

func (s *SqliteLegCache) Get(ctx context.Context, key string) (ports.RouteResult, bool, error) {
	if s.DB == nil {
		return ports.RouteResult{}, false, errors.New("leg cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return ports.RouteResult{}, false, errors.New("get leg cache: key must not be empty")
	}

	var r ports.RouteResult
	err := s.DB.QueryRowContext(ctx, `
	SELECT
        distance_meters,
        duration_seconds
    FROM leg_cache
    WHERE leg_key = ?;
	`, key).Scan(&r.DistanceMeters, &r.DurationSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RouteResult{}, false, nil
	}
	if err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}

	return r, true, nil
}

func (s *SqliteLegCache) Put(ctx context.Context, key string, r ports.RouteResult) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert leg cache: key must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO leg_cache (
        leg_key,
        distance_meters,
        duration_seconds
    )
    VALUES (?, ?, ?);
	`, key, r.DistanceMeters, r.DurationSeconds)
	if err != nil {
		return fmt.Errorf("insert leg cache key=%q: %w", key, err)
	}

	return nil
}
