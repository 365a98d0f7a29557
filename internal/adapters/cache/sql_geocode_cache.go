package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/ports"
)

var _ ports.GeocodeCache = (*SQLGeocodeCache)(nil)

// SQLGeocodeCache is a Postgres-backed cache mapping normalized addresses to resolutions.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch cached resolutions for the given address keys.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	keys []string,
) (_ map[string]domain.Resolution, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string]domain.Resolution{}, nil
	}

	q := `
	SELECT address_key, lon, lat, confidence, accuracy, source, formatted, resolved_at
    FROM geocode_cache
    WHERE address_key = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Resolution, len(uniq))
	for rows.Next() {
		var (
			key        string
			r          domain.Resolution
			accuracy   string
			source     string
			resolvedAt time.Time
		)
		if err := rows.Scan(&key, &r.Coordinates.Lon, &r.Coordinates.Lat, &r.Confidence,
			&accuracy, &source, &r.Formatted, &resolvedAt); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		r.Accuracy = domain.Accuracy(accuracy)
		r.Source = domain.Source(source)
		r.ResolvedAt = resolvedAt.UTC()
		out[key] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store key -> resolution mappings, replacing older entries.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Resolution) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO geocode_cache (address_key, lon, lat, confidence, accuracy, source, formatted, resolved_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (address_key) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		confidence = EXCLUDED.confidence,
		accuracy = EXCLUDED.accuracy,
		source = EXCLUDED.source,
		formatted = EXCLUDED.formatted,
		resolved_at = EXCLUDED.resolved_at;
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for key, r := range results {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		if _, err := stmt.ExecContext(ctx, key, r.Coordinates.Lon, r.Coordinates.Lat, r.Confidence,
			string(r.Accuracy), string(r.Source), r.Formatted, r.ResolvedAt.UTC()); err != nil {
			return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}

// uniqueKeys trims and deduplicates keys, dropping empty ones.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}
