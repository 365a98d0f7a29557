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

var _ ports.GeocodeCache = (*SqliteGeocodeCache)(nil)

// SQLite backed cache mapping normalized address keys to resolutions.
// resolved_at is stored as unix milliseconds.
type SqliteGeocodeCache struct {
	DB *sql.DB
}

func NewSqliteGeocodeCache(db *sql.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

// Fetch cached resolutions for the given address keys.
func (s *SqliteGeocodeCache) GetMany(ctx context.Context, keys []string) (_ map[string]domain.Resolution, err error) {
	defer obs.Time(ctx, "geocode.cache.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string]domain.Resolution{}, nil
	}

	args := make([]any, 0, len(uniq))
	for _, k := range uniq {
		args = append(args, k)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
        address_key,
        lon,
        lat,
        confidence,
        accuracy,
        source,
        formatted,
        resolved_at
    FROM geocode_cache
    WHERE address_key IN (%s);
	`, placeholders(len(uniq)))

	rows, err := s.DB.QueryContext(ctx, q, args...)
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
			resolvedAt int64
		)
		if err := rows.Scan(&key, &r.Coordinates.Lon, &r.Coordinates.Lat, &r.Confidence,
			&accuracy, &source, &r.Formatted, &resolvedAt); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		r.Accuracy = domain.Accuracy(accuracy)
		r.Source = domain.Source(source)
		r.ResolvedAt = time.UnixMilli(resolvedAt).UTC()
		out[key] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store key -> resolution mappings, replacing older entries.
func (s *SqliteGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Resolution) error {
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
	INSERT OR REPLACE INTO geocode_cache (
        address_key,
        lon,
        lat,
        confidence,
        accuracy,
        source,
        formatted,
        resolved_at
    )
    VALUES (?, ?, ?, ?, ?, ?, ?, ?);
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
			string(r.Accuracy), string(r.Source), r.Formatted, r.ResolvedAt.UnixMilli()); err != nil {
			return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}

// placeholders renders n comma-separated "?" markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
