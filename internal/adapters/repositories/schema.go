package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"multimodal-route-service/internal/domain"
)

// Dialect selects SQL syntax for the schema and seed statements.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	return initSchema(context.Background(), db, SQLite)
}

// Initialize the Postgres database schema.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	return initSchema(ctx, db, Postgres)
}

func initSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	floatType, resolvedAt := "REAL", "INTEGER NOT NULL"
	if d == Postgres {
		floatType, resolvedAt = "DOUBLE PRECISION", "TIMESTAMPTZ NOT NULL"
	}

	createStopsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS stops (
		stop_id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		street TEXT NOT NULL DEFAULT '',
		house_number TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		lon %[1]s,
		lat %[1]s,
		category TEXT NOT NULL DEFAULT ''
	);
	`, floatType)

	createGeocodeCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address_key TEXT PRIMARY KEY,
        lon %[1]s NOT NULL,
        lat %[1]s NOT NULL,
        confidence %[1]s NOT NULL,
        accuracy TEXT NOT NULL,
        source TEXT NOT NULL,
        formatted TEXT NOT NULL DEFAULT '',
        resolved_at %[2]s
    );
	`, floatType, resolvedAt)

	createLegCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS leg_cache (
        leg_key TEXT PRIMARY KEY,
        distance_meters %[1]s NOT NULL,
        duration_seconds %[1]s NOT NULL
    );
	`, floatType)

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_stops_position
    ON stops(position);
	`

	statements := []string{
		createStopsQuery,
		createGeocodeCacheQuery,
		createLegCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// LoadStopsJSON reads and validates a JSON array of stops.
func LoadStopsJSON(jsonPath string) ([]domain.Stop, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load stops: read %q: %w", jsonPath, err)
	}

	var data []domain.Stop
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("load stops: parse json: %w", err)
	}

	seen := make(map[string]struct{}, len(data))
	for i := range data {
		data[i].ID = strings.TrimSpace(data[i].ID)
		if err := data[i].Validate(); err != nil {
			return nil, fmt.Errorf("load stops: item at index %d: %w", i+1, err)
		}
		if _, dup := seen[data[i].ID]; dup {
			return nil, fmt.Errorf("load stops: item at index %d: duplicate stop id %q", i+1, data[i].ID)
		}
		seen[data[i].ID] = struct{}{}
	}

	return data, nil
}

// Populate the database with stop data from a JSON file. Existing stops with the same id are replaced.
func SeedFromJSON(ctx context.Context, db *sql.DB, d Dialect, jsonPath string) error {
	if db == nil {
		return errors.New("seed stops: DB is nil")
	}

	stops, err := LoadStopsJSON(jsonPath)
	if err != nil {
		return fmt.Errorf("seed stops: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed stops: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT OR REPLACE INTO stops (
		stop_id,
		position,
		street,
		house_number,
		postal_code,
		city,
		lon,
		lat,
		category
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	if d == Postgres {
		query = `
		INSERT INTO stops (stop_id, position, street, house_number, postal_code, city, lon, lat, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (stop_id) DO UPDATE
		SET position = EXCLUDED.position,
			street = EXCLUDED.street,
			house_number = EXCLUDED.house_number,
			postal_code = EXCLUDED.postal_code,
			city = EXCLUDED.city,
			lon = EXCLUDED.lon,
			lat = EXCLUDED.lat,
			category = EXCLUDED.category;
		`
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed stops: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range stops {
		var lon, lat sql.NullFloat64
		if s.Coordinates != nil {
			lon = sql.NullFloat64{Float64: s.Coordinates.Lon, Valid: true}
			lat = sql.NullFloat64{Float64: s.Coordinates.Lat, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, s.ID, i, s.Address.Street, s.Address.HouseNumber,
			s.Address.PostalCode, s.Address.City, lon, lat, string(s.Category)); err != nil {
			return fmt.Errorf("seed stops: insert stop_id=%q: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed stops: commit tx: %w", err)
	}

	return nil
}
