package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/ports"
)

var (
	_ ports.StopRepository = (*SQLStopRepository)(nil)
	_ ports.StopRepository = (*JSONStopRepository)(nil)
)

// SQL-backed implementation of the StopRepository port. The query is portable
// across SQLite and Postgres.
type SQLStopRepository struct{ DB *sql.DB }

func NewSQLStopRepository(db *sql.DB) *SQLStopRepository {
	return &SQLStopRepository{DB: db}
}

// Return all stops in seed order.
func (s *SQLStopRepository) ListStops(ctx context.Context) ([]domain.Stop, error) {
	if s.DB == nil {
		return nil, errors.New("sql stop repository: DB is nil")
	}

	query := `
	SELECT
		stop_id,
		street,
		house_number,
		postal_code,
		city,
		lon,
		lat,
		category
	FROM stops
	ORDER BY position, stop_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stops: query stops table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 64)
	for rows.Next() {
		var (
			st       domain.Stop
			lon, lat sql.NullFloat64
			category string
		)
		err := rows.Scan(&st.ID, &st.Address.Street, &st.Address.HouseNumber,
			&st.Address.PostalCode, &st.Address.City, &lon, &lat, &category)
		if err != nil {
			return nil, fmt.Errorf("list stops: scan row: %w", err)
		}
		if lon.Valid && lat.Valid {
			st.Coordinates = &domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
		}
		st.Category = domain.Category(category)
		stops = append(stops, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: row iteration: %w", err)
	}

	return stops, nil
}

// JSONStopRepository reads stops from a JSON file on every call.
type JSONStopRepository struct{ Path string }

func NewJSONStopRepository(path string) *JSONStopRepository {
	return &JSONStopRepository{Path: path}
}

func (j *JSONStopRepository) ListStops(_ context.Context) ([]domain.Stop, error) {
	return LoadStopsJSON(j.Path)
}
