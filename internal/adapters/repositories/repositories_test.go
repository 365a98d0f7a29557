package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/db"
)

const seedJSON = `[
  {"id": "s2", "address": {"street": "Damrak", "house_number": "1", "postal_code": "1012 LG", "city": "Amsterdam"}, "category": "parcel"},
  {"id": "s1", "address": {"postal_code": "1991 AB"}, "coordinates": {"lon": 4.65, "lat": 52.45}}
]`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stops.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func openSqlite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	conn := openSqlite(t)
	require.NoError(t, InitSchema(conn))
	require.NoError(t, InitSchema(conn))

	assert.Error(t, InitSchema(nil))
}

func TestSeedAndListStops(t *testing.T) {
	ctx := context.Background()
	conn := openSqlite(t)
	require.NoError(t, InitSchema(conn))

	path := writeFile(t, seedJSON)
	require.NoError(t, SeedFromJSON(ctx, conn, SQLite, path))
	// Re-seeding replaces rather than duplicates.
	require.NoError(t, SeedFromJSON(ctx, conn, SQLite, path))

	stops, err := NewSQLStopRepository(conn).ListStops(ctx)
	require.NoError(t, err)
	require.Len(t, stops, 2)

	assert.Equal(t, "s2", stops[0].ID)
	assert.Equal(t, "Damrak", stops[0].Address.Street)
	assert.Equal(t, domain.Category("parcel"), stops[0].Category)
	assert.Nil(t, stops[0].Coordinates)

	assert.Equal(t, "s1", stops[1].ID)
	require.NotNil(t, stops[1].Coordinates)
	assert.Equal(t, domain.Coordinates{Lon: 4.65, Lat: 52.45}, *stops[1].Coordinates)
}

func TestLoadStopsJSONRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"not json":     `{`,
		"missing id":   `[{"address": {"postal_code": "1012 LG"}}]`,
		"no address":   `[{"id": "a"}]`,
		"duplicate id": `[{"id": "a", "address": {"postal_code": "1"}}, {"id": "a", "address": {"postal_code": "2"}}]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadStopsJSON(writeFile(t, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadStopsJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestJSONStopRepository(t *testing.T) {
	stops, err := NewJSONStopRepository(writeFile(t, seedJSON)).ListStops(context.Background())
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "s2", stops[0].ID)
}
