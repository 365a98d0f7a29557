package main

import (
	"context"
	"database/sql"
	"log"

	"multimodal-route-service/internal/adapters/repositories"
	"multimodal-route-service/internal/config"
	"multimodal-route-service/internal/platform/db"
)

// dbtool initializes the schema and seeds stops. It targets Postgres when
// DATABASE_URL is set and the SQLite file at DB_PATH otherwise.
func main() {
	config.Load()
	svc := config.ServicesFromEnv()
	ctx := context.Background()

	var (
		conn    *sql.DB
		dialect repositories.Dialect
		err     error
	)
	if svc.DatabaseURL != "" {
		conn, err = db.Open(svc.DatabaseURL)
		dialect = repositories.Postgres
	} else {
		conn, err = db.OpenSqlite(svc.DBPath)
		dialect = repositories.SQLite
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(ctx, conn, dialect, svc.SeedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect repositories.Dialect, seedPath string) error {
	log.Println("Initializing database schema...")
	var err error
	if dialect == repositories.Postgres {
		err = repositories.InitPostgresSchema(ctx, conn)
	} else {
		err = repositories.InitSchema(conn)
	}
	if err != nil {
		return err
	}
	log.Println("Schema ready.")

	log.Printf("Seeding stops from %s...", seedPath)
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
