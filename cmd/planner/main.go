package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multimodal-route-service/internal/adapters/cache"
	"multimodal-route-service/internal/adapters/nominatim"
	"multimodal-route-service/internal/adapters/ors"
	"multimodal-route-service/internal/adapters/repositories"
	"multimodal-route-service/internal/config"
	"multimodal-route-service/internal/platform/db"
	"multimodal-route-service/internal/platform/retry"
	"multimodal-route-service/internal/ports"
	"multimodal-route-service/internal/services"
)

// Street legs change rarely; keep them for a week.
const legCacheTTL = 7 * 24 * time.Hour

// main is the application composition root.
// It wires concrete adapters (SQL/Redis caches, ORS or Nominatim) behind ports,
// plans the configured stops once and writes the plan as JSON to stdout.
func main() {
	config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, out io.Writer) error {
	plannerCfg, err := config.PlannerFromEnv()
	if err != nil {
		return err
	}
	resolutionCfg, err := config.ResolutionFromEnv()
	if err != nil {
		return err
	}
	svc := config.ServicesFromEnv()

	conn, err := openStore(ctx, svc)
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
	}

	geocodeCache, legCache, closeCaches, err := buildCaches(ctx, svc, conn, resolutionCfg)
	if err != nil {
		return err
	}
	defer closeCaches()

	geocoder, router, err := buildProviders(svc, resolutionCfg)
	if err != nil {
		return err
	}

	repo, err := stopSource(svc, conn)
	if err != nil {
		return err
	}
	stops, err := repo.ListStops(ctx)
	if err != nil {
		return err
	}

	policy := retry.Policy{
		MaxRetries:     resolutionCfg.MaxRetries,
		BaseDelay:      resolutionCfg.BaseDelay,
		Multiplier:     2,
		AttemptTimeout: resolutionCfg.RequestTimeout,
	}
	resolver := services.NewResolver(geocodeCache, resolutionCfg, services.WithRetryPolicy(policy))

	var legs *services.LegMeasurer
	if router != nil {
		legs = services.NewLegMeasurer(router, legCache, policy)
	}

	planner := services.NewPlanner(geocoder, resolver, legs, resolutionCfg)
	plan, err := planner.Plan(ctx, stops, plannerCfg)
	if err != nil {
		return err
	}

	log.Printf("run_id=%s planned stops=%d clusters=%d warnings=%d errors=%d total_minutes=%.1f",
		plan.ID, len(plan.StopSequence), len(plan.Clusters), len(plan.Warnings), len(plan.Errors), plan.TotalTimeMinutes)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// openStore prefers Postgres when DATABASE_URL is set, otherwise the SQLite file at DB_PATH.
// Both get their schema.
func openStore(ctx context.Context, svc config.Services) (*sql.DB, error) {
	switch {
	case svc.DatabaseURL != "":
		conn, err := db.Open(svc.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	case svc.DBPath != "":
		conn, err := db.OpenSqlite(svc.DBPath)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	default:
		return nil, nil
	}
}

func buildCaches(
	ctx context.Context,
	svc config.Services,
	conn *sql.DB,
	cfg config.Resolution,
) (ports.GeocodeCache, ports.LegCache, func(), error) {
	var (
		geocodeCache ports.GeocodeCache = cache.NewMemoryGeocodeCache(cfg.CacheTTL)
		legCache     ports.LegCache     = cache.NewMemoryLegCache(legCacheTTL)
		closer                          = func() {}
	)

	if conn != nil {
		if svc.DatabaseURL != "" {
			geocodeCache = cache.NewSQLGeocodeCache(conn)
			legCache = cache.NewSQLLegCache(conn)
		} else {
			geocodeCache = cache.NewSqliteGeocodeCache(conn)
			legCache = cache.NewSqliteLegCache(conn)
		}
	}

	if svc.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, svc.RedisAddr)
		if err != nil {
			return nil, nil, nil, err
		}
		legCache = cache.NewRedisLegCache(client, legCacheTTL)
		closer = func() { client.Close() }
	}

	return geocodeCache, legCache, closer, nil
}

// buildProviders returns nil providers when none is configured; the planner
// then falls back to postal code centroids and great-circle estimates.
func buildProviders(svc config.Services, cfg config.Resolution) (ports.GeocodeProvider, ports.StreetRouteProvider, error) {
	var orsClient *ors.Client
	if svc.ORSAPIKey != "" {
		c, err := ors.NewClient(svc.ORSAPIKey)
		if err != nil {
			return nil, nil, err
		}
		orsClient = c
	}

	var geocoder ports.GeocodeProvider
	switch svc.Geocoder {
	case "ors":
		if orsClient == nil {
			log.Println("GEOCODER=ors without ORS_API_KEY, using postal code fallback only")
		} else {
			geocoder = cache.NewMemoGeocoder(orsClient, cfg.CacheTTL)
		}
	case "nominatim":
		geocoder = cache.NewMemoGeocoder(nominatim.New(), cfg.CacheTTL)
	case "none", "":
	default:
		return nil, nil, fmt.Errorf("unknown GEOCODER %q (want ors, nominatim or none)", svc.Geocoder)
	}

	var router ports.StreetRouteProvider
	if orsClient != nil {
		router = cache.NewMemoRouter(orsClient, legCacheTTL)
	}

	return geocoder, router, nil
}

// stopSource reads STOPS_PATH when set, otherwise the stops table.
func stopSource(svc config.Services, conn *sql.DB) (ports.StopRepository, error) {
	if svc.StopsPath != "" {
		return repositories.NewJSONStopRepository(svc.StopsPath), nil
	}
	if conn == nil {
		return nil, errors.New("no stop source: set STOPS_PATH or configure a database")
	}
	return repositories.NewSQLStopRepository(conn), nil
}
