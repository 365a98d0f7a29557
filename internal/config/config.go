// Package config loads planner, resolution and service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"multimodal-route-service/internal/domain"
)

// Load reads a .env file when present. A missing file is not an error.
func Load(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Planner is the configuration record of one optimization run.
type Planner struct {
	MaxWalkingDistanceMeters   float64
	PreferredClusterSize       int
	WalkingSpeedKmh            float64
	CyclingSpeedKmh            float64
	BikeParkingTimeSeconds     float64
	HomeBase                   *domain.Coordinates
	MultiModalEnabled          bool
	PrioritizeCategoryGrouping bool
	SingleModeTwoOpt           bool
	WalkingDetourFactor        float64
	CyclingDetourFactor        float64
}

func DefaultPlanner() Planner {
	return Planner{
		MaxWalkingDistanceMeters: 400,
		PreferredClusterSize:     8,
		WalkingSpeedKmh:          5,
		CyclingSpeedKmh:          15,
		BikeParkingTimeSeconds:   60,
		MultiModalEnabled:        true,
		WalkingDetourFactor:      1.3,
		CyclingDetourFactor:      1.3,
	}
}

// Resolution configures batched geocoding.
type Resolution struct {
	BatchSize      int
	BatchDelay     time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	BaseDelay      time.Duration
	CacheTTL       time.Duration
}

func DefaultResolution() Resolution {
	return Resolution{
		BatchSize:      3,
		BatchDelay:     time.Second,
		RequestTimeout: 12 * time.Second,
		MaxRetries:     3,
		BaseDelay:      500 * time.Millisecond,
		CacheTTL:       30 * 24 * time.Hour,
	}
}

// Services holds connection settings for the outer adapters.
type Services struct {
	Geocoder    string
	ORSAPIKey   string
	DatabaseURL string
	DBPath      string
	RedisAddr   string
	StopsPath   string
	SeedPath    string
}

// ValidationError lists every invalid field of a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Validate fails fast on values no optimization run can use.
func (p Planner) Validate() error {
	v := &ValidationError{}
	if p.PreferredClusterSize < 1 {
		v.add("preferred cluster size must be >= 1, got %d", p.PreferredClusterSize)
	}
	if !(p.MaxWalkingDistanceMeters >= 0) {
		v.add("max walking distance must be >= 0, got %v", p.MaxWalkingDistanceMeters)
	}
	if !(p.WalkingSpeedKmh > 0) {
		v.add("walking speed must be > 0, got %v", p.WalkingSpeedKmh)
	}
	if !(p.CyclingSpeedKmh > 0) {
		v.add("cycling speed must be > 0, got %v", p.CyclingSpeedKmh)
	}
	if !(p.BikeParkingTimeSeconds >= 0) {
		v.add("bike parking time must be >= 0, got %v", p.BikeParkingTimeSeconds)
	}
	if !(p.WalkingDetourFactor >= 1) {
		v.add("walking detour factor must be >= 1, got %v", p.WalkingDetourFactor)
	}
	if !(p.CyclingDetourFactor >= 1) {
		v.add("cycling detour factor must be >= 1, got %v", p.CyclingDetourFactor)
	}
	if p.HomeBase != nil && !domain.DefaultRegion.Contains(*p.HomeBase) {
		v.add("home base %s is outside the service region", p.HomeBase)
	}
	return v.orNil()
}

func (r Resolution) Validate() error {
	v := &ValidationError{}
	if r.BatchSize < 1 {
		v.add("batch size must be >= 1, got %d", r.BatchSize)
	}
	if r.BatchDelay < 0 {
		v.add("batch delay must be >= 0, got %v", r.BatchDelay)
	}
	if r.RequestTimeout <= 0 {
		v.add("request timeout must be > 0, got %v", r.RequestTimeout)
	}
	if r.MaxRetries < 0 {
		v.add("max retries must be >= 0, got %d", r.MaxRetries)
	}
	if r.BaseDelay < 0 {
		v.add("base delay must be >= 0, got %v", r.BaseDelay)
	}
	return v.orNil()
}

// PlannerFromEnv overlays environment values on DefaultPlanner.
func PlannerFromEnv() (Planner, error) {
	p := DefaultPlanner()
	var errs []error

	p.MaxWalkingDistanceMeters = getFloat("MAX_WALKING_DISTANCE_METERS", p.MaxWalkingDistanceMeters, &errs)
	p.PreferredClusterSize = getInt("PREFERRED_CLUSTER_SIZE", p.PreferredClusterSize, &errs)
	p.WalkingSpeedKmh = getFloat("WALKING_SPEED_KMH", p.WalkingSpeedKmh, &errs)
	p.CyclingSpeedKmh = getFloat("CYCLING_SPEED_KMH", p.CyclingSpeedKmh, &errs)
	p.BikeParkingTimeSeconds = getFloat("BIKE_PARKING_TIME_SECONDS", p.BikeParkingTimeSeconds, &errs)
	p.MultiModalEnabled = getBool("MULTI_MODAL_ENABLED", p.MultiModalEnabled, &errs)
	p.PrioritizeCategoryGrouping = getBool("PRIORITIZE_CATEGORY_GROUPING", p.PrioritizeCategoryGrouping, &errs)
	p.SingleModeTwoOpt = getBool("SINGLE_MODE_TWO_OPT", p.SingleModeTwoOpt, &errs)
	p.WalkingDetourFactor = getFloat("WALKING_DETOUR_FACTOR", p.WalkingDetourFactor, &errs)
	p.CyclingDetourFactor = getFloat("CYCLING_DETOUR_FACTOR", p.CyclingDetourFactor, &errs)

	if raw := Get("HOME_BASE", ""); raw != "" {
		home, err := ParseCoordinates(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("HOME_BASE: %w", err))
		} else {
			p.HomeBase = &home
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Planner{}, fmt.Errorf("planner config: %w", err)
	}
	return p, nil
}

func ResolutionFromEnv() (Resolution, error) {
	r := DefaultResolution()
	var errs []error

	r.BatchSize = getInt("GEOCODE_BATCH_SIZE", r.BatchSize, &errs)
	r.BatchDelay = getDuration("GEOCODE_BATCH_DELAY", r.BatchDelay, &errs)
	r.RequestTimeout = getDuration("GEOCODE_REQUEST_TIMEOUT", r.RequestTimeout, &errs)
	r.MaxRetries = getInt("GEOCODE_MAX_RETRIES", r.MaxRetries, &errs)
	r.BaseDelay = getDuration("GEOCODE_BASE_DELAY", r.BaseDelay, &errs)
	r.CacheTTL = getDuration("GEOCODE_CACHE_TTL", r.CacheTTL, &errs)

	if err := errors.Join(errs...); err != nil {
		return Resolution{}, fmt.Errorf("resolution config: %w", err)
	}
	return r, nil
}

func ServicesFromEnv() Services {
	return Services{
		Geocoder:    strings.ToLower(Get("GEOCODER", "ors")),
		ORSAPIKey:   Get("ORS_API_KEY", ""),
		DatabaseURL: Get("DATABASE_URL", ""),
		DBPath:      Get("DB_PATH", "data/app.db"),
		RedisAddr:   Get("REDIS_ADDR", ""),
		StopsPath:   Get("STOPS_PATH", ""),
		SeedPath:    Get("SEED_PATH", "data/seeds/stops.json"),
	}
}

// ParseCoordinates parses "lon,lat".
func ParseCoordinates(raw string) (domain.Coordinates, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return domain.Coordinates{}, fmt.Errorf("expected \"lon,lat\", got %q", raw)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse latitude %q: %w", parts[1], err)
	}
	return domain.Coordinates{Lon: lon, Lat: lat}, nil
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getInt(key string, fallback int, errs *[]error) int {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getBool(key string, fallback bool, errs *[]error) bool {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}
