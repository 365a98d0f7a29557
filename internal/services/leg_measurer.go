package services

import (
	"context"
	"fmt"
	"log"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/platform/retry"
	"multimodal-route-service/internal/ports"
)

// LegEstimate parameterizes the great-circle fallback of one travel mode.
type LegEstimate struct {
	DetourFactor float64
	SpeedKmh     float64
}

// LegMeasurer measures plan legs through an optional street route provider.
// Without a provider, or when it fails, legs are estimated as great-circle distance
// times the detour factor. A nil LegMeasurer always estimates.
type LegMeasurer struct {
	provider ports.StreetRouteProvider
	cache    ports.LegCache
	policy   retry.Policy
}

// NewLegMeasurer builds a measurer. provider and cache may be nil.
func NewLegMeasurer(provider ports.StreetRouteProvider, cache ports.LegCache, policy retry.Policy) *LegMeasurer {
	return &LegMeasurer{provider: provider, cache: cache, policy: policy}
}

// LegKey is the cache key of a directed leg, rounded to ~1m.
func LegKey(from, to domain.Coordinates, mode domain.TravelMode) string {
	return fmt.Sprintf("%s|%.5f,%.5f|%.5f,%.5f", mode, from.Lon, from.Lat, to.Lon, to.Lat)
}

// Measure returns the leg's distance and duration and whether it is an estimate.
func (m *LegMeasurer) Measure(
	ctx context.Context,
	from, to domain.Coordinates,
	mode domain.TravelMode,
	est LegEstimate,
) (ports.RouteResult, bool) {
	if from == to {
		return ports.RouteResult{}, false
	}
	if m == nil || m.provider == nil {
		return estimateLeg(from, to, est), true
	}

	key := LegKey(from, to, mode)
	if m.cache != nil {
		r, ok, err := m.cache.Get(ctx, key)
		if err != nil {
			log.Printf("run_id=%s leg cache read failed: key=%s err=%v", obs.RunID(ctx), key, err)
		} else if ok {
			return r, false
		}
	}

	var r ports.RouteResult
	err := m.policy.Do(ctx, func(ctx context.Context) error {
		var e error
		r, e = m.provider.Route(ctx, from, to, mode)
		return e
	})
	if err != nil {
		log.Printf("run_id=%s street route failed, estimating: mode=%s from=%s to=%s err=%v",
			obs.RunID(ctx), mode, from, to, err)
		return estimateLeg(from, to, est), true
	}

	if m.cache != nil {
		if err := m.cache.Put(ctx, key, r); err != nil {
			log.Printf("run_id=%s leg cache write failed: key=%s err=%v", obs.RunID(ctx), key, err)
		}
	}
	return r, false
}

func estimateLeg(from, to domain.Coordinates, est LegEstimate) ports.RouteResult {
	factor := est.DetourFactor
	if factor < 1 {
		factor = 1
	}
	meters := domain.Distance(from, to) * factor
	return ports.RouteResult{
		DistanceMeters:  meters,
		DurationSeconds: minutesAt(meters, est.SpeedKmh) * 60,
		Path:            []domain.Coordinates{from, to},
	}
}
