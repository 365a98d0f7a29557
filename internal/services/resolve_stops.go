package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"multimodal-route-service/internal/config"
	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/ports"
)

// ResolveOutcome holds the located stops in input order plus what went wrong on the way.
type ResolveOutcome struct {
	Stops    []domain.Stop
	Warnings []domain.Warning
	Errors   []domain.StopError
}

// ResolveStops locates every stop. Addresses are resolved in sequential batches of
// cfg.BatchSize concurrent lookups separated by cfg.BatchDelay. A failed lookup degrades
// to the fallback coordinate and a warning; it never aborts the batch.
// All lookups complete before ResolveStops returns.
func ResolveStops(
	ctx context.Context,
	resolver *Resolver,
	provider ports.GeocodeProvider,
	stops []domain.Stop,
	cfg config.Resolution,
) ResolveOutcome {
	defer obs.Time(ctx, "resolve.stops")(nil)

	out := ResolveOutcome{
		Stops:    make([]domain.Stop, 0, len(stops)),
		Warnings: []domain.Warning{},
		Errors:   []domain.StopError{},
	}

	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	// Slots of stops that still need an address lookup, keyed by normalized address.
	accepted := make([]domain.Stop, 0, len(stops))
	seenIDs := make(map[string]struct{}, len(stops))
	needs := make(map[string]bool, len(stops))
	var keys []string
	addrByKey := make(map[string]domain.Address)

	for _, s := range stops {
		if err := s.Validate(); err != nil {
			out.Errors = append(out.Errors, domain.StopError{StopID: s.ID, Reason: err.Error()})
			continue
		}
		if _, dup := seenIDs[s.ID]; dup {
			out.Errors = append(out.Errors, domain.StopError{StopID: s.ID, Reason: "duplicate stop id"})
			continue
		}
		seenIDs[s.ID] = struct{}{}

		if s.Coordinates != nil {
			if resolver.region.Contains(*s.Coordinates) {
				accepted = append(accepted, s)
				continue
			}
			if s.Address.Validate() != nil {
				out.Errors = append(out.Errors, domain.StopError{
					StopID: s.ID,
					Reason: fmt.Sprintf("coordinate %s outside service region and no address to resolve", s.Coordinates),
				})
				continue
			}
			out.Warnings = append(out.Warnings, domain.Warning{
				StopID: s.ID,
				Reason: fmt.Sprintf("input coordinate %s outside service region, re-resolving address", s.Coordinates),
			})
		}

		accepted = append(accepted, s)
		needs[s.ID] = true
		key := s.Address.Key()
		if _, ok := addrByKey[key]; !ok {
			addrByKey[key] = s.Address
			keys = append(keys, key)
		}
	}

	results := make(map[string]ResolveResult, len(keys))
	for k, res := range resolver.cached(ctx, keys) {
		results[k] = ResolveResult{Resolution: res, FromCache: true}
	}

	misses := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := results[k]; !ok {
			misses = append(misses, k)
		}
	}

	if len(keys) > 0 {
		log.Printf("run_id=%s resolve: addresses=%d cached=%d lookups=%d batch_size=%d",
			obs.RunID(ctx), len(keys), len(keys)-len(misses), len(misses), batchSize)
	}

	for start := 0; start < len(misses); start += batchSize {
		if start > 0 && cfg.BatchDelay > 0 && ctx.Err() == nil {
			timer := time.NewTimer(cfg.BatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}

		end := min(start+batchSize, len(misses))
		batch := misses[start:end]
		slots := make([]ResolveResult, len(batch))

		var g errgroup.Group
		g.SetLimit(batchSize)
		for i, key := range batch {
			g.Go(func() error {
				slots[i] = resolver.resolveUncached(ctx, provider, addrByKey[key])
				return nil
			})
		}
		_ = g.Wait()

		for i, key := range batch {
			results[key] = slots[i]
		}
	}

	for _, s := range accepted {
		if !needs[s.ID] {
			out.Stops = append(out.Stops, s)
			continue
		}

		res := results[s.Address.Key()]
		if !resolver.region.Contains(res.Resolution.Coordinates) {
			// The fallback table is always in region; this guards a misconfigured region.
			out.Errors = append(out.Errors, domain.StopError{StopID: s.ID, Reason: "no coordinate could be resolved"})
			continue
		}
		if res.FallbackReason != "" {
			out.Warnings = append(out.Warnings, domain.Warning{
				StopID: s.ID,
				Reason: fmt.Sprintf("approximate location from postal code: %s", res.FallbackReason),
			})
		}
		out.Stops = append(out.Stops, s.WithCoordinates(res.Resolution.Coordinates))
	}

	return out
}
