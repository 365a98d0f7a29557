package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"multimodal-route-service/internal/config"
	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/platform/retry"
	"multimodal-route-service/internal/ports"
)

// A provider match above this confidence ends the candidate search.
const acceptConfidence = 0.8

var errOutsideRegion = errors.New("result outside service region")

// Resolver turns an address into a coordinate. It never fails: when no provider
// is given, or every candidate fails, the postal code fallback is returned.
//
// The provider is passed on every call; the resolver holds no provider state.
type Resolver struct {
	cache  ports.GeocodeCache
	region domain.Region
	ttl    time.Duration
	policy retry.Policy
	now    func() time.Time
}

type ResolverOption func(*Resolver)

func WithRegion(r domain.Region) ResolverOption {
	return func(res *Resolver) { res.region = r }
}

func WithClock(now func() time.Time) ResolverOption {
	return func(res *Resolver) { res.now = now }
}

func WithRetryPolicy(p retry.Policy) ResolverOption {
	return func(res *Resolver) { res.policy = p }
}

// NewResolver builds a resolver. cache may be nil.
func NewResolver(cache ports.GeocodeCache, cfg config.Resolution, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:  cache,
		region: domain.DefaultRegion,
		ttl:    cfg.CacheTTL,
		policy: retry.Policy{
			MaxRetries:     cfg.MaxRetries,
			BaseDelay:      cfg.BaseDelay,
			Multiplier:     2,
			AttemptTimeout: cfg.RequestTimeout,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveResult is the outcome of resolving one address.
// FallbackReason is set when the resolution came from the postal code table.
type ResolveResult struct {
	Resolution     domain.Resolution
	FromCache      bool
	FallbackReason string
}

// Resolve returns a usable coordinate for addr using provider, which may be nil.
func (r *Resolver) Resolve(ctx context.Context, provider ports.GeocodeProvider, addr domain.Address) ResolveResult {
	key := addr.Key()
	if hits := r.cached(ctx, []string{key}); len(hits) > 0 {
		if res, ok := hits[key]; ok {
			return ResolveResult{Resolution: res, FromCache: true}
		}
	}
	return r.resolveUncached(ctx, provider, addr)
}

// cached returns the fresh provider resolutions among keys. Cache failures are logged and treated as misses.
func (r *Resolver) cached(ctx context.Context, keys []string) map[string]domain.Resolution {
	if r.cache == nil || len(keys) == 0 {
		return nil
	}

	hits, err := r.cache.GetMany(ctx, keys)
	if err != nil {
		log.Printf("run_id=%s geocode cache read failed: %v", obs.RunID(ctx), err)
		return nil
	}

	now := r.now()
	fresh := make(map[string]domain.Resolution, len(hits))
	for k, res := range hits {
		if res.Source != domain.SourceProvider || res.Stale(now, r.ttl) {
			continue
		}
		fresh[k] = res
	}
	return fresh
}

func (r *Resolver) resolveUncached(ctx context.Context, provider ports.GeocodeProvider, addr domain.Address) ResolveResult {
	if provider == nil {
		return r.fallback(addr, "no geocoding provider configured")
	}

	best, err := r.searchCandidates(ctx, provider, addr)
	if err != nil {
		return r.fallback(addr, err.Error())
	}

	res := domain.Resolution{
		Coordinates: best.Coordinates,
		Confidence:  best.Confidence,
		Accuracy:    best.Accuracy,
		Source:      domain.SourceProvider,
		Formatted:   best.Formatted,
		ResolvedAt:  r.now(),
	}
	if res.Accuracy == "" {
		res.Accuracy = domain.AccuracyInterpolated
	}

	if r.cache != nil {
		if err := r.cache.PutMany(ctx, map[string]domain.Resolution{addr.Key(): res}); err != nil {
			log.Printf("run_id=%s geocode cache write failed: %v", obs.RunID(ctx), err)
		}
	}

	return ResolveResult{Resolution: res}
}

// searchCandidates tries each candidate query in turn. The first in-region match above
// acceptConfidence wins, otherwise the highest-confidence in-region match is kept.
func (r *Resolver) searchCandidates(ctx context.Context, provider ports.GeocodeProvider, addr domain.Address) (ports.GeocodeResult, error) {
	var (
		best    ports.GeocodeResult
		found   bool
		lastErr error
	)

	for _, q := range candidateQueries(addr) {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		var got ports.GeocodeResult
		err := r.policy.Do(ctx, func(ctx context.Context) error {
			var e error
			got, e = provider.Geocode(ctx, q)
			return e
		})
		if err != nil {
			lastErr = fmt.Errorf("geocode %q: %w", q, err)
			continue
		}

		if !r.region.Contains(got.Coordinates) {
			lastErr = fmt.Errorf("geocode %q: %w (%s)", q, errOutsideRegion, got.Coordinates)
			continue
		}

		if got.Confidence > acceptConfidence {
			return got, nil
		}
		if !found || got.Confidence > best.Confidence {
			best = got
			found = true
		}
	}

	if found {
		return best, nil
	}
	if lastErr == nil {
		lastErr = errors.New("address has no geocodable parts")
	}
	return ports.GeocodeResult{}, lastErr
}

func (r *Resolver) fallback(addr domain.Address, reason string) ResolveResult {
	return ResolveResult{
		Resolution:     FallbackCoordinate(addr.PostalCode),
		FallbackReason: reason,
	}
}

// candidateQueries lists the queries tried for an address, most specific first, without duplicates:
// the full address, postal code with house number, then street with city.
func candidateQueries(addr domain.Address) []string {
	queries := []string{addr.Format()}

	postal := strings.TrimSpace(addr.PostalCode)
	house := strings.TrimSpace(addr.HouseNumber)
	if postal != "" && house != "" {
		queries = append(queries, postal+" "+house)
	}

	street := strings.TrimSpace(addr.Street)
	city := strings.TrimSpace(addr.City)
	if street != "" && city != "" {
		queries = append(queries, street+", "+city)
	}

	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
