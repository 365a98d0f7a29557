package services

import (
	"context"
	"errors"
	"math"
	"sync"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/ports"
)

// Amsterdam Centraal, used as the origin of test layouts.
var origin = domain.Coordinates{Lon: 4.9003, Lat: 52.3791}

const metersPerDegreeLat = math.Pi / 180 * domain.EarthRadiusMeters

// offset moves c by east and north meters.
func offset(c domain.Coordinates, east, north float64) domain.Coordinates {
	return domain.Coordinates{
		Lon: c.Lon + east/(metersPerDegreeLat*math.Cos(c.Lat*math.Pi/180)),
		Lat: c.Lat + north/metersPerDegreeLat,
	}
}

func locatedStop(id string, c domain.Coordinates) domain.Stop {
	return domain.Stop{ID: id, Coordinates: &c}
}

// stopsEast places stops on an east-west line at the given distances from origin.
func stopsEast(meters ...float64) []domain.Stop {
	stops := make([]domain.Stop, 0, len(meters))
	for i, m := range meters {
		stops = append(stops, locatedStop(string(rune('a'+i)), offset(origin, m, 0)))
	}
	return stops
}

var errNoMatch = errors.New("no match")

// fakeGeocoder answers from a fixed query table and counts calls.
type fakeGeocoder struct {
	mu      sync.Mutex
	results map[string]ports.GeocodeResult
	errs    map[string]error
	calls   map[string]int
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		results: map[string]ports.GeocodeResult{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (g *fakeGeocoder) on(query string, c domain.Coordinates, confidence float64) *fakeGeocoder {
	g.results[query] = ports.GeocodeResult{Coordinates: c, Confidence: confidence, Formatted: query}
	return g
}

func (g *fakeGeocoder) Geocode(_ context.Context, query string) (ports.GeocodeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[query]++
	if err, ok := g.errs[query]; ok {
		return ports.GeocodeResult{}, err
	}
	if r, ok := g.results[query]; ok {
		return r, nil
	}
	return ports.GeocodeResult{}, errNoMatch
}

func (g *fakeGeocoder) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

// mapGeocodeCache is an in-test GeocodeCache.
type mapGeocodeCache struct {
	mu   sync.Mutex
	data map[string]domain.Resolution
}

func newMapGeocodeCache() *mapGeocodeCache {
	return &mapGeocodeCache{data: map[string]domain.Resolution{}}
}

func (c *mapGeocodeCache) GetMany(_ context.Context, keys []string) (map[string]domain.Resolution, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]domain.Resolution{}
	for _, k := range keys {
		if r, ok := c.data[k]; ok {
			out[k] = r
		}
	}
	return out, nil
}

func (c *mapGeocodeCache) PutMany(_ context.Context, results map[string]domain.Resolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, r := range results {
		c.data[k] = r
	}
	return nil
}

// fakeRouter returns straight-line distances times a factor, or err when set.
type fakeRouter struct {
	mu     sync.Mutex
	factor float64
	err    error
	calls  int
}

func (r *fakeRouter) Route(_ context.Context, from, to domain.Coordinates, _ domain.TravelMode) (ports.RouteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return ports.RouteResult{}, r.err
	}
	d := domain.Distance(from, to) * r.factor
	return ports.RouteResult{DistanceMeters: d, DurationSeconds: d, Path: []domain.Coordinates{from, to}}, nil
}

// mapLegCache is an in-test LegCache.
type mapLegCache struct {
	mu   sync.Mutex
	data map[string]ports.RouteResult
}

func (c *mapLegCache) Get(_ context.Context, key string) (ports.RouteResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[key]
	return r, ok, nil
}

func (c *mapLegCache) Put(_ context.Context, key string, r ports.RouteResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string]ports.RouteResult{}
	}
	c.data[key] = r
	return nil
}
