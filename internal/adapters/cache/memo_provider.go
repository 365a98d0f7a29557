package cache

import (
	"context"
	"time"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/memo"
	"multimodal-route-service/internal/ports"
)

// MemoGeocoder memoizes raw provider answers per normalized query. Failures are not memoized.
type MemoGeocoder struct {
	next    ports.GeocodeProvider
	answers *memo.Cache[string, ports.GeocodeResult]
}

var _ ports.GeocodeProvider = (*MemoGeocoder)(nil)

func NewMemoGeocoder(next ports.GeocodeProvider, ttl time.Duration) *MemoGeocoder {
	return &MemoGeocoder{next: next, answers: memo.New[string, ports.GeocodeResult](ttl)}
}

func (m *MemoGeocoder) Geocode(ctx context.Context, query string) (ports.GeocodeResult, error) {
	return m.answers.GetOrLoad(ctx, domain.NormalizeKey(query), func(ctx context.Context) (ports.GeocodeResult, error) {
		return m.next.Geocode(ctx, query)
	})
}

// MemoRouter memoizes street routes per directed leg and mode.
type MemoRouter struct {
	next   ports.StreetRouteProvider
	routes *memo.Cache[string, ports.RouteResult]
}

var _ ports.StreetRouteProvider = (*MemoRouter)(nil)

func NewMemoRouter(next ports.StreetRouteProvider, ttl time.Duration) *MemoRouter {
	return &MemoRouter{next: next, routes: memo.New[string, ports.RouteResult](ttl)}
}

func (m *MemoRouter) Route(ctx context.Context, from, to domain.Coordinates, mode domain.TravelMode) (ports.RouteResult, error) {
	key := string(mode) + "|" + from.String() + "|" + to.String()
	return m.routes.GetOrLoad(ctx, key, func(ctx context.Context) (ports.RouteResult, error) {
		return m.next.Route(ctx, from, to, mode)
	})
}
