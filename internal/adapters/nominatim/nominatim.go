// Package nominatim geocodes addresses with an OpenStreetMap Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/platform/retry"
	"multimodal-route-service/internal/ports"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrGeocodingFailed is returned when a query cannot be geocoded.
type ErrGeocodingFailed struct {
	Query  string
	Reason string
}

func (e *ErrGeocodingFailed) Error() string {
	return fmt.Sprintf("geocoding failed for query: %s - %s", e.Query, e.Reason)
}

// Geocoder is safe for concurrent use. Requests share one limiter; the public
// server allows one request per second.
type Geocoder struct {
	baseURL    string
	userAgent  string
	country    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ports.GeocodeProvider = (*Geocoder)(nil)

type Option func(*Geocoder)

func WithBaseURL(u string) Option {
	return func(g *Geocoder) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithRate overrides the request rate, e.g. for a self-hosted server.
func WithRate(limit rate.Limit, burst int) Option {
	return func(g *Geocoder) { g.limiter = rate.NewLimiter(limit, burst) }
}

func WithUserAgent(ua string) Option {
	return func(g *Geocoder) { g.userAgent = ua }
}

func New(opts ...Option) *Geocoder {
	g := &Geocoder{
		baseURL:   DefaultBaseURL,
		userAgent: "MultimodalRoutePlanner/1.0",
		country:   "nl",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type searchResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	AddressType string  `json:"addresstype"`
}

func (g *Geocoder) Geocode(ctx context.Context, query string) (_ ports.GeocodeResult, err error) {
	defer obs.Time(ctx, "nominatim.geocode")(&err)

	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return ports.GeocodeResult{}, retry.Permanent(&ErrGeocodingFailed{Query: query, Reason: "empty query"})
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return ports.GeocodeResult{}, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	if g.country != "" {
		params.Set("countrycodes", g.country)
	}
	queryURL := g.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return ports.GeocodeResult{}, &ErrGeocodingFailed{Query: query, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return ports.GeocodeResult{}, &ErrGeocodingFailed{Query: query, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("run_id=%s nominatim error: query=%q status=%d", obs.RunID(ctx), query, resp.StatusCode)
		failed := &ErrGeocodingFailed{
			Query:  query,
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return ports.GeocodeResult{}, retry.Permanent(failed)
		}
		return ports.GeocodeResult{}, failed
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return ports.GeocodeResult{}, retry.Permanent(&ErrGeocodingFailed{Query: query, Reason: err.Error()})
	}
	if len(results) == 0 {
		return ports.GeocodeResult{}, retry.Permanent(&ErrGeocodingFailed{Query: query, Reason: "no results found"})
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return ports.GeocodeResult{}, retry.Permanent(&ErrGeocodingFailed{Query: query, Reason: "invalid latitude"})
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return ports.GeocodeResult{}, retry.Permanent(&ErrGeocodingFailed{Query: query, Reason: "invalid longitude"})
	}

	return ports.GeocodeResult{
		Coordinates: domain.Coordinates{Lon: lon, Lat: lat},
		Confidence:  confidenceOf(r),
		Formatted:   r.DisplayName,
		Accuracy:    accuracyOf(r.AddressType),
	}, nil
}

// Nominatim has no match confidence; importance ranks places, so house-level hits
// are floored above it.
func confidenceOf(r searchResult) float64 {
	c := r.Importance
	switch accuracyOf(r.AddressType) {
	case domain.AccuracyExact:
		c = max(c, 0.9)
	case domain.AccuracyInterpolated:
		c = max(c, 0.7)
	}
	return min(c, 1)
}

func accuracyOf(addressType string) domain.Accuracy {
	switch addressType {
	case "house", "building":
		return domain.AccuracyExact
	case "road", "street":
		return domain.AccuracyInterpolated
	default:
		return domain.AccuracyApproximate
	}
}
