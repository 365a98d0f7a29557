package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/platform/retry"
	"multimodal-route-service/internal/ports"
)

var _ ports.GeocodeProvider = (*Client)(nil)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label      string  `json:"label"`
			Confidence float64 `json:"confidence"`
			Accuracy   string  `json:"accuracy"`
			Layer      string  `json:"layer"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves a free-form query with /geocode/search, returning the top match.
func (c *Client) Geocode(ctx context.Context, query string) (_ ports.GeocodeResult, err error) {
	defer obs.Time(ctx, "ors.geocode")(&err)

	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return ports.GeocodeResult{}, retry.Permanent(fmt.Errorf("ors geocode: query must be non-empty"))
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/geocode/search", nil)
	if err != nil {
		return ports.GeocodeResult{}, fmt.Errorf("ors geocode: %w", err)
	}

	q := req.URL.Query()
	q.Set("text", query)
	if c.country != "" {
		q.Set("boundary.country", c.country)
	}
	q.Set("size", "1")
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return ports.GeocodeResult{}, fmt.Errorf("ors geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	// A well-formed 200 answer does not change on retry.
	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.GeocodeResult{}, retry.Permanent(fmt.Errorf("ors geocode: decode response: %w", err))
	}

	if len(decoded.Features) == 0 {
		return ports.GeocodeResult{}, retry.Permanent(fmt.Errorf("ors geocode: no results for %q", query))
	}

	f := decoded.Features[0]
	if len(f.Geometry.Coordinates) != 2 {
		return ports.GeocodeResult{}, retry.Permanent(fmt.Errorf("ors geocode: invalid coordinate format for %q", query))
	}

	return ports.GeocodeResult{
		Coordinates: domain.Coordinates{
			Lon: f.Geometry.Coordinates[0],
			Lat: f.Geometry.Coordinates[1],
		},
		Confidence: f.Properties.Confidence,
		Formatted:  f.Properties.Label,
		Accuracy:   accuracyOf(f.Properties.Accuracy, f.Properties.Layer),
	}, nil
}

// accuracyOf maps Pelias accuracy and layer onto the domain scale.
func accuracyOf(accuracy, layer string) domain.Accuracy {
	switch {
	case accuracy == "point" && layer == "address":
		return domain.AccuracyExact
	case accuracy == "point":
		return domain.AccuracyInterpolated
	default:
		return domain.AccuracyApproximate
	}
}
