package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/platform/retry"
	"multimodal-route-service/internal/ports"
)

var _ ports.StreetRouteProvider = (*Client)(nil)

// Profile returns the ORS routing profile of a travel mode.
func Profile(mode domain.TravelMode) (string, error) {
	switch mode {
	case domain.ModeWalking:
		return "foot-walking", nil
	case domain.ModeCycling:
		return "cycling-regular", nil
	default:
		return "", fmt.Errorf("unsupported travel mode %q", mode)
	}
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Route fetches a street route between two points with /v2/directions/{profile}/geojson.
func (c *Client) Route(
	ctx context.Context,
	from, to domain.Coordinates,
	mode domain.TravelMode,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.route")(&err)

	profile, err := Profile(mode)
	if err != nil {
		return ports.RouteResult{}, retry.Permanent(fmt.Errorf("ors route: %w", err))
	}

	body, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{from.CoordsToList(), to.CoordsToList()},
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("ors route: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, profile)
	req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("ors route: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("ors route %s->%s: %w", from, to, err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteResult{}, retry.Permanent(fmt.Errorf("ors route: decode response: %w", err))
	}
	if len(decoded.Features) == 0 {
		return ports.RouteResult{}, retry.Permanent(fmt.Errorf("ors route: no route %s->%s", from, to))
	}

	f := decoded.Features[0]
	path := make([]domain.Coordinates, 0, len(f.Geometry.Coordinates))
	for _, p := range f.Geometry.Coordinates {
		if len(p) < 2 {
			return ports.RouteResult{}, retry.Permanent(fmt.Errorf("ors route: invalid path point %v", p))
		}
		path = append(path, domain.Coordinates{Lon: p[0], Lat: p[1]})
	}

	return ports.RouteResult{
		DistanceMeters:  f.Properties.Summary.Distance,
		DurationSeconds: f.Properties.Summary.Duration,
		Path:            path,
	}, nil
}
