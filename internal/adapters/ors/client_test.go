package ors

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/retry"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestGeocode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "Damrak 1, 1012 LG Amsterdam", r.URL.Query().Get("text"))
		assert.Equal(t, "NL", r.URL.Query().Get("boundary.country"))

		_, _ = io.WriteString(w, `{"features":[{
			"geometry":{"coordinates":[4.8952,52.3745]},
			"properties":{"label":"Damrak 1, Amsterdam","confidence":0.97,"accuracy":"point","layer":"address"}
		}]}`)
	})

	got, err := c.Geocode(context.Background(), "  Damrak 1,  1012 LG Amsterdam ")
	require.NoError(t, err)

	assert.Equal(t, domain.Coordinates{Lon: 4.8952, Lat: 52.3745}, got.Coordinates)
	assert.Equal(t, 0.97, got.Confidence)
	assert.Equal(t, "Damrak 1, Amsterdam", got.Formatted)
	assert.Equal(t, domain.AccuracyExact, got.Accuracy)
}

func TestDefiniteAnswersAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(c *Client) error
	}{
		{"geocode no results", `{"features":[]}`, func(c *Client) error {
			_, err := c.Geocode(context.Background(), "nowhere")
			return err
		}},
		{"geocode malformed body", `{"features":`, func(c *Client) error {
			_, err := c.Geocode(context.Background(), "nowhere")
			return err
		}},
		{"geocode bad geometry", `{"features":[{"geometry":{"coordinates":[4.89]}}]}`, func(c *Client) error {
			_, err := c.Geocode(context.Background(), "nowhere")
			return err
		}},
		{"route not found", `{"features":[]}`, func(c *Client) error {
			_, err := c.Route(context.Background(),
				domain.Coordinates{Lon: 4.9003, Lat: 52.3791},
				domain.Coordinates{Lon: 4.8952, Lat: 52.3745},
				domain.ModeWalking)
			return err
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				_, _ = io.WriteString(w, tc.body)
			})

			err := retry.Policy{MaxRetries: 3}.Do(context.Background(), func(ctx context.Context) error {
				return tc.call(c)
			})
			require.Error(t, err)
			assert.True(t, retry.IsPermanent(err))
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"features":[{"geometry":{"coordinates":[4.8952,52.3745]},"properties":{}}]}`)
	})

	err := retry.Policy{MaxRetries: 3}.Do(context.Background(), func(ctx context.Context) error {
		_, err := c.Geocode(ctx, "Damrak 1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestStatusErrorsClassifyForRetry(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		permanent bool
	}{
		{"bad request", http.StatusBadRequest, true},
		{"forbidden", http.StatusForbidden, true},
		{"rate limited", http.StatusTooManyRequests, false},
		{"unavailable", http.StatusServiceUnavailable, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.code)
			})

			_, err := c.Geocode(context.Background(), "Damrak 1")
			require.Error(t, err)

			var se *HTTPStatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.code, se.Code)
			assert.Equal(t, tc.permanent, retry.IsPermanent(err))
		})
	}
}

func TestRoute(t *testing.T) {
	from := domain.Coordinates{Lon: 4.9003, Lat: 52.3791}
	to := domain.Coordinates{Lon: 4.8952, Lat: 52.3745}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/cycling-regular/geojson", r.URL.Path)

		var body directionsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]float64{{4.9003, 52.3791}, {4.8952, 52.3745}}, body.Coordinates)

		_, _ = io.WriteString(w, `{"features":[{
			"geometry":{"coordinates":[[4.9003,52.3791],[4.8980,52.3770],[4.8952,52.3745]]},
			"properties":{"summary":{"distance":812.4,"duration":190.2}}
		}]}`)
	})

	got, err := c.Route(context.Background(), from, to, domain.ModeCycling)
	require.NoError(t, err)

	assert.Equal(t, 812.4, got.DistanceMeters)
	assert.Equal(t, 190.2, got.DurationSeconds)
	require.Len(t, got.Path, 3)
	assert.Equal(t, to, got.Path[2])
}

func TestProfile(t *testing.T) {
	p, err := Profile(domain.ModeWalking)
	require.NoError(t, err)
	assert.Equal(t, "foot-walking", p)

	_, err = Profile("driving")
	assert.Error(t, err)
}

func TestAccuracyOf(t *testing.T) {
	assert.Equal(t, domain.AccuracyExact, accuracyOf("point", "address"))
	assert.Equal(t, domain.AccuracyInterpolated, accuracyOf("point", "street"))
	assert.Equal(t, domain.AccuracyApproximate, accuracyOf("centroid", "postalcode"))
}
