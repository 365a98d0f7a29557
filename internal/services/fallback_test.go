package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimodal-route-service/internal/domain"
)

func TestFallbackCoordinateUsesAreaTable(t *testing.T) {
	r := FallbackCoordinate("1991 AB")

	assert.Equal(t, areaCentroids["19"], r.Coordinates)
	assert.True(t, domain.DefaultRegion.Contains(r.Coordinates), "fallback %s must be on land in region", r.Coordinates)
	assert.Equal(t, domain.AccuracyApproximate, r.Accuracy)
	assert.Equal(t, domain.SourceFallback, r.Source)
	assert.LessOrEqual(t, r.Confidence, 0.3)
	assert.True(t, r.ResolvedAt.IsZero())

	// Pure: same code, same point.
	assert.Equal(t, r, FallbackCoordinate("1991 AB"))
	assert.Equal(t, r.Coordinates, FallbackCoordinate(" 1991ab ").Coordinates)
}

func TestFallbackCoordinateLevels(t *testing.T) {
	tests := []struct {
		name       string
		postal     string
		want       domain.Coordinates
		confidence float64
	}{
		{"area", "1012 AB", areaCentroids["10"], fallbackConfidenceArea},
		{"province when area unknown", "3", provinceCentroids['3'], fallbackConfidenceProvince},
		{"country when no digits", "unknown", countryCentroid, fallbackConfidenceCountry},
		{"country when empty", "", countryCentroid, fallbackConfidenceCountry},
		{"country when prefix unknown", "0123", countryCentroid, fallbackConfidenceCountry},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := FallbackCoordinate(tc.postal)
			assert.Equal(t, tc.want, r.Coordinates)
			assert.Equal(t, tc.confidence, r.Confidence)
		})
	}
}

func TestFallbackTableIsInRegion(t *testing.T) {
	for prefix, c := range areaCentroids {
		require.True(t, domain.DefaultRegion.Contains(c), "area %s at %s", prefix, c)
	}
	for digit, c := range provinceCentroids {
		require.True(t, domain.DefaultRegion.Contains(c), "province %c at %s", digit, c)
	}
	require.True(t, domain.DefaultRegion.Contains(countryCentroid))
}
