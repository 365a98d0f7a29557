package domain

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

var ErrEmptyCentroid = errors.New("centroid: no coordinates")

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Coordinates) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Centroid returns the arithmetic mean of longitudes and latitudes.
func Centroid(coords []Coordinates) (Coordinates, error) {
	if len(coords) == 0 {
		return Coordinates{}, ErrEmptyCentroid
	}

	var sumLon, sumLat float64
	for _, c := range coords {
		sumLon += c.Lon
		sumLat += c.Lat
	}
	n := float64(len(coords))

	return Coordinates{Lon: sumLon / n, Lat: sumLat / n}, nil
}

// Region is a latitude/longitude bounding box of the service area.
type Region struct {
	rect s2.Rect
}

// NewRegion builds a region from its south-west and north-east corners.
func NewRegion(southWest, northEast Coordinates) Region {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(southWest.Lat, southWest.Lon))
	rect = rect.AddPoint(s2.LatLngFromDegrees(northEast.Lat, northEast.Lon))
	return Region{rect: rect}
}

// DefaultRegion covers the Netherlands, the operating area of the postal code fallback table.
var DefaultRegion = NewRegion(
	Coordinates{Lon: 3.2, Lat: 50.75},
	Coordinates{Lon: 7.25, Lat: 53.7},
)

// Contains reports whether c lies inside the region. Invalid coordinates are never contained.
func (r Region) Contains(c Coordinates) bool {
	return r.rect.ContainsLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}
