package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"
)

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two (lat, lng)
// pairs.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := math.Pi / 180

	dLat := (lat2 - lat1) * toRad
	dLng := (lng2 - lng1) * toRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// StartCoordinate decodes the first point of an encoded polyline, the
// representative location for the whole activity.
func StartCoordinate(encoded string) (lat, lng float64, err error) {
	if encoded == "" {
		return 0, 0, errors.New("no polyline")
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding polyline: %w", err)
	}
	if len(coords) == 0 {
		return 0, 0, errors.New("polyline has no points")
	}
	return coords[0][0], coords[0][1], nil
}
