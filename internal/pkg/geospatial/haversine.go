// Package geospatial holds the great-circle math used for "X km away" labels
// and nearby-place pre-filtering. It assumes a spherical Earth, which is good
// to roughly 0.5% and not suitable for navigation.
package geospatial

import (
	"math"

	"github.com/wanderly/wanderly/internal/core/domain"
)

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the haversine great-circle distance between a and b.
// Coordinates are not validated; NaN or Inf inputs propagate into the result.
func DistanceMeters(a, b domain.GeoPoint) float64 {
	phi1 := toRad(a.Lat)
	phi2 := toRad(b.Lat)
	dPhi := toRad(b.Lat - a.Lat)
	dLambda := toRad(b.Lon - a.Lon)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Rounding can push h a hair above 1 for antipodal points.
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Haversine is DistanceMeters for raw coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceMeters(domain.GeoPoint{Lat: lat1, Lon: lon1}, domain.GeoPoint{Lat: lat2, Lon: lon2})
}

// BoundingBox returns a box around center that contains every point within
// radiusMeters of it.
func BoundingBox(center domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(center.Lat)))

	return domain.Bounds{
		MinLat: center.Lat - latDelta,
		MinLon: center.Lon - lonDelta,
		MaxLat: center.Lat + latDelta,
		MaxLon: center.Lon + lonDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
