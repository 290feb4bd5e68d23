package geospatial_test

import (
	"math"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/pkg/geospatial"
)

var (
	newDelhi = domain.GeoPoint{Lat: 28.6139, Lon: 77.2090}
	mumbai   = domain.GeoPoint{Lat: 19.0760, Lon: 72.8777}
	bilbao   = domain.GeoPoint{Lat: 43.2630, Lon: -2.9350}
	sydney   = domain.GeoPoint{Lat: -33.8688, Lon: 151.2093}
)

func TestDistanceMeters_Symmetric(t *testing.T) {
	points := []domain.GeoPoint{newDelhi, mumbai, bilbao, sydney, {Lat: 0, Lon: 179.9}, {Lat: 0, Lon: -179.9}}
	for _, a := range points {
		for _, b := range points {
			assert.InDelta(t, geospatial.DistanceMeters(a, b), geospatial.DistanceMeters(b, a), 1e-6)
		}
	}
}

func TestDistanceMeters_Identity(t *testing.T) {
	for _, p := range []domain.GeoPoint{newDelhi, bilbao, sydney, {Lat: 90, Lon: 0}} {
		assert.Equal(t, 0.0, geospatial.DistanceMeters(p, p))
	}
}

func TestDistanceMeters_NewDelhiToMumbai(t *testing.T) {
	d := geospatial.DistanceMeters(newDelhi, mumbai)
	assert.InDelta(t, 1148.1, d/1000, 1.0)
}

func TestDistanceMeters_AgreesWithS2(t *testing.T) {
	pairs := [][2]domain.GeoPoint{{newDelhi, mumbai}, {bilbao, sydney}, {bilbao, {Lat: 43.2640, Lon: -2.9340}}}
	for _, p := range pairs {
		a := s2.LatLngFromDegrees(p[0].Lat, p[0].Lon)
		b := s2.LatLngFromDegrees(p[1].Lat, p[1].Lon)
		want := a.Distance(b).Radians() * geospatial.EarthRadiusMeters

		assert.InEpsilon(t, want, geospatial.DistanceMeters(p[0], p[1]), 1e-7)
	}
}

func TestDistanceMeters_CrossesAntimeridian(t *testing.T) {
	d := geospatial.DistanceMeters(domain.GeoPoint{Lat: 0, Lon: 179.9}, domain.GeoPoint{Lat: 0, Lon: -179.9})
	assert.InDelta(t, 22239, d, 5)
}

func TestDistanceMeters_PropagatesNaN(t *testing.T) {
	d := geospatial.DistanceMeters(domain.GeoPoint{Lat: math.NaN(), Lon: 0}, bilbao)
	assert.True(t, math.IsNaN(d))
}

func TestHaversine_MatchesDistanceMeters(t *testing.T) {
	assert.Equal(t,
		geospatial.DistanceMeters(bilbao, sydney),
		geospatial.Haversine(bilbao.Lat, bilbao.Lon, sydney.Lat, sydney.Lon),
	)
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	box := geospatial.BoundingBox(bilbao, 1000)
	assert.True(t, box.Contains(bilbao))

	north := domain.GeoPoint{Lat: bilbao.Lat + 0.0089, Lon: bilbao.Lon}
	assert.InDelta(t, 990, geospatial.DistanceMeters(bilbao, north), 10)
	assert.True(t, box.Contains(north))

	assert.False(t, box.Contains(domain.GeoPoint{Lat: bilbao.Lat + 0.02, Lon: bilbao.Lon}))
}
