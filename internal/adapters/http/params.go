package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/pkg/geospatial"
)

const maxPrecision = 6

// queryFloat reads a required float query parameter.
func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

// queryPoint reads a required lat/lon pair.
func queryPoint(c *fiber.Ctx, latKey, lonKey string) (domain.GeoPoint, error) {
	lat, err := queryFloat(c, latKey)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	lon, err := queryFloat(c, lonKey)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// optionalPoint reads a lat/lon pair that may be absent as a whole.
func optionalPoint(c *fiber.Ctx, latKey, lonKey string) (*domain.GeoPoint, error) {
	if c.Query(latKey) == "" && c.Query(lonKey) == "" {
		return nil, nil
	}
	p, err := queryPoint(c, latKey, lonKey)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// queryUnit resolves ?unit= first, then ?region= (an ISO country code).
// Neither means the configured default.
func queryUnit(c *fiber.Ctx) domain.Unit {
	if u := c.Query("unit"); u != "" {
		return geospatial.ParseUnit(u)
	}
	if r := c.Query("region"); r != "" {
		return geospatial.UnitForRegion(r)
	}
	return ""
}

// queryPrecisions reads precision_km and precision_mi; -1 means default.
func queryPrecisions(c *fiber.Ctx) (int, int, error) {
	km := c.QueryInt("precision_km", -1)
	mi := c.QueryInt("precision_mi", -1)
	if km < -1 || km > maxPrecision || mi < -1 || mi > maxPrecision {
		return 0, 0, fmt.Errorf("precision must be between 0 and %d", maxPrecision)
	}
	return km, mi, nil
}
