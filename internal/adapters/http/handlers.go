package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"

	"github.com/wanderly/wanderly/internal/adapters/mapping"
	"github.com/wanderly/wanderly/internal/core/openhours"
	"github.com/wanderly/wanderly/internal/core/usecases"
)

const maxRadiusMeters = 20000

// NearbyPlacesHandler returns place cards within a radius of a point.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryPoint(c, "lat", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius", 1000)
		if !(radius >= 1 && radius <= maxRadiusMeters) {
			return errBadRequest(c, "radius must be between 1 and 20000 meters")
		}

		places, err := deps.Places.Nearby(c.UserContext(), usecases.NearbyQuery{
			Center:       center,
			RadiusMeters: radius,
			Limit:        c.QueryInt("limit", 20),
			OpenNow:      c.QueryBool("open_now", false),
			Unit:         queryUnit(c),
		})
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(places)
	}
}

// GetPlaceHandler returns a single place by ID.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}
		place, err := deps.Places.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(place)
	}
}

// PlaceStatusHandler renders the open/closed status of a place and, when
// lat and lon are given, its distance from there.
func PlaceStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}
		origin, err := optionalPoint(c, "lat", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		km, mi, err := queryPrecisions(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		status, err := deps.Places.Status(c.UserContext(), id, usecases.StatusQuery{
			Origin:      origin,
			Unit:        queryUnit(c),
			PrecisionKm: km,
			PrecisionMi: mi,
		})
		if err != nil {
			return errFromService(c, err)
		}
		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(status)
	}
}

// EvaluateHoursHandler evaluates an ad-hoc weekly schedule. The body is
// {"hours": ..., "now": RFC 3339, "timezone": IANA name}; hours may use any
// shape the importer understands and now defaults to the server clock.
func EvaluateHoursHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
			return errBadRequest(c, "body must be a JSON object")
		}
		req := gjson.ParseBytes(body)

		hoursField := req.Get("hours")
		if !hoursField.Exists() {
			return errBadRequest(c, "hours is required")
		}
		weekly := mapping.Hours(hoursField)

		now := deps.now()
		if raw := req.Get("now").String(); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "now must be an RFC 3339 timestamp")
			}
			now = parsed
		}
		if tz := req.Get("timezone").String(); tz != "" {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return errBadRequest(c, "unknown timezone "+tz)
			}
			now = now.In(loc)
		}

		result := deps.Schedule.Evaluate(weekly, now)
		return c.JSON(fiber.Map{
			"hours":        openhours.Normalize(weekly),
			"is_open":      result.IsOpen,
			"next":         result.Next,
			"label":        result.Label,
			"closing_soon": result.ClosingSoon,
			"evaluated_at": result.EvaluatedAt.Format(time.RFC3339),
		})
	}
}

// DistanceHandler measures and formats the great-circle distance between
// two points. Coordinates are not range-checked.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := queryPoint(c, "from_lat", "from_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := queryPoint(c, "to_lat", "to_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		km, mi, err := queryPrecisions(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(deps.Schedule.Distance(from, to, queryUnit(c), km, mi))
	}
}

// ImportPlacesHandler stores a batch of raw upstream records. The body is a
// JSON array, a single record, or an array under data, results, places or items.
func ImportPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := mapping.Records(c.Body())
		if err != nil {
			return errBadRequest(c, "body must be a JSON record or array of records")
		}
		if len(records) == 0 {
			return errBadRequest(c, "no records in body")
		}

		summary, err := deps.Imports.ImportBatch(c.UserContext(), records)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(summary)
	}
}

// SyncPlacesHandler pulls changed records from upstream. ?since= is an RFC
// 3339 timestamp; absent means a full sync.
func SyncPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var since time.Time
		if raw := c.Query("since"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "since must be an RFC 3339 timestamp")
			}
			since = t
		}

		summary, err := deps.Imports.Sync(c.UserContext(), since)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(summary)
	}
}

// RefreshPlaceHandler re-fetches one place from upstream.
func RefreshPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		place, err := deps.Imports.Refresh(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(place)
	}
}

// DeletePlaceHandler removes a place.
func DeletePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Imports.Remove(c.UserContext(), c.Params("id")); err != nil {
			return errFromService(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AdminOnly requires the configured bearer token. An empty token disables
// the check.
func AdminOnly(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		auth := c.Get(fiber.HeaderAuthorization)
		if auth == "" {
			return errUnauthorized(c, "missing bearer token")
		}
		if got, ok := strings.CutPrefix(auth, "Bearer "); !ok || got != token {
			return errForbidden(c, "invalid token")
		}
		return c.Next()
	}
}

func (d *Dependencies) now() time.Time {
	if d.Clock != nil {
		return d.Clock.Now()
	}
	return time.Now()
}
