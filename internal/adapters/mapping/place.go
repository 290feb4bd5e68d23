// Package mapping turns loosely-typed upstream place records into domain.Place.
// Field-name aliases are resolved here and nowhere else.
package mapping

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/wanderly/wanderly/internal/core/domain"
)

var (
	// ErrInvalidJSON is returned for records that are not a JSON object.
	ErrInvalidJSON = errors.New("mapping: record is not a json object")
	// ErrNoName is returned when none of the name aliases carries a value.
	ErrNoName = errors.New("mapping: record has no name")
)

var (
	idKeys        = []string{"id", "place_id", "_id", "uuid"}
	nameKeys      = []string{"name", "title", "displayName", "place_name"}
	latKeys       = []string{"lat", "latitude", "locationLat", "coordLat", "location.lat", "location.latitude", "geometry.location.lat"}
	lonKeys       = []string{"lng", "lon", "long", "longitude", "locationLng", "coordLng", "location.lng", "location.lon", "location.longitude", "geometry.location.lng"}
	hoursKeys     = []string{"hours", "opening_hours", "openingHours", "timings", "schedule"}
	hoursTextKeys = []string{"hours_text", "weekday_text", "timings_text", "opening_hours.weekday_text", "openingHours.weekdayText"}
	timezoneKeys  = []string{"timezone", "tz", "time_zone", "timeZone"}
	categoryKeys  = []string{"category", "type", "kind", "primary_type"}
	addressKeys   = []string{"address", "formatted_address", "vicinity", "location.address"}
	phoneKeys     = []string{"phone", "phone_number", "formatted_phone_number", "international_phone_number"}
	websiteKeys   = []string{"website", "url", "websiteUri"}
	ratingKeys    = []string{"rating", "stars", "score"}
	updatedKeys   = []string{"updated_at", "updatedAt", "last_updated", "modified_at"}
)

// consumed lists the top-level keys that map onto typed Place fields. Every
// other top-level key is preserved in Place.Metadata.
var consumed = func() map[string]bool {
	m := make(map[string]bool)
	groups := [][]string{idKeys, nameKeys, latKeys, lonKeys, hoursKeys, hoursTextKeys,
		timezoneKeys, categoryKeys, addressKeys, phoneKeys, websiteKeys, ratingKeys, updatedKeys}
	for _, g := range groups {
		for _, k := range g {
			m[strings.SplitN(k, ".", 2)[0]] = true
		}
	}
	m["geometry"] = true
	return m
}()

// Place maps one raw upstream record. A record without a name is rejected;
// a record without coordinates maps with HasLocation=false, and a record
// without an id gets a fresh UUID.
func Place(raw []byte) (*domain.Place, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, ErrInvalidJSON
	}

	p := &domain.Place{
		ID:       str(first(root, idKeys)),
		Name:     strings.TrimSpace(str(first(root, nameKeys))),
		Category: str(first(root, categoryKeys)),
		Address:  str(first(root, addressKeys)),
		Phone:    str(first(root, phoneKeys)),
		Website:  str(first(root, websiteKeys)),
	}
	if p.Name == "" {
		return nil, ErrNoName
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	p.Location, p.HasLocation = location(root)

	if tz := str(first(root, timezoneKeys)); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			p.Timezone = tz
		}
	}

	if r := first(root, ratingKeys); r.Exists() {
		if v, err := cast.ToFloat64E(r.Value()); err == nil && !math.IsNaN(v) {
			p.Rating = &v
		}
	}

	if r := first(root, updatedKeys); r.Exists() {
		p.UpdatedAt = timestamp(r)
	}

	hours := first(root, hoursKeys)
	p.Hours = Hours(hours)
	p.HoursText = hoursText(root)
	if p.HoursText == "" && hours.Type == gjson.String {
		p.HoursText = strings.TrimSpace(hours.String())
	}

	root.ForEach(func(key, value gjson.Result) bool {
		if consumed[key.String()] {
			return true
		}
		if p.Metadata == nil {
			p.Metadata = make(map[string]any)
		}
		p.Metadata[key.String()] = value.Value()
		return true
	})

	return p, nil
}

// Records splits a payload into individual raw records. It accepts a bare
// JSON array, a single object, or an array under data, results, places or items.
func Records(payload []byte) ([][]byte, error) {
	if !gjson.ValidBytes(payload) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(payload)

	list := root
	if root.IsObject() {
		if env := first(root, []string{"data", "results", "places", "items"}); env.IsArray() {
			list = env
		} else {
			return [][]byte{[]byte(root.Raw)}, nil
		}
	}
	if !list.IsArray() {
		return nil, ErrInvalidJSON
	}

	var out [][]byte
	for _, item := range list.Array() {
		out = append(out, []byte(item.Raw))
	}
	return out, nil
}

// first returns the first alias whose value is present and non-blank.
func first(r gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		v := r.Get(k)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if v.Type == gjson.String && strings.TrimSpace(v.String()) == "" {
			continue
		}
		return v
	}
	return gjson.Result{}
}

func str(r gjson.Result) string {
	if !r.Exists() || r.IsObject() || r.IsArray() {
		return ""
	}
	return strings.TrimSpace(cast.ToString(r.Value()))
}

func location(root gjson.Result) (domain.GeoPoint, bool) {
	lat, latOK := coord(first(root, latKeys))
	lon, lonOK := coord(first(root, lonKeys))

	// GeoJSON order is [lon, lat].
	if !latOK || !lonOK {
		if c := root.Get("location.coordinates"); c.IsArray() && len(c.Array()) >= 2 {
			lon, lonOK = coord(c.Array()[0])
			lat, latOK = coord(c.Array()[1])
		}
	}

	if !latOK || !lonOK || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, true
}

func coord(r gjson.Result) (float64, bool) {
	if !r.Exists() {
		return 0, false
	}
	v, err := cast.ToFloat64E(r.Value())
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// epochMillisFloor separates epoch seconds from epoch milliseconds: in
// seconds it lies tens of thousands of years ahead.
const epochMillisFloor = 1e12

func timestamp(r gjson.Result) time.Time {
	if r.Type == gjson.Number {
		n := r.Int()
		if n >= epochMillisFloor || n <= -epochMillisFloor {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}
	t, err := cast.ToTimeE(r.String())
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func hoursText(root gjson.Result) string {
	r := first(root, hoursTextKeys)
	if !r.Exists() {
		return ""
	}
	if r.IsArray() {
		var lines []string
		for _, line := range r.Array() {
			if s := strings.TrimSpace(line.String()); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	}
	return strings.TrimSpace(r.String())
}

// Decoder implements ports.PlaceDecoder.
type Decoder struct{}

// Decode maps raw with Place.
func (Decoder) Decode(raw []byte) (*domain.Place, error) {
	return Place(raw)
}
