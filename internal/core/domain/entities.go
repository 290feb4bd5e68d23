package domain

import (
	"time"
)

// Place is a venue shown on a place card (restaurant, museum, trailhead...).
type Place struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category,omitempty"`
	Location    GeoPoint       `json:"location"`
	HasLocation bool           `json:"has_location"`
	Address     string         `json:"address,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Website     string         `json:"website,omitempty"`
	Timezone    string         `json:"timezone,omitempty"` // IANA name; empty means UTC
	Hours       WeeklyHours    `json:"hours,omitempty"`
	HoursText   string         `json:"hours_text,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Distance    *float64       `json:"distance,omitempty"` // computed field, meters
	UpdatedAt   time.Time      `json:"updated_at"`
}

// HasSchedule reports whether the place carries structured opening hours.
func (p *Place) HasSchedule() bool {
	return len(p.Hours) > 0
}

// TimeLocation returns the place's time zone, falling back to UTC for an empty or
// unknown name.
func (p *Place) TimeLocation() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PlaceStatus is the computed open/closed and distance summary for one place.
type PlaceStatus struct {
	Place          *Place      `json:"place"`
	IsOpen         bool        `json:"is_open"`
	Next           *Transition `json:"next_transition"`
	Label          string      `json:"label"`
	ClosingSoon    bool        `json:"closing_soon"`
	DistanceMeters *float64    `json:"distance_meters,omitempty"`
	DistanceLabel  string      `json:"distance_label,omitempty"`
	EvaluatedAt    time.Time   `json:"evaluated_at"`
}

// ImportError describes one rejected upstream record.
type ImportError struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// ImportSummary reports the outcome of ingesting a batch of raw records.
type ImportSummary struct {
	BatchID  string        `json:"batch_id"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
	PlaceIDs []string      `json:"place_ids,omitempty"`
	Errors   []ImportError `json:"errors,omitempty"`
	Finished time.Time     `json:"finished_at"`
}
