package usecases

import (
	"time"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/openhours"
	"github.com/wanderly/wanderly/internal/pkg/geospatial"
	"github.com/wanderly/wanderly/internal/pkg/metrics"
)

// DisplayOptions are the defaults used when a request does not say how to
// render distances or what counts as closing soon.
type DisplayOptions struct {
	Unit        domain.Unit
	PrecisionKm int
	PrecisionMi int
	SoonWindow  time.Duration
}

// DefaultDisplay is one decimal in both unit systems and a one-hour window.
func DefaultDisplay() DisplayOptions {
	return DisplayOptions{
		Unit:        domain.UnitMetric,
		PrecisionKm: 1,
		PrecisionMi: 1,
		SoonWindow:  openhours.DefaultSoonWindow,
	}
}

// HoursResult is an evaluation plus its rendered status line.
type HoursResult struct {
	IsOpen      bool               `json:"is_open"`
	Next        *domain.Transition `json:"next_transition"`
	Label       string             `json:"label"`
	ClosingSoon bool               `json:"closing_soon"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
}

// DistanceResult is a great-circle distance and its display label.
type DistanceResult struct {
	Meters float64     `json:"meters"`
	Label  string      `json:"label"`
	Unit   domain.Unit `json:"unit"`
}

// ScheduleService evaluates opening hours and formats distances. It holds no
// state beyond its display defaults.
type ScheduleService struct {
	display DisplayOptions
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(display DisplayOptions) *ScheduleService {
	if display.Unit == "" {
		display.Unit = domain.UnitMetric
	}
	return &ScheduleService{display: display}
}

// Display returns the configured defaults.
func (s *ScheduleService) Display() DisplayOptions {
	return s.display
}

// Evaluate reports whether weekly is open at now, read in now's location.
func (s *ScheduleService) Evaluate(weekly domain.WeeklyHours, now time.Time) HoursResult {
	ev := openhours.Evaluate(weekly, now)

	switch {
	case len(weekly) == 0:
		metrics.HoursEvaluations.WithLabelValues("no_schedule").Inc()
	case ev.IsOpen:
		metrics.HoursEvaluations.WithLabelValues("open").Inc()
	default:
		metrics.HoursEvaluations.WithLabelValues("closed").Inc()
	}

	return HoursResult{
		IsOpen:      ev.IsOpen,
		Next:        ev.Next,
		Label:       openhours.Describe(ev, now, s.display.SoonWindow),
		ClosingSoon: openhours.ClosingSoon(ev, domain.WallClockOf(now), s.display.SoonWindow),
		EvaluatedAt: now,
	}
}

// Distance measures a to b and renders it. An empty unit or a negative
// precision falls back to the configured default.
func (s *ScheduleService) Distance(a, b domain.GeoPoint, unit domain.Unit, precisionKm, precisionMi int) DistanceResult {
	if unit == "" {
		unit = s.display.Unit
	}
	if unit != domain.UnitImperial {
		unit = domain.UnitMetric
	}
	if precisionKm < 0 {
		precisionKm = s.display.PrecisionKm
	}
	if precisionMi < 0 {
		precisionMi = s.display.PrecisionMi
	}

	meters := geospatial.DistanceMeters(a, b)
	metrics.DistanceFormats.WithLabelValues(string(unit)).Inc()

	return DistanceResult{
		Meters: meters,
		Label:  geospatial.Format(meters, unit, precisionKm, precisionMi),
		Unit:   unit,
	}
}
