package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/pkg/metrics"
	"github.com/wanderly/wanderly/internal/pkg/telemetry"
)

const (
	maxNearbyLimit  = 50
	defaultRadiusM  = 1000.0
	maxRadiusM      = 20000.0
	placeCacheTTL   = 600
	openNowOverscan = 4
)

// StatusQuery controls how a place card is rendered. A nil Origin skips the
// distance; negative precisions mean the configured default.
type StatusQuery struct {
	Origin      *domain.GeoPoint
	Unit        domain.Unit
	PrecisionKm int
	PrecisionMi int
}

// NearbyQuery selects places around Center.
type NearbyQuery struct {
	Center       domain.GeoPoint
	RadiusMeters float64
	Limit        int
	OpenNow      bool
	Unit         domain.Unit
}

// PlaceService renders place cards: open/closed status and distance.
type PlaceService struct {
	places   ports.PlaceRepository
	cache    ports.CacheService
	clock    ports.Clock
	schedule *ScheduleService
	tracer   trace.Tracer
}

// NewPlaceService creates a new PlaceService. cache may be nil.
func NewPlaceService(places ports.PlaceRepository, cache ports.CacheService, clock ports.Clock, schedule *ScheduleService) *PlaceService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if schedule == nil {
		schedule = NewScheduleService(DefaultDisplay())
	}
	return &PlaceService{
		places:   places,
		cache:    cache,
		clock:    clock,
		schedule: schedule,
		tracer:   telemetry.Tracer("wanderly/usecases"),
	}
}

// GetByID returns a single place.
func (s *PlaceService) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	cacheKey := placeCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var place domain.Place
			if err := json.Unmarshal(data, &place); err == nil {
				metrics.CacheHits.WithLabelValues("place").Inc()
				return &place, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("place").Inc()
	}

	place, err := s.places.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get place %s: %w", id, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(place); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, placeCacheTTL)
		}
	}

	return place, nil
}

// Status evaluates a place's hours in its own time zone at the current
// instant and, when an origin is given, how far away it is.
func (s *PlaceService) Status(ctx context.Context, id string, q StatusQuery) (*domain.PlaceStatus, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceService.Status", trace.WithAttributes(telemetry.AttrPlaceID.String(id)))
	defer span.End()

	if q.Origin != nil && !validPoint(*q.Origin) {
		return nil, fmt.Errorf("%w: origin out of range", ErrInvalidQuery)
	}

	place, err := s.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrPlaceNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lookup failed")
		}
		return nil, err
	}

	status := s.status(place, q.Origin, q.Unit, q.PrecisionKm, q.PrecisionMi)
	span.SetAttributes(telemetry.AttrPlaceOpen.Bool(status.IsOpen))
	return status, nil
}

// Nearby returns place cards around q.Center, nearest first. With OpenNow
// only places open at this instant are kept.
func (s *PlaceService) Nearby(ctx context.Context, q NearbyQuery) ([]domain.PlaceStatus, error) {
	if !validPoint(q.Center) {
		return nil, fmt.Errorf("%w: center out of range", ErrInvalidQuery)
	}
	if q.Limit <= 0 || q.Limit > maxNearbyLimit {
		q.Limit = maxNearbyLimit
	}
	if q.RadiusMeters <= 0 || math.IsNaN(q.RadiusMeters) {
		q.RadiusMeters = defaultRadiusM
	}
	if q.RadiusMeters > maxRadiusM {
		q.RadiusMeters = maxRadiusM
	}

	ctx, span := s.tracer.Start(ctx, "PlaceService.Nearby", trace.WithAttributes(
		telemetry.AttrRadius.Float64(q.RadiusMeters),
		telemetry.AttrUnit.String(string(q.Unit)),
	))
	defer span.End()

	fetch := q.Limit
	if q.OpenNow {
		fetch = q.Limit * openNowOverscan
	}

	places, err := s.places.FindNearby(ctx, q.Center, q.RadiusMeters, fetch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find nearby failed")
		return nil, fmt.Errorf("find nearby places: %w", err)
	}

	out := make([]domain.PlaceStatus, 0, min(len(places), q.Limit))
	for i := range places {
		status := s.status(&places[i], &q.Center, q.Unit, -1, -1)
		if q.OpenNow && !status.IsOpen {
			continue
		}
		out = append(out, *status)
		if len(out) == q.Limit {
			break
		}
	}

	span.SetAttributes(telemetry.AttrResultCount.Int(len(out)))
	return out, nil
}

func (s *PlaceService) status(place *domain.Place, origin *domain.GeoPoint, unit domain.Unit, precKm, precMi int) *domain.PlaceStatus {
	now := s.clock.Now().In(place.TimeLocation())
	hours := s.schedule.Evaluate(place.Hours, now)

	status := &domain.PlaceStatus{
		Place:       place,
		IsOpen:      hours.IsOpen,
		Next:        hours.Next,
		Label:       hours.Label,
		ClosingSoon: hours.ClosingSoon,
		EvaluatedAt: now,
	}

	if origin != nil && place.HasLocation {
		d := s.schedule.Distance(*origin, place.Location, unit, precKm, precMi)
		status.DistanceMeters = &d.Meters
		status.DistanceLabel = d.Label
	}
	return status
}

func placeCacheKey(id string) string {
	return "places:id:" + id
}

func validPoint(p domain.GeoPoint) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}
