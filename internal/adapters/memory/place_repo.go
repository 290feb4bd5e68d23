// Package memory holds process-local adapters used for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/pkg/geospatial"
)

// PlaceRepo implements ports.PlaceRepository in memory.
type PlaceRepo struct {
	mu     sync.RWMutex
	places map[string]domain.Place
}

// NewPlaceRepo creates an empty PlaceRepo.
func NewPlaceRepo() *PlaceRepo {
	return &PlaceRepo{places: make(map[string]domain.Place)}
}

// Upsert inserts or replaces a place by ID.
func (r *PlaceRepo) Upsert(ctx context.Context, p *domain.Place) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.places[p.ID] = clonePlace(*p)
	return nil
}

// UpsertBatch inserts or replaces many places.
func (r *PlaceRepo) UpsertBatch(ctx context.Context, places []domain.Place) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range places {
		r.places[p.ID] = clonePlace(p)
	}
	return nil
}

// GetByID returns a copy of the stored place.
func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.places[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	p = clonePlace(p)
	return &p, nil
}

// FindNearby scans all places, keeping those inside an s2 spherical cap of
// radiusMeters around center.
func (r *PlaceRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error) {
	origin := s2.PointFromLatLng(s2.LatLngFromDegrees(center.Lat, center.Lon))
	area := s2.CapFromCenterAngle(origin, s1.Angle(radiusMeters/geospatial.EarthRadiusMeters))

	r.mu.RLock()
	var out []domain.Place
	for _, p := range r.places {
		if !p.HasLocation {
			continue
		}
		if !area.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(p.Location.Lat, p.Location.Lon))) {
			continue
		}
		p = clonePlace(p)
		d := geospatial.DistanceMeters(center, p.Location)
		p.Distance = &d
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if *out[i].Distance == *out[j].Distance {
			return out[i].ID < out[j].ID
		}
		return *out[i].Distance < *out[j].Distance
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a place.
func (r *PlaceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.places[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.places, id)
	return nil
}

// Ping always succeeds; it lets the repo stand in for a database in
// readiness checks.
func (r *PlaceRepo) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored places.
func (r *PlaceRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.places)
}

func clonePlace(p domain.Place) domain.Place {
	if p.Hours != nil {
		hours := make(domain.WeeklyHours, len(p.Hours))
		for i, d := range p.Hours {
			d.Intervals = append([]domain.HoursInterval(nil), d.Intervals...)
			hours[i] = d
		}
		p.Hours = hours
	}
	if p.Metadata != nil {
		md := make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			md[k] = v
		}
		p.Metadata = md
	}
	p.Distance = nil
	return p
}
