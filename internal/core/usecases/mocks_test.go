package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/ports"
)

// --- Mock PlaceRepository ---

type mockPlaceRepo struct {
	upsertFn      func(ctx context.Context, place *domain.Place) error
	upsertBatchFn func(ctx context.Context, places []domain.Place) error
	getByIDFn     func(ctx context.Context, id string) (*domain.Place, error)
	findNearbyFn  func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error)
	deleteFn      func(ctx context.Context, id string) error
}

func (m *mockPlaceRepo) Upsert(ctx context.Context, place *domain.Place) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, place)
	}
	return nil
}

func (m *mockPlaceRepo) UpsertBatch(ctx context.Context, places []domain.Place) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, places)
	}
	return nil
}

func (m *mockPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

func (m *mockPlaceRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, center, radius, limit)
	}
	return nil, nil
}

func (m *mockPlaceRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes []string
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deletes = append(c.deletes, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	updated   []string
	summaries []*domain.ImportSummary
	err       error
}

func (p *mockPublisher) PublishPlaceUpdated(ctx context.Context, place *domain.Place) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, place.ID)
	return p.err
}

func (p *mockPublisher) PublishImportCompleted(ctx context.Context, summary *domain.ImportSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, summary)
	return p.err
}

// --- Mock RecordSource ---

type mockSource struct {
	fetchUpdatedFn func(ctx context.Context, since time.Time) ([][]byte, error)
	fetchByIDFn    func(ctx context.Context, id string) ([]byte, error)
}

func (s *mockSource) FetchUpdated(ctx context.Context, since time.Time) ([][]byte, error) {
	if s.fetchUpdatedFn != nil {
		return s.fetchUpdatedFn(ctx, since)
	}
	return nil, nil
}

func (s *mockSource) FetchByID(ctx context.Context, id string) ([]byte, error) {
	if s.fetchByIDFn != nil {
		return s.fetchByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

// 2024-01-01 was a Monday.
func monday(h, m int) time.Time {
	return time.Date(2024, 1, 1, h, m, 0, 0, time.UTC)
}

func officeHours() domain.WeeklyHours {
	var w domain.WeeklyHours
	for wd := 1; wd <= 5; wd++ {
		w = append(w, domain.DailyHours{Weekday: wd, Intervals: []domain.HoursInterval{
			{Start: domain.Clock(9, 0), End: domain.Clock(17, 0)},
		}})
	}
	return w
}
