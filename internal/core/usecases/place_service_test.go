package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/core/usecases"
)

var plazaMoyua = domain.GeoPoint{Lat: 43.2620, Lon: -2.9350}

func newPlaceService(repo ports.PlaceRepository, cache ports.CacheService, now time.Time) *usecases.PlaceService {
	return usecases.NewPlaceService(repo, cache, ports.FixedClock{T: now}, usecases.NewScheduleService(usecases.DefaultDisplay()))
}

func TestPlaceService_GetByID_ReadThroughCache(t *testing.T) {
	calls := 0
	repo := &mockPlaceRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Place, error) {
			calls++
			return &domain.Place{ID: id, Name: "Guggenheim"}, nil
		},
	}
	cache := newMockCache()
	svc := newPlaceService(repo, cache, monday(10, 0))

	for i := 0; i < 3; i++ {
		p, err := svc.GetByID(context.Background(), "g1")
		require.NoError(t, err)
		assert.Equal(t, "Guggenheim", p.Name)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.sets)
}

func TestPlaceService_GetByID_NotFound(t *testing.T) {
	svc := newPlaceService(&mockPlaceRepo{}, nil, monday(10, 0))

	_, err := svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, usecases.ErrPlaceNotFound)
}

func TestPlaceService_GetByID_WrapsRepositoryErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &mockPlaceRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Place, error) { return nil, boom },
	}
	svc := newPlaceService(repo, nil, monday(10, 0))

	_, err := svc.GetByID(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, usecases.ErrPlaceNotFound)
}

func TestPlaceService_Status_UsesPlaceTimezone(t *testing.T) {
	repo := &mockPlaceRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Place, error) {
			return &domain.Place{
				ID:          id,
				Name:        "Tsukiji Sushi",
				Timezone:    "Asia/Tokyo",
				Hours:       officeHours(),
				Location:    domain.GeoPoint{Lat: 35.6655, Lon: 139.7707},
				HasLocation: true,
			}, nil
		},
	}
	// Sunday 23:30 UTC is Monday 08:30 in Tokyo.
	svc := newPlaceService(repo, nil, time.Date(2023, 12, 31, 23, 30, 0, 0, time.UTC))

	status, err := svc.Status(context.Background(), "t1", usecases.StatusQuery{PrecisionKm: -1, PrecisionMi: -1})
	require.NoError(t, err)
	assert.False(t, status.IsOpen)
	require.NotNil(t, status.Next)
	assert.Equal(t, domain.Transition{Kind: domain.TransitionOpens, Time: domain.Clock(9, 0), DayOffset: 0}, *status.Next)
	assert.Equal(t, "Closed · Opens 09:00", status.Label)
	assert.Equal(t, "Asia/Tokyo", status.EvaluatedAt.Location().String())
	assert.Nil(t, status.DistanceMeters)
}

func TestPlaceService_Status_WithOrigin(t *testing.T) {
	repo := &mockPlaceRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Place, error) {
			return &domain.Place{ID: id, Name: "Café Iruña", Hours: officeHours(), Location: domain.GeoPoint{Lat: 43.2630, Lon: -2.9350}, HasLocation: true}, nil
		},
	}
	svc := newPlaceService(repo, nil, monday(16, 30))

	status, err := svc.Status(context.Background(), "c1", usecases.StatusQuery{
		Origin: &plazaMoyua, Unit: domain.UnitImperial, PrecisionKm: -1, PrecisionMi: -1,
	})
	require.NoError(t, err)
	assert.True(t, status.IsOpen)
	assert.True(t, status.ClosingSoon)
	require.NotNil(t, status.DistanceMeters)
	assert.InDelta(t, 111.2, *status.DistanceMeters, 0.5)
	assert.Equal(t, "365 ft", status.DistanceLabel)
}

func TestPlaceService_Status_InvalidOrigin(t *testing.T) {
	svc := newPlaceService(&mockPlaceRepo{}, nil, monday(10, 0))

	_, err := svc.Status(context.Background(), "x", usecases.StatusQuery{Origin: &domain.GeoPoint{Lat: 95, Lon: 0}})
	assert.ErrorIs(t, err, usecases.ErrInvalidQuery)
}

func TestPlaceService_Nearby_ClampsLimitAndRadius(t *testing.T) {
	var gotRadius float64
	var gotLimit int
	repo := &mockPlaceRepo{
		findNearbyFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error) {
			gotRadius, gotLimit = radius, limit
			return nil, nil
		},
	}
	svc := newPlaceService(repo, nil, monday(10, 0))

	tests := []struct {
		radius     float64
		limit      int
		wantRadius float64
		wantLimit  int
	}{
		{0, 0, 1000, 50},
		{-5, 100, 1000, 50},
		{500, 10, 500, 10},
		{1e6, 50, 20000, 50},
	}
	for _, tt := range tests {
		_, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Center: plazaMoyua, RadiusMeters: tt.radius, Limit: tt.limit})
		require.NoError(t, err)
		assert.Equal(t, tt.wantRadius, gotRadius)
		assert.Equal(t, tt.wantLimit, gotLimit)
	}
}

func TestPlaceService_Nearby_OpenNowFilters(t *testing.T) {
	var gotLimit int
	repo := &mockPlaceRepo{
		findNearbyFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error) {
			gotLimit = limit
			return []domain.Place{
				{ID: "closed", Name: "No hours", Location: plazaMoyua, HasLocation: true},
				{ID: "open-1", Name: "Office", Hours: officeHours(), Location: domain.GeoPoint{Lat: 43.2630, Lon: -2.9350}, HasLocation: true},
				{ID: "open-2", Name: "Office 2", Hours: officeHours(), Location: domain.GeoPoint{Lat: 43.2640, Lon: -2.9350}, HasLocation: true},
			}, nil
		},
	}
	svc := newPlaceService(repo, nil, monday(10, 0))

	got, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Center: plazaMoyua, Limit: 1, OpenNow: true})
	require.NoError(t, err)
	assert.Equal(t, 4, gotLimit)
	require.Len(t, got, 1)
	assert.Equal(t, "open-1", got[0].Place.ID)
	assert.True(t, got[0].IsOpen)
	assert.Equal(t, "111 m", got[0].DistanceLabel)
}

func TestPlaceService_Nearby_KeepsClosedWithoutFilter(t *testing.T) {
	repo := &mockPlaceRepo{
		findNearbyFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error) {
			return []domain.Place{
				{ID: "a", Name: "A", Location: plazaMoyua, HasLocation: true},
				{ID: "b", Name: "B", Hours: officeHours(), Location: plazaMoyua, HasLocation: true},
			}, nil
		},
	}
	svc := newPlaceService(repo, nil, monday(20, 0))

	got, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Center: plazaMoyua})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Closed", got[0].Label)
	assert.Equal(t, "Closed · Opens tomorrow 09:00", got[1].Label)
	assert.Equal(t, "0 m", got[0].DistanceLabel)
}

func TestPlaceService_Nearby_InvalidCenter(t *testing.T) {
	svc := newPlaceService(&mockPlaceRepo{}, nil, monday(10, 0))

	_, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Center: domain.GeoPoint{Lat: 0, Lon: 200}})
	assert.ErrorIs(t, err, usecases.ErrInvalidQuery)
}
