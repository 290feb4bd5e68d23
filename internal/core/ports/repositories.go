package ports

import (
	"context"
	"errors"
	"time"

	"github.com/wanderly/wanderly/internal/core/domain"
)

// PlaceRepository persists places.
type PlaceRepository interface {
	Upsert(ctx context.Context, place *domain.Place) error
	UpsertBatch(ctx context.Context, places []domain.Place) error
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	// FindNearby returns places within radiusMeters of center, nearest first,
	// with Distance populated.
	FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error)
	Delete(ctx context.Context, id string) error
}

// RecordSource fetches raw place records from the upstream data-access API.
type RecordSource interface {
	FetchUpdated(ctx context.Context, since time.Time) ([][]byte, error)
	FetchByID(ctx context.Context, id string) ([]byte, error)
}

var (
	// ErrNotFound is returned by repositories when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRecord marks a raw record that can never be decoded.
	ErrInvalidRecord = errors.New("invalid record")
)
