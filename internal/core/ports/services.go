package ports

import (
	"context"
	"time"

	"github.com/wanderly/wanderly/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPlaceUpdated(ctx context.Context, place *domain.Place) error
	PublishImportCompleted(ctx context.Context, summary *domain.ImportSummary) error
}

// EventSubscriber subscribes to raw upstream records from a message broker.
type EventSubscriber interface {
	SubscribeRawPlaces(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Clock supplies the current time. Services never call time.Now directly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// PlaceDecoder turns one raw upstream record into a Place.
type PlaceDecoder interface {
	Decode(raw []byte) (*domain.Place, error)
}
