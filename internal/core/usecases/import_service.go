package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/pkg/metrics"
	"github.com/wanderly/wanderly/internal/pkg/telemetry"
)

// Import sources used as metric labels.
const (
	SourceAPI      = "api"
	SourceUpstream = "upstream"
	SourceWorkflow = "workflow"
)

// ImportService turns raw upstream records into stored places.
type ImportService struct {
	places    ports.PlaceRepository
	decoder   ports.PlaceDecoder
	publisher ports.EventPublisher
	cache     ports.CacheService
	source    ports.RecordSource
	clock     ports.Clock
	tracer    trace.Tracer
}

// NewImportService creates a new ImportService. publisher, cache and source
// may be nil.
func NewImportService(
	places ports.PlaceRepository,
	decoder ports.PlaceDecoder,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	source ports.RecordSource,
	clock ports.Clock,
) *ImportService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &ImportService{
		places:    places,
		decoder:   decoder,
		publisher: publisher,
		cache:     cache,
		source:    source,
		clock:     clock,
		tracer:    telemetry.Tracer("wanderly/usecases"),
	}
}

// Ingest decodes and stores a single record.
func (s *ImportService) Ingest(ctx context.Context, raw []byte) (*domain.Place, error) {
	place, err := s.decode(raw)
	if err != nil {
		metrics.ImportRecords.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("decode place: %w: %w", ports.ErrInvalidRecord, err)
	}

	if err := s.places.Upsert(ctx, place); err != nil {
		return nil, fmt.Errorf("upsert place %s: %w", place.ID, err)
	}
	metrics.ImportRecords.WithLabelValues("accepted").Inc()

	s.invalidate(ctx, place.ID)
	s.announce(ctx, place)
	return place, nil
}

// Preview decodes raws without writing anything, reporting what an import
// would accept.
func (s *ImportService) Preview(raws [][]byte) *domain.ImportSummary {
	summary, _ := s.decodeAll(raws)
	summary.Finished = s.clock.Now().UTC()
	return summary
}

// Apply decodes raws, stores the valid ones in one batch and emits a
// place-updated event for each. Rejected records do not fail the batch.
func (s *ImportService) Apply(ctx context.Context, source string, raws [][]byte) (*domain.ImportSummary, error) {
	started := s.clock.Now()
	summary, places := s.decodeAll(raws)

	ctx, span := s.tracer.Start(ctx, "ImportService.Apply", trace.WithAttributes(
		telemetry.AttrBatchID.String(summary.BatchID),
	))
	defer span.End()

	if len(places) > 0 {
		if err := s.places.UpsertBatch(ctx, places); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("upsert batch %s: %w", summary.BatchID, err)
		}
	}

	for i := range places {
		s.invalidate(ctx, places[i].ID)
		s.announce(ctx, &places[i])
	}

	metrics.ImportRecords.WithLabelValues("accepted").Add(float64(summary.Accepted))
	metrics.ImportRecords.WithLabelValues("rejected").Add(float64(summary.Rejected))

	summary.Finished = s.clock.Now().UTC()
	metrics.ImportDuration.WithLabelValues(source).Observe(summary.Finished.Sub(started).Seconds())
	span.SetAttributes(
		telemetry.AttrAccepted.Int(summary.Accepted),
		telemetry.AttrRejected.Int(summary.Rejected),
	)
	return summary, nil
}

// ImportBatch applies raws and publishes an import-completed event.
func (s *ImportService) ImportBatch(ctx context.Context, raws [][]byte) (*domain.ImportSummary, error) {
	return s.importFrom(ctx, SourceAPI, raws)
}

// Fetch pulls records changed since the given instant from the upstream source.
func (s *ImportService) Fetch(ctx context.Context, since time.Time) ([][]byte, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	raws, err := s.source.FetchUpdated(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch updated since %s: %w", since.Format(time.RFC3339), err)
	}
	return raws, nil
}

// Sync fetches changed records from upstream and imports them.
func (s *ImportService) Sync(ctx context.Context, since time.Time) (*domain.ImportSummary, error) {
	raws, err := s.Fetch(ctx, since)
	if err != nil {
		return nil, err
	}
	return s.importFrom(ctx, SourceUpstream, raws)
}

// Refresh re-fetches one place from upstream and stores it.
func (s *ImportService) Refresh(ctx context.Context, id string) (*domain.Place, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	raw, err := s.source.FetchByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch place %s: %w", id, err)
	}
	return s.Ingest(ctx, raw)
}

// Remove deletes a place and drops it from the cache.
func (s *ImportService) Remove(ctx context.Context, id string) error {
	err := s.places.Delete(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return ErrPlaceNotFound
	}
	if err != nil {
		return fmt.Errorf("delete place %s: %w", id, err)
	}
	s.invalidate(ctx, id)
	return nil
}

// PublishSummary emits the import-completed event.
func (s *ImportService) PublishSummary(ctx context.Context, summary *domain.ImportSummary) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishImportCompleted(ctx, summary); err != nil {
		return fmt.Errorf("publish import %s: %w", summary.BatchID, err)
	}
	return nil
}

func (s *ImportService) importFrom(ctx context.Context, source string, raws [][]byte) (*domain.ImportSummary, error) {
	summary, err := s.Apply(ctx, source, raws)
	if err != nil {
		return nil, err
	}
	if err := s.PublishSummary(ctx, summary); err != nil {
		slog.WarnContext(ctx, "import summary not published", "batch_id", summary.BatchID, "error", err)
	}
	return summary, nil
}

func (s *ImportService) decode(raw []byte) (*domain.Place, error) {
	place, err := s.decoder.Decode(raw)
	if err != nil {
		return nil, err
	}
	if place.UpdatedAt.IsZero() {
		place.UpdatedAt = s.clock.Now().UTC()
	}
	return place, nil
}

func (s *ImportService) decodeAll(raws [][]byte) (*domain.ImportSummary, []domain.Place) {
	summary := &domain.ImportSummary{BatchID: uuid.NewString()}
	places := make([]domain.Place, 0, len(raws))

	for i, raw := range raws {
		place, err := s.decode(raw)
		if err != nil {
			summary.Rejected++
			summary.Errors = append(summary.Errors, domain.ImportError{Index: i, Reason: err.Error()})
			continue
		}
		summary.Accepted++
		summary.PlaceIDs = append(summary.PlaceIDs, place.ID)
		places = append(places, *place)
	}
	return summary, places
}

func (s *ImportService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, placeCacheKey(id))
}

func (s *ImportService) announce(ctx context.Context, place *domain.Place) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPlaceUpdated(ctx, place); err != nil {
		slog.WarnContext(ctx, "place update not published", "place_id", place.ID, "error", err)
	}
}
