package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/usecases"
)

// ImportActivities holds the activity implementations for the place import workflow.
type ImportActivities struct {
	Imports *usecases.ImportService
}

// SyncRecords pulls records changed since input.Since from upstream and
// stores the valid ones. The batch is refused with a non-retryable
// ErrTypeTooManyRejected error, before anything is written, when the share of
// undecodable records exceeds input.MaxRejectRatio.
func (a *ImportActivities) SyncRecords(ctx context.Context, input ImportInput) (*domain.ImportSummary, error) {
	records, err := a.Imports.Fetch(ctx, input.Since)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	if len(records) == 0 {
		return &domain.ImportSummary{}, nil
	}

	preview := a.Imports.Preview(records)
	if ratio := float64(preview.Rejected) / float64(len(records)); ratio > input.MaxRejectRatio {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("%d of %d records rejected", preview.Rejected, len(records)),
			ErrTypeTooManyRejected, nil)
	}

	summary, err := a.Imports.Apply(ctx, usecases.SourceWorkflow, records)
	if err != nil {
		return nil, fmt.Errorf("apply records: %w", err)
	}
	slog.InfoContext(ctx, "records synced",
		"batch_id", summary.BatchID, "fetched", len(records), "accepted", summary.Accepted)
	return summary, nil
}

// PublishSummary announces a finished import.
func (a *ImportActivities) PublishSummary(ctx context.Context, summary *domain.ImportSummary) error {
	if err := a.Imports.PublishSummary(ctx, summary); err != nil {
		return err
	}
	slog.InfoContext(ctx, "import summary published",
		"batch_id", summary.BatchID, "accepted", summary.Accepted, "rejected", summary.Rejected)
	return nil
}
