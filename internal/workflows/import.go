package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/wanderly/wanderly/internal/core/domain"
)

// DefaultMaxRejectRatio is used when ImportInput leaves MaxRejectRatio unset.
const DefaultMaxRejectRatio = 0.5

// ErrTypeTooManyRejected marks a batch refused before anything was stored.
const ErrTypeTooManyRejected = "TooManyRejected"

// ImportInput is the input for the place import workflow.
type ImportInput struct {
	Since          time.Time
	MaxRejectRatio float64
}

// PlaceImportWorkflow syncs changed records from upstream in one activity,
// which refuses the batch when too many of them fail to decode, then announces
// the result. Raw records stay inside the worker: only the summary is
// recorded in workflow history. A failed announcement does not fail the
// import.
func PlaceImportWorkflow(ctx workflow.Context, input ImportInput) (*domain.ImportSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting place import workflow", "since", input.Since)

	if input.MaxRejectRatio <= 0 {
		input.MaxRejectRatio = DefaultMaxRejectRatio
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Fetch, validate and store
	var summary domain.ImportSummary
	if err := workflow.ExecuteActivity(ctx, "SyncRecords", input).Get(ctx, &summary); err != nil {
		return nil, err
	}
	if summary.Accepted+summary.Rejected == 0 {
		logger.Info("Nothing to import")
		return &summary, nil
	}

	// Step 2: Announce
	if err := workflow.ExecuteActivity(ctx, "PublishSummary", &summary).Get(ctx, nil); err != nil {
		logger.Warn("import summary not published", "batchID", summary.BatchID, "error", err)
	}

	logger.Info("Place import finished", "batchID", summary.BatchID, "accepted", summary.Accepted, "rejected", summary.Rejected)
	return &summary, nil
}
