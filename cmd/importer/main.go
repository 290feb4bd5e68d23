// Command importer runs the Temporal worker for the place import workflow
// and starts an incremental sync every upstream.sync_interval.
package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/wanderly/wanderly/internal/adapters/mapping"
	natsadapter "github.com/wanderly/wanderly/internal/adapters/nats"
	"github.com/wanderly/wanderly/internal/adapters/postgres"
	"github.com/wanderly/wanderly/internal/adapters/upstream"
	"github.com/wanderly/wanderly/internal/adapters/valkey"
	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/core/usecases"
	"github.com/wanderly/wanderly/internal/pkg/config"
	"github.com/wanderly/wanderly/internal/pkg/logging"
	"github.com/wanderly/wanderly/internal/workflows"
)

func main() {
	cfg, err := config.Load("wanderly-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Upstream.BaseURL == "" {
		log.Fatal("upstream.base_url is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix); err != nil {
		slog.Warn("valkey unavailable, cache invalidation disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	source, err := upstream.New(upstream.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		APIKey:     cfg.Upstream.APIKey,
		Timeout:    cfg.Upstream.Timeout,
		MaxRetries: cfg.Upstream.MaxRetries,
	})
	if err != nil {
		log.Fatalf("upstream: %v", err)
	}

	imports := usecases.NewImportService(postgres.NewPlaceRepo(db), mapping.Decoder{}, publisher, cache, source, nil)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.PlaceImportWorkflow)
	w.RegisterActivity(&workflows.ImportActivities{Imports: imports})

	if err := w.Start(); err != nil {
		log.Fatalf("worker: %v", err)
	}
	defer w.Stop()

	slog.Info("importer worker started", "task_queue", cfg.Temporal.TaskQueue, "interval", cfg.Upstream.SyncInterval)
	schedule(ctx, c, cfg.Temporal.TaskQueue, cfg.Upstream.SyncInterval)
	slog.Info("importer stopped")
}

// schedule starts one import per interval. Each run asks for records changed
// since the previous successful run began; the first run is a full sync.
func schedule(ctx context.Context, c client.Client, taskQueue string, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	var since time.Time
	run := func() {
		startedAt := time.Now().UTC()
		opts := client.StartWorkflowOptions{
			ID:        "place-import-" + startedAt.Format("20060102T150405Z"),
			TaskQueue: taskQueue,
		}
		we, err := c.ExecuteWorkflow(ctx, opts, workflows.PlaceImportWorkflow, workflows.ImportInput{Since: since})
		if err != nil {
			slog.Error("start import workflow", "error", err)
			return
		}

		var summary domain.ImportSummary
		if err := we.Get(ctx, &summary); err != nil {
			slog.Error("import workflow failed", "workflow_id", we.GetID(), "error", err)
			return
		}
		since = startedAt
		slog.Info("import workflow finished",
			"workflow_id", we.GetID(),
			"batch_id", summary.BatchID,
			"accepted", summary.Accepted,
			"rejected", summary.Rejected,
		)
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
