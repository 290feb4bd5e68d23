// Command ingestor consumes raw place records from NATS JetStream and stores
// them.
//
//	ingestor                      consume places.raw.> until interrupted
//	ingestor <file.json>...       import files directly
//	ingestor queue <file.json>... publish file records to places.raw.file
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wanderly/wanderly/internal/adapters/mapping"
	natsadapter "github.com/wanderly/wanderly/internal/adapters/nats"
	"github.com/wanderly/wanderly/internal/adapters/postgres"
	"github.com/wanderly/wanderly/internal/adapters/valkey"
	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/core/usecases"
	"github.com/wanderly/wanderly/internal/pkg/config"
	"github.com/wanderly/wanderly/internal/pkg/logging"
)

type runMode int

const (
	modeConsume runMode = iota
	modeImport
	modeQueue
)

var errQueueUsage = errors.New("usage: ingestor queue <file.json>...")

// parseArgs picks the run mode from the command line (without the program
// name) and returns the files it applies to.
func parseArgs(args []string) (runMode, []string, error) {
	switch {
	case len(args) == 0:
		return modeConsume, nil, nil
	case args[0] == "queue":
		if len(args) == 1 {
			return 0, nil, errQueueUsage
		}
		return modeQueue, args[1:], nil
	default:
		return modeImport, args, nil
	}
}

func main() {
	mode, files, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load("wanderly-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

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

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	imports := usecases.NewImportService(postgres.NewPlaceRepo(db), mapping.Decoder{}, pub, cache, nil, nil)

	switch mode {
	case modeQueue:
		for _, path := range files {
			if err := queueFile(ctx, pub, path); err != nil {
				slog.Error("queue failed", "file", path, "error", err)
			}
		}
		return
	case modeImport:
		for _, path := range files {
			if err := importFile(ctx, imports, path); err != nil {
				slog.Error("import failed", "file", path, "error", err)
			}
		}
		return
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeRawPlaces(ctx, func(ctx context.Context, raw []byte) error {
		place, err := imports.Ingest(ctx, raw)
		if err != nil {
			return err
		}
		slog.DebugContext(ctx, "place ingested", "place_id", place.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("ingestor listening", "subject", natsadapter.SubjectRawPlaces)
	<-ctx.Done()
	slog.Info("ingestor stopped")
}

func readRecords(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return mapping.Records(data)
}

func queueFile(ctx context.Context, pub *natsadapter.Publisher, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	for i, raw := range records {
		if err := pub.PublishRaw(ctx, "file", raw); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	slog.Info("file queued", "file", path, "records", len(records))
	return nil
}

func importFile(ctx context.Context, imports *usecases.ImportService, path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	summary, err := imports.ImportBatch(ctx, records)
	if err != nil {
		return err
	}
	slog.Info("file imported",
		"file", path,
		"batch_id", summary.BatchID,
		"accepted", summary.Accepted,
		"rejected", summary.Rejected,
	)
	return nil
}
