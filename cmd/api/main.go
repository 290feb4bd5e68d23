package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/wanderly/wanderly/internal/adapters/http"
	"github.com/wanderly/wanderly/internal/adapters/mapping"
	"github.com/wanderly/wanderly/internal/adapters/memory"
	natsadapter "github.com/wanderly/wanderly/internal/adapters/nats"
	"github.com/wanderly/wanderly/internal/adapters/postgres"
	"github.com/wanderly/wanderly/internal/adapters/upstream"
	"github.com/wanderly/wanderly/internal/adapters/valkey"
	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/core/usecases"
	"github.com/wanderly/wanderly/internal/pkg/config"
	"github.com/wanderly/wanderly/internal/pkg/geospatial"
	"github.com/wanderly/wanderly/internal/pkg/logging"
	"github.com/wanderly/wanderly/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("wanderly-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{
		RateLimit:  cfg.Server.RateLimit,
		AdminToken: cfg.Server.AdminToken,
	}

	// Storage
	var places ports.PlaceRepository
	switch cfg.Database.Driver {
	case "memory":
		repo := memory.NewPlaceRepo()
		places, deps.Database = repo, repo
		slog.Warn("using in-memory place store; data is lost on restart")
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolStats(ctx, 15*time.Second)
		places, deps.Database = postgres.NewPlaceRepo(db), db
	}

	// Cache
	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix); err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		defer vc.Close()
		cache, deps.Cache = vc, vc
	}

	// NATS
	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher, deps.NATS = pub, pub.Conn()
	}

	// Upstream directory
	var source ports.RecordSource
	if cfg.Upstream.BaseURL != "" {
		client, err := upstream.New(upstream.Config{
			BaseURL:    cfg.Upstream.BaseURL,
			APIKey:     cfg.Upstream.APIKey,
			Timeout:    cfg.Upstream.Timeout,
			MaxRetries: cfg.Upstream.MaxRetries,
		})
		if err != nil {
			log.Fatalf("upstream: %v", err)
		}
		source = client
	}

	clock := ports.SystemClock{}
	schedule := usecases.NewScheduleService(displayOptions(cfg.Display))

	deps.Schedule = schedule
	deps.Places = usecases.NewPlaceService(places, cache, clock, schedule)
	deps.Imports = usecases.NewImportService(places, mapping.Decoder{}, publisher, cache, source, clock)
	deps.Clock = clock

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // imports can be large
		AppName:      "Wanderly API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "store", cfg.Database.Driver, "upstream", source != nil)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func displayOptions(d config.DisplayConfig) usecases.DisplayOptions {
	opts := usecases.DefaultDisplay()
	if d.DefaultUnit != "" {
		opts.Unit = geospatial.ParseUnit(d.DefaultUnit)
	}
	opts.PrecisionKm = d.PrecisionKm
	opts.PrecisionMi = d.PrecisionMi
	if w := d.ClosingSoonWindow(); w > 0 {
		opts.SoonWindow = w
	}
	return opts
}
