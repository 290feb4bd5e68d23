package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/wanderly/wanderly/internal/pkg/metrics"
)

// Version is reported by /v1/health and the X-API-Version header.
const Version = "1.0.0"

const requestTimeout = 15 * time.Second

// deprecatedRoutes lists endpoints kept only for older clients.
var deprecatedRoutes = []DeprecatedRoute{
	{
		Path:        "/v1/places/:id/open",
		SunsetDate:  time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC),
		Alternative: "/v1/places/{id}/status",
	},
}

// SetupRoutes registers all REST and GraphQL routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	if deps.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
			},
		}))
	}

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", Version)
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(deprecatedRoutes))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/places/nearby", timeout.NewWithContext(NearbyPlacesHandler(deps), requestTimeout))
	v1.Get("/places/:id", timeout.NewWithContext(GetPlaceHandler(deps), requestTimeout))
	v1.Get("/places/:id/status", timeout.NewWithContext(PlaceStatusHandler(deps), requestTimeout))
	v1.Get("/places/:id/open", timeout.NewWithContext(PlaceStatusHandler(deps), requestTimeout))
	v1.Post("/hours/evaluate", EvaluateHoursHandler(deps))
	v1.Get("/distance", DistanceHandler(deps))

	// Write endpoints
	admin := AdminOnly(deps.AdminToken)
	v1.Post("/places/import", admin, timeout.NewWithContext(ImportPlacesHandler(deps), time.Minute))
	v1.Post("/places/sync", admin, timeout.NewWithContext(SyncPlacesHandler(deps), 5*time.Minute))
	v1.Post("/places/:id/refresh", admin, timeout.NewWithContext(RefreshPlaceHandler(deps), requestTimeout))
	v1.Delete("/places/:id", admin, timeout.NewWithContext(DeletePlaceHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)
}
