package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/wanderly/wanderly/internal/core/ports"
	"github.com/wanderly/wanderly/internal/core/usecases"
)

// Pinger is anything a readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Places   *usecases.PlaceService
	Schedule *usecases.ScheduleService
	Imports  *usecases.ImportService
	Database Pinger
	Cache    Pinger
	NATS     *nats.Conn
	Clock    ports.Clock

	// RateLimit is requests per minute per IP; zero disables the limiter.
	RateLimit int
	// AdminToken, when set, is required as a bearer token on write endpoints.
	AdminToken string
}
