// Package upstream fetches raw place records from the external places API,
// behind a circuit breaker and exponential retry.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/wanderly/wanderly/internal/pkg/metrics"
)

var (
	// ErrCircuitOpen is returned without calling upstream while the breaker is open.
	ErrCircuitOpen = errors.New("upstream: circuit breaker is open")
	// ErrNoBaseURL is returned by New when no base URL is configured.
	ErrNoBaseURL = errors.New("upstream: base url is required")
)

// Config configures the upstream client.
type Config struct {
	BaseURL string
	APIKey  string

	// Timeout bounds each HTTP attempt. Default 10s.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt. Default 3.
	MaxRetries uint64
	// InitialInterval and MaxInterval shape the exponential backoff.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// OpenTimeout is how long the breaker stays open before probing. Default 60s.
	OpenTimeout time.Duration
	// TripAfter is the minimum request count before the failure ratio can
	// trip the breaker. Default 5.
	TripAfter uint32
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 60 * time.Second
	}
	if c.TripAfter == 0 {
		c.TripAfter = 5
	}
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: %s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client is a resilient reader of the upstream places API.
type Client struct {
	base    *url.URL
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	cfg     Config
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base url: %w", err)
	}
	cfg.applyDefaults()

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "upstream-places",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.TripAfter && ratio >= 0.5
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.UpstreamCircuitState.Set(breakerGauge(to))
		},
		// Client errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Temporary()
			}
			return err == nil
		},
	})

	return &Client{
		base:    base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		cfg:     cfg,
	}, nil
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// get fetches target, retrying network errors, 5xx and 429 with backoff.
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var body []byte
	operation := func() error {
		b, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, target)
		})
		switch {
		case err == nil:
			metrics.UpstreamRequests.WithLabelValues("ok").Inc()
			body = b
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.UpstreamRequests.WithLabelValues("circuit_open").Inc()
			return backoff.Permanent(ErrCircuitOpen)
		}

		var se *StatusError
		if errors.As(err, &se) {
			if !se.Temporary() {
				metrics.UpstreamRequests.WithLabelValues("client_error").Inc()
				return backoff.Permanent(err)
			}
			metrics.UpstreamRequests.WithLabelValues("server_error").Inc()
			return err
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		metrics.UpstreamRequests.WithLabelValues("network_error").Inc()
		return err
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: target}
	}
	return io.ReadAll(resp.Body)
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
