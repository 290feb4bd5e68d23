package natsadapter

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects used by the place pipeline.
const (
	SubjectRawPlaces       = "places.raw.>"
	SubjectPlaceUpdated    = "places.updated."
	SubjectImportCompleted = "places.import.completed"
)

var streams = []nats.StreamConfig{
	{
		Name:      "PLACES_RAW",
		Subjects:  []string{"places.raw.>"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
	{
		Name:      "PLACE_EVENTS",
		Subjects:  []string{"places.updated.>", "places.import.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// connect dials NATS with reconnects and ensures the place streams exist.
func connect(url string) (*nats.Conn, nats.JetStreamContext, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	for _, cfg := range streams {
		cfg := cfg
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, so try an update.
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return conn, js, nil
}
