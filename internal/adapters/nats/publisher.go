package natsadapter

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/wanderly/wanderly/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishPlaceUpdated(ctx context.Context, place *domain.Place) error {
	data, err := json.Marshal(place)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectPlaceUpdated+place.ID, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishImportCompleted(ctx context.Context, summary *domain.ImportSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectImportCompleted, data, nats.Context(ctx))
	return err
}

// PublishRaw queues an upstream record for the ingestor.
func (p *Publisher) PublishRaw(ctx context.Context, source string, raw []byte) error {
	_, err := p.js.Publish("places.raw."+source, raw, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for readiness checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
