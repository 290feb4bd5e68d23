package natsadapter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/wanderly/wanderly/internal/core/ports"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and makes sure the streams exist.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeRawPlaces delivers raw upstream records to handler. A handler
// error naks the message so JetStream redelivers it, up to 3 attempts,
// unless it wraps ports.ErrInvalidRecord: such records are terminated.
func (s *Subscriber) SubscribeRawPlaces(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	sub, err := s.js.Subscribe(SubjectRawPlaces, func(msg *nats.Msg) {
		settle(ctx, msg, msg.Subject, handler(ctx, msg.Data))
	},
		nats.Durable("place-ingestor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// acker is the part of *nats.Msg that settles a JetStream delivery.
type acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

func settle(ctx context.Context, msg acker, subject string, err error) {
	switch {
	case err == nil:
		_ = msg.Ack()
	case errors.Is(err, ports.ErrInvalidRecord):
		slog.WarnContext(ctx, "raw place dropped", "subject", subject, "error", err)
		_ = msg.Term()
	default:
		slog.WarnContext(ctx, "raw place rejected", "subject", subject, "error", err)
		_ = msg.Nak()
	}
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
