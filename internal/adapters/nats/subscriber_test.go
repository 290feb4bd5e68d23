package natsadapter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"github.com/wanderly/wanderly/internal/adapters/mapping"
	"github.com/wanderly/wanderly/internal/core/ports"
)

type recordedAck struct{ calls []string }

func (r *recordedAck) Ack(...nats.AckOpt) error  { r.calls = append(r.calls, "ack"); return nil }
func (r *recordedAck) Nak(...nats.AckOpt) error  { r.calls = append(r.calls, "nak"); return nil }
func (r *recordedAck) Term(...nats.AckOpt) error { r.calls = append(r.calls, "term"); return nil }

func TestSettle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"handled", nil, "ack"},
		{"unnamed record", fmt.Errorf("decode place: %w: %w", ports.ErrInvalidRecord, mapping.ErrNoName), "term"},
		{"not json", fmt.Errorf("decode place: %w: %w", ports.ErrInvalidRecord, mapping.ErrInvalidJSON), "term"},
		{"storage down", fmt.Errorf("upsert place p1: %w", errors.New("connection refused")), "nak"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &recordedAck{}
			settle(context.Background(), msg, SubjectRawPlaces, tt.err)
			assert.Equal(t, []string{tt.want}, msg.calls)
		})
	}
}
