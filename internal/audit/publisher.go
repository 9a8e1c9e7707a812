package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sink receives finalized audit events. Implementations: the in-memory store
// (tests, single-process deployments) and the Kafka producer.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher finalizes and forwards audit events to a sink.
type Publisher struct {
	sink Sink
}

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

// Emit stamps missing identity/timestamp fields and appends the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.sink.Append(ctx, event)
}
