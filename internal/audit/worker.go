package audit

import (
	"context"
	"log/slog"
)

// Worker buffers audit events and drains them to a sink off the request
// path. Emit never blocks a request: when the buffer is full the event is
// dropped and counted in the log, which is acceptable for ops-tier auditing.
type Worker struct {
	sink   Sink
	logger *slog.Logger
	buffer chan Event
	done   chan struct{}
}

// NewWorker creates a buffered async worker in front of sink.
func NewWorker(sink Sink, bufferSize int, logger *slog.Logger) *Worker {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Worker{
		sink:   sink,
		logger: logger,
		buffer: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Append enqueues the event without blocking.
func (w *Worker) Append(ctx context.Context, event Event) error {
	select {
	case w.buffer <- event:
		return nil
	default:
		w.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"record_id", event.RecordID,
		)
		return nil
	}
}

// Run drains the buffer until ctx is canceled, then flushes what remains.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.done)
	for {
		select {
		case event := <-w.buffer:
			w.deliver(event)
		case <-ctx.Done():
			for {
				select {
				case event := <-w.buffer:
					w.deliver(event)
				default:
					return nil
				}
			}
		}
	}
}

// Wait blocks until Run has returned.
func (w *Worker) Wait() {
	<-w.done
}

func (w *Worker) deliver(event Event) {
	// Delivery uses its own context: request contexts are gone by now.
	if err := w.sink.Append(context.Background(), event); err != nil {
		w.logger.Error("audit delivery failed",
			"action", event.Action,
			"record_id", event.RecordID,
			"error", err,
		)
	}
}
