package audit

import (
	"context"
	"fmt"
	"time"
)

// Worker consumes audit events from a channel and persists them. It keeps
// background processing off the request path while staying testable
// without queue infrastructure.
type Worker struct {
	publisher *Publisher
	inbox     <-chan Event
}

func NewWorker(publisher *Publisher, inbox <-chan Event) *Worker {
	return &Worker{publisher: publisher, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil {
				return err
			}
		}
	}
}

// Inbox is the producer side of a Worker channel. It satisfies the
// services' publisher interface while keeping persistence off the request
// path. When the buffer is full the event is dropped rather than stalling
// the request.
type Inbox struct {
	ch chan<- Event
}

// NewInbox creates a buffered channel pair for an Inbox and its Worker.
func NewInbox(buffer int) (*Inbox, <-chan Event) {
	ch := make(chan Event, buffer)
	return &Inbox{ch: ch}, ch
}

func (i *Inbox) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case i.ch <- event:
		return nil
	default:
		return fmt.Errorf("audit inbox full, event %s dropped", event.Action)
	}
}
