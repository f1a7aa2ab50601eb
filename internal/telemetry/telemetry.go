// Package telemetry records allocation-pipeline events on a best-effort
// basis. Recording never blocks or fails the allocation path: queue overflow
// drops events and sink errors are logged and swallowed.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

type EventKind string

const (
	EventRejection     EventKind = "rejection"
	EventAssignment    EventKind = "assignment"
	EventHoldCreated   EventKind = "hold_created"
	EventHoldReleased  EventKind = "hold_released"
	EventHoldConfirmed EventKind = "hold_confirmed"
)

type Event struct {
	Kind         EventKind
	BookingID    string
	RestaurantID string
	HoldID       string
	TableIDs     []string
	Rejection    *domain.Rejection
	Strategy     *domain.Strategy
	At           time.Time
}

// Recorder is the engine-facing write interface.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Sink persists events; the postgres sink lives in storage. Sink errors are
// the recorder's problem, never the caller's.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}

// AsyncRecorder drains a buffered channel into a sink from a single worker
// goroutine. Enqueueing is non-blocking: a full queue drops the event.
type AsyncRecorder struct {
	sink   Sink
	logger *slog.Logger
	events chan Event
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func NewAsyncRecorder(sink Sink, logger *slog.Logger, queueSize int) *AsyncRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &AsyncRecorder{
		sink:   sink,
		logger: logger,
		events: make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r
}

func (r *AsyncRecorder) Record(_ context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.events <- event:
	default:
		r.logger.Warn("telemetry queue full, dropping event", "kind", event.Kind, "booking_id", event.BookingID)
	}
}

func (r *AsyncRecorder) drain() {
	defer close(r.done)
	for event := range r.events {
		// Detached context: the originating request may be long gone.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.sink.Write(ctx, event); err != nil {
			r.logger.Warn("telemetry write failed", "kind", event.Kind, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for the queue to flush.
func (r *AsyncRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}
