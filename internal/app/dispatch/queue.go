// Package dispatch fans gateway events out to per-component queues. Each
// queue has a single consumer, so a component sees its events one at a
// time and in arrival order, while a slow component never stalls another.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/steward/internal/core"
)

const DefaultQueueSize = 256

var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)

type Consumer interface {
	Handle(ctx context.Context, ev core.Event)
}

type ConsumerFunc func(ctx context.Context, ev core.Event)

func (f ConsumerFunc) Handle(ctx context.Context, ev core.Event) { f(ctx, ev) }

type Queue struct {
	name     string
	consumer Consumer
	events   chan core.Event

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

func NewQueue(name string, size int, consumer Consumer) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{name: name, consumer: consumer, events: make(chan core.Event, size)}
}

func (q *Queue) Name() string { return q.name }

// Dropped counts events TryPush rejected because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Push enqueues ev, blocking while the queue is full.
func (q *Queue) Push(ctx context.Context, ev core.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPush enqueues ev without waiting. A full queue rejects the event with
// ErrFull and counts it as dropped.
func (q *Queue) TryPush(ev core.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.events <- ev:
		return nil
	default:
		q.dropped.Add(1)
		return ErrFull
	}
}

// Close stops accepting events. Run drains what is already queued.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.events)
}

// Run consumes events until the queue is closed or ctx is done. A panic in
// the consumer is logged and the next event is processed.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-q.events:
			if !ok {
				return nil
			}
			q.deliver(ctx, ev)
		}
	}
}

func (q *Queue) deliver(ctx context.Context, ev core.Event) {
	id := uuid.NewString()
	logger := log.With().Str("module", "app.dispatch").Str("queue", q.name).Str("event", id).Logger()
	logger.Debug().Str("kind", ev.Kind()).Msg("dispatching")

	var pc panics.Catcher
	pc.Try(func() { q.consumer.Handle(logger.WithContext(ctx), ev) })
	if rec := pc.Recovered(); rec != nil {
		logger.Error().Err(rec.AsError()).Str("kind", ev.Kind()).Msg("handler panicked")
	}
}

// Dispatcher routes events by kind. An event may be routed to several
// queues; kinds nobody subscribed to are dropped. Publish never waits on a
// queue: it runs on the gateway's event goroutine, so an event for a
// backed-up component is dropped instead.
type Dispatcher struct {
	mu     sync.RWMutex
	routes map[string][]*Queue
	queues []*Queue
}

func New() *Dispatcher {
	return &Dispatcher{routes: make(map[string][]*Queue)}
}

func (d *Dispatcher) Route(q *Queue, kinds ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	known := false
	for _, existing := range d.queues {
		if existing == q {
			known = true
			break
		}
	}
	if !known {
		d.queues = append(d.queues, q)
	}
	for _, kind := range kinds {
		d.routes[kind] = append(d.routes[kind], q)
	}
}

func (d *Dispatcher) Publish(_ context.Context, ev core.Event) {
	d.mu.RLock()
	targets := d.routes[ev.Kind()]
	d.mu.RUnlock()

	if len(targets) == 0 {
		log.Debug().Str("module", "app.dispatch").Str("kind", ev.Kind()).Msg("no route for event")
		return
	}
	for _, q := range targets {
		if err := q.TryPush(ev); err != nil {
			log.Warn().Err(err).
				Str("module", "app.dispatch").
				Str("queue", q.Name()).
				Str("kind", ev.Kind()).
				Uint64("dropped", q.Dropped()).
				Msg("event dropped")
		}
	}
}

// Run starts every routed queue and blocks until ctx is done and the queues
// have returned.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.RLock()
	queues := append([]*Queue(nil), d.queues...)
	d.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, q := range queues {
		g.Go(func() error { return q.Run(ctx) })
	}
	return g.Wait()
}
