// Package dispatch fans decoded events out to handlers, listeners and subscriptions.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/model"
)

const defaultTracerName = "github.com/luciancaetano/shardnet/dispatch"

// AllEvents registers a handler for every event.
const AllEvents = "*"

// Handler processes one event.
type Handler func(ctx context.Context, shard shardnet.ShardID, event model.Event)

// Delivery is an event as received by a Subscription.
type Delivery struct {
	Shard shardnet.ShardID
	Event model.Event
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTracerProvider sets the provider spans are started from. Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) {
		d.tracer = tp.Tracer(defaultTracerName)
	}
}

// WithLogger sets the logger handler panics are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// Dispatcher delivers events synchronously and in order: handlers for the event name,
// then handlers for AllEvents, then listeners, then subscriptions. A Dispatcher is itself a
// shardnet.Listener, so dispatchers can be chained.
type Dispatcher struct {
	tracer trace.Tracer
	logger *slog.Logger

	mu        sync.RWMutex
	handlers  map[string][]Handler
	listeners []shardnet.Listener
	subs      []*Subscription
}

var _ shardnet.Listener = (*Dispatcher)(nil)

// New returns an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tracer:   otel.Tracer(defaultTracerName),
		logger:   slog.Default(),
		handlers: make(map[string][]Handler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// On registers h for events named name, or for every event with AllEvents.
func (d *Dispatcher) On(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// AddListener registers l for every event.
func (d *Dispatcher) AddListener(l shardnet.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Subscribe returns a subscription with room for buffer undelivered events. Events that
// arrive while the subscription is full are dropped and counted by Missed, so a slow
// subscriber never holds up the dispatching shard.
func (d *Dispatcher) Subscribe(buffer int) *Subscription {
	s := &Subscription{
		d:    d,
		ch:   make(chan Delivery, buffer),
		done: make(chan struct{}),
	}

	d.mu.Lock()
	d.subs = append(d.subs, s)
	d.mu.Unlock()
	return s
}

func (d *Dispatcher) unsubscribe(s *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = slices.DeleteFunc(d.subs, func(other *Subscription) bool { return other == s })
}

// Handle delivers event to everything registered.
func (d *Dispatcher) Handle(ctx context.Context, shard shardnet.ShardID, event model.Event) {
	name := event.EventName()
	ctx, span := d.tracer.Start(ctx, "dispatch "+name,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("shardnet.event", name),
			attribute.Int("shardnet.shard", int(shard.Number)),
		),
	)
	defer span.End()

	d.mu.RLock()
	handlers := slices.Concat(d.handlers[name], d.handlers[AllEvents])
	listeners := slices.Clone(d.listeners)
	subs := slices.Clone(d.subs)
	d.mu.RUnlock()

	for _, h := range handlers {
		d.call(ctx, span, name, func() { h(ctx, shard, event) })
	}
	for _, l := range listeners {
		d.call(ctx, span, name, func() { l.Handle(ctx, shard, event) })
	}

	delivered := 0
	for _, s := range subs {
		if s.deliver(Delivery{Shard: shard, Event: event}) {
			delivered++
		}
	}

	span.SetAttributes(
		attribute.Int("shardnet.handlers", len(handlers)+len(listeners)),
		attribute.Int("shardnet.subscriptions", delivered),
	)
}

func (d *Dispatcher) call(ctx context.Context, span trace.Span, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("handler panicked: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			d.logger.ErrorContext(ctx, "event handler panicked", "event", name, "panic", r)
		}
	}()
	fn()
}

// Subscription receives events on a channel.
type Subscription struct {
	d      *Dispatcher
	ch     chan Delivery
	done   chan struct{}
	once   sync.Once
	missed atomic.Uint64
}

// Events returns the delivery channel. It is not closed by Close; select on Done as well.
func (s *Subscription) Events() <-chan Delivery {
	return s.ch
}

// Done is closed once the subscription is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Missed returns how many events were dropped because the subscription was full.
func (s *Subscription) Missed() uint64 {
	return s.missed.Load()
}

// Close stops deliveries. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.d.unsubscribe(s)
	})
}

// deliver never blocks: a full subscription misses the event.
func (s *Subscription) deliver(dl Delivery) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- dl:
		return true
	default:
		s.missed.Add(1)
		return false
	}
}
