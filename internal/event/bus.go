package event

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultPoolSize = 1024
	defaultTimeout  = 10 * time.Second
)

// Event is a session lifecycle event.
type Event interface {
	Name() string
	SessionCode() string
}

type Handler func(ctx context.Context, e Event) error

// Bus fans lifecycle events out to subscribers on a bounded pool of goroutines.
// Delivery order across events is not guaranteed.
type Bus struct {
	pool     chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

// Option configures a Bus.
type Option func(*Bus)

// WithPoolSize bounds the number of handlers running at once.
func WithPoolSize(n int) Option {
	return func(b *Bus) { b.pool = make(chan struct{}, n) }
}

// NewBus creates a bus. Call Stop to wait for in-flight handlers on shutdown.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		pool:     make(chan struct{}, defaultPoolSize),
		handlers: make(map[string][]Handler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for events with the given name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish dispatches e to its subscribers without waiting for them. It never
// blocks: when the pool is exhausted the delivery is dropped and logged.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, h := range b.handlers[e.Name()] {
		b.dispatch(ctx, h, e)
	}
	for _, h := range b.all {
		b.dispatch(ctx, h, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	select {
	case b.pool <- struct{}{}:
	default:
		log.Warn().
			Str("event", e.Name()).
			Str("code", e.SessionCode()).
			Msg("event: handler pool exhausted, dropping delivery")
		return
	}
	b.wg.Add(1)

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Err(fmt.Errorf("%v, stack: %s", r, debug.Stack())).
					Str("event", e.Name()).
					Msg("event: handler panic")
			}
			cancel()
			<-b.pool
			b.wg.Done()
		}()

		if err := h(ctx, e); err != nil {
			log.Error().Err(err).
				Str("event", e.Name()).
				Str("code", e.SessionCode()).
				Msg("event: handle event failed")
		}
	}()
}

// Stop waits for all dispatched handlers to finish.
func (b *Bus) Stop() {
	b.wg.Wait()
}
