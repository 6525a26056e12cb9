// Package broadcast contains secondary.Broadcaster implementations.
package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/example/claimhub/internal/ports/secondary"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 64

// ErrClosed is returned when publishing to or subscribing on a closed broadcaster.
var ErrClosed = errors.New("broadcaster closed")

// Hub is an in-process broadcaster.
//
// Each subscriber owns a buffered queue drained by its own goroutine, so
// Publish never waits on a handler. When a queue is full the event is dropped
// and counted; the subscriber still has a pending signal and will re-fetch.
type Hub struct {
	subscribers *xsync.Map[uint64, *subscriber]
	nextID      atomic.Uint64
	buffer      int

	// lifecycle orders subscriber registration against Close so wg.Add
	// never runs concurrently with wg.Wait.
	lifecycle sync.Mutex
	closed    atomic.Bool
	wg        sync.WaitGroup

	metrics secondary.Metrics
	logger  secondary.Logger
}

var _ secondary.Broadcaster = (*Hub)(nil)

// NewHub creates a hub. buffer <= 0 uses DefaultBuffer.
func NewHub(buffer int, metrics secondary.Metrics, logger secondary.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subscribers: xsync.NewMap[uint64, *subscriber](),
		buffer:      buffer,
		metrics:     metrics,
		logger:      logger,
	}
}

// Publish queues event for every subscriber without blocking.
func (h *Hub) Publish(_ context.Context, event secondary.Event) error {
	if h.closed.Load() {
		return ErrClosed
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	h.subscribers.Range(func(id uint64, sub *subscriber) bool {
		if !sub.trySend(event) {
			h.metrics.IncBroadcastDropped()
			h.logger.Debug("dropped notification for slow subscriber",
				"subscriber", id, "topic", event.Topic)
		}
		return true
	})
	return nil
}

// Subscribe registers handler. Handlers run on a goroutine owned by the
// subscription and must not call Close on the hub.
func (h *Hub) Subscribe(ctx context.Context, handler func(secondary.Event)) (secondary.Subscription, error) {
	h.lifecycle.Lock()
	if h.closed.Load() {
		h.lifecycle.Unlock()
		return nil, ErrClosed
	}
	id := h.nextID.Add(1)
	sub := &subscriber{ch: make(chan secondary.Event, h.buffer), stop: make(chan struct{})}
	h.subscribers.Store(id, sub)
	h.wg.Add(1)
	h.lifecycle.Unlock()

	go func() {
		defer h.wg.Done()
		for event := range sub.ch {
			handler(event)
		}
	}()

	handle := &hubSubscription{hub: h, id: id}

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				handle.Unsubscribe()
			case <-sub.stop:
			}
		}()
	}

	return handle, nil
}

// Close stops every subscription and waits for in-flight handlers to return.
func (h *Hub) Close() error {
	h.lifecycle.Lock()
	if h.closed.Load() {
		h.lifecycle.Unlock()
		return nil
	}
	h.closed.Store(true)
	h.lifecycle.Unlock()

	h.subscribers.Range(func(id uint64, _ *subscriber) bool {
		h.remove(id)
		return true
	})
	h.wg.Wait()
	return nil
}

// subscriberCount returns the number of active subscriptions.
func (h *Hub) subscriberCount() int {
	return h.subscribers.Size()
}

func (h *Hub) remove(id uint64) {
	if sub, ok := h.subscribers.LoadAndDelete(id); ok {
		sub.close()
	}
}

type subscriber struct {
	ch     chan secondary.Event
	stop   chan struct{}
	mu     sync.Mutex
	closed bool
}

// trySend queues event without blocking. It reports false when the event was dropped.
func (s *subscriber) trySend(event secondary.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}

	select {
	case s.ch <- event:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	close(s.stop)
}

type hubSubscription struct {
	hub *Hub
	id  uint64
}

func (s *hubSubscription) Unsubscribe() error {
	s.hub.remove(s.id)
	return nil
}
