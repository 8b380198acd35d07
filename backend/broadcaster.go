package backend

import (
	"context"
	"sync"

	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/logger"
)

const subscriberBuffer = 64

type subscriber struct {
	filter events.Filter
}

// Broadcaster fans out events from a single upstream channel to all subscribers.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan events.Event]subscriber
	closed  bool
}

// NewBroadcaster starts a broadcaster that reads from upstream and fans out to
// all subscribers. It stops when ctx is cancelled or upstream is closed, and
// then closes every subscriber channel.
func NewBroadcaster(ctx context.Context, upstream <-chan events.Event) *Broadcaster {
	b := &Broadcaster{
		clients: make(map[chan events.Event]subscriber),
	}
	go b.run(ctx, upstream)
	return b
}

// Subscribe registers a subscriber receiving every event.
func (b *Broadcaster) Subscribe() chan events.Event {
	return b.SubscribeFunc(nil)
}

// SubscribeFunc registers a subscriber receiving the events passing filter.
// A nil filter passes everything. Subscribing to a stopped broadcaster
// returns a closed channel.
func (b *Broadcaster) SubscribeFunc(filter events.Filter) chan events.Event {
	ch := make(chan events.Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.clients[ch] = subscriber{filter: filter}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; !ok {
		return
	}
	delete(b.clients, ch)
	close(ch)
}

func (b *Broadcaster) broadcast(e events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, sub := range b.clients {
		if sub.filter != nil && !sub.filter(e) {
			continue
		}
		deliver(ch, e)
	}
}

// deliver queues e on ch, dropping the oldest queued event when the
// subscriber lags behind. The newest event is never the one dropped.
func deliver(ch chan events.Event, e events.Event) {
	for {
		select {
		case ch <- e:
			return
		default:
		}
		select {
		case old := <-ch:
			logger.Warn("[backend] subscriber channel full, dropping %s event", old.Type)
		default:
		}
	}
}

func (b *Broadcaster) run(ctx context.Context, upstream <-chan events.Event) {
	defer b.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-upstream:
			if !ok {
				return
			}
			b.broadcast(e)
		}
	}
}

func (b *Broadcaster) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.clients {
		delete(b.clients, ch)
		close(ch)
	}
}

// newBroadcasterFromBackend broadcasts the registry notifications of b.
func newBroadcasterFromBackend(ctx context.Context, b *Backend) *Broadcaster {
	return NewBroadcaster(ctx, b.Registry.Notifications())
}
