package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subBufferSize is the per-subscriber ring size. spec.md §4.1 recommends
// "a bounded ring of ≥256 in-flight events per subscriber ... to absorb
// bursts from poll cycles."
const subBufferSize = 256

// shutdownDeliveryWindow/shutdownRetryInterval bound how long Publish
// will keep retrying a full subscriber channel for KindShuttingDown
// before giving up on it — long enough that a subscriber merely behind
// on its ring catches up, short enough that a genuinely stuck/leaked
// subscriber can't hang shutdown indefinitely.
const (
	shutdownDeliveryWindow = 2 * time.Second
	shutdownRetryInterval  = 10 * time.Millisecond
)

// Bus is a non-blocking, multi-producer multi-subscriber broadcast of
// Event values. Delivery is best-effort: a subscriber that falls behind
// has events dropped for it rather than blocking the publisher, except
// for ShuttingDown, which Publish retries against a full channel for up
// to shutdownDeliveryWindow instead of dropping it on the first full
// buffer — since the coordinator publishes it before awaiting any
// handle ACK (see adapter.Coordinator.Shutdown), this gives every
// still-draining subscriber a real chance to observe it.
//
// Subscription is cheap; callers are expected to defer Unsubscribe,
// mirroring the teacher's SSE handler.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan Event
}

// New creates a new, empty event bus.
func New() *Bus {
	return &Bus{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscription and returns its generated ID
// (useful for logging) and its receive channel.
func (b *Bus) Subscribe() (id string, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id = uuid.NewString()
	c := make(chan Event, subBufferSize)
	b.subs[id] = c
	return id, c
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// more than once or with an unknown ID (no-op).
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish broadcasts an event to every current subscriber. For every
// Kind but ShuttingDown this never blocks: a full subscriber channel has
// the event dropped for it. Per spec.md §5, a single producer's events
// arrive at each subscriber in the order Publish was called, since
// Publish iterates and sends under the bus lock on every call.
//
// ShuttingDown is handled separately by publishShutdown, since it is
// the one event every subscriber must observe.
func (b *Bus) Publish(e Event) {
	if e.Kind == KindShuttingDown {
		b.publishShutdown(e)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Slow subscriber — drop rather than block the publisher.
		}
	}
}

// publishShutdown delivers e to every current subscriber, retrying a
// full channel instead of dropping it immediately. Each attempt
// re-checks subscriber membership under the bus lock and releases it
// before sleeping, so a concurrent Unsubscribe is never blocked behind
// this and a channel it has already removed/closed is never written to.
func (b *Bus) publishShutdown(e Event) {
	b.mu.Lock()
	pending := make([]string, 0, len(b.subs))
	for id := range b.subs {
		pending = append(pending, id)
	}
	b.mu.Unlock()

	deadline := time.Now().Add(shutdownDeliveryWindow)
	for len(pending) > 0 && time.Now().Before(deadline) {
		var retry []string
		b.mu.Lock()
		for _, id := range pending {
			ch, ok := b.subs[id]
			if !ok {
				continue // unsubscribed meanwhile; nothing left to deliver to
			}
			select {
			case ch <- e:
			default:
				retry = append(retry, id)
			}
		}
		b.mu.Unlock()

		pending = retry
		if len(pending) > 0 {
			time.Sleep(shutdownRetryInterval)
		}
	}

	if len(pending) > 0 {
		slog.Warn("events: ShuttingDown not delivered to every subscriber before deadline", "count", len(pending))
	}
}

// SubscriberCount returns the number of currently active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
