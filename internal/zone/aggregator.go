package zone

import (
	"strings"
	"sync"

	"github.com/muness/unified-hifi-control/internal/events"
)

// Aggregator owns the single authoritative zone_id -> Zone map described
// in spec.md §4.2 (C2). It subscribes to the event bus and updates the
// map on zone lifecycle events; AdapterStopping flushes every zone whose
// prefix matches the stopping adapter. Read operations return snapshots;
// writers are serialized through mu, mirroring the teacher's
// Controller.apply/State split (internal/controller/controller.go).
type Aggregator struct {
	mu    sync.RWMutex
	zones map[string]Zone

	bus        *events.Bus
	subID      string
	sub        <-chan events.Event
	stop       chan struct{}
	done       chan struct{}
}

// NewAggregator creates an Aggregator and starts its bus-consuming
// goroutine. Call Close to stop it.
func NewAggregator(bus *events.Bus) *Aggregator {
	id, ch := bus.Subscribe()
	a := &Aggregator{
		zones: make(map[string]Zone),
		bus:   bus,
		subID: id,
		sub:   ch,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

// Close unsubscribes the aggregator from the bus and waits for its
// goroutine to exit. Safe to call once.
func (a *Aggregator) Close() {
	close(a.stop)
	<-a.done
	a.bus.Unsubscribe(a.subID)
}

func (a *Aggregator) run() {
	defer close(a.done)
	for {
		select {
		case <-a.stop:
			return
		case e, ok := <-a.sub:
			if !ok {
				return
			}
			a.handle(e)
		}
	}
}

// handle applies one bus event to the zone map. The critical section
// here never performs I/O or blocks — spec.md §5: "The zone aggregator's
// mutation critical sections must not contain suspension points."
func (a *Aggregator) handle(e events.Event) {
	switch e.Kind {
	case events.KindZoneDiscovered:
		z, ok := e.Payload.(Zone)
		if !ok {
			return
		}
		a.mu.Lock()
		a.zones[z.ID] = z
		a.mu.Unlock()

	case events.KindZoneUpdated:
		// ZoneUpdated carries only the zone_id; callers that mutate
		// attributes are expected to publish ZoneDiscovered with the
		// updated Zone payload (insert-or-overwrite is the same code
		// path per spec.md §4.2). A bare ZoneUpdated with no prior
		// ZoneDiscovered is a no-op — there is nothing to overwrite.

	case events.KindZoneRemoved:
		a.mu.Lock()
		delete(a.zones, e.ZoneID)
		a.mu.Unlock()

	case events.KindAdapterStopping:
		prefix := e.Prefix + ":"
		a.mu.Lock()
		for id := range a.zones {
			if strings.HasPrefix(id, prefix) {
				delete(a.zones, id)
			}
		}
		a.mu.Unlock()
		a.bus.Publish(events.ZonesFlushed(e.Prefix))
	}
}

// Zones returns a snapshot of every known zone.
func (a *Aggregator) Zones() []Zone {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Zone, 0, len(a.zones))
	for _, z := range a.zones {
		out = append(out, z)
	}
	return out
}

// Zone returns the zone with the given ID and whether it was found.
func (a *Aggregator) Zone(id string) (Zone, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	z, ok := a.zones[id]
	return z, ok
}

// Put inserts or overwrites a zone. Adapters call this (rather than
// publishing ZoneDiscovered directly) so the aggregator's map and the
// bus notification happen atomically from the adapter's point of view;
// Put itself publishes ZoneDiscovered on success.
func (a *Aggregator) Put(z Zone) {
	a.mu.Lock()
	a.zones[z.ID] = z
	a.mu.Unlock()
	a.bus.Publish(events.ZoneDiscovered(z.ID, z))
}

// Remove deletes a zone and publishes ZoneRemoved. No-op if the zone is
// not present.
func (a *Aggregator) Remove(id string) {
	a.mu.Lock()
	_, existed := a.zones[id]
	delete(a.zones, id)
	a.mu.Unlock()
	if existed {
		a.bus.Publish(events.ZoneRemoved(id))
	}
}

// Count returns the number of zones currently tracked, for /api/info-style
// diagnostics.
func (a *Aggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.zones)
}
