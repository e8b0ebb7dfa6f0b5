package events_test

import (
	"testing"
	"time"

	"github.com/muness/unified-hifi-control/internal/events"
)

func TestBusSubscribePublish(t *testing.T) {
	bus := events.New()

	_, ch := bus.Subscribe()

	bus.Publish(events.ZoneUpdated("hqp:main"))

	select {
	case got := <-ch:
		if got.Kind != events.KindZoneUpdated || got.ZoneID != "hqp:main" {
			t.Errorf("got %+v, want ZoneUpdated for hqp:main", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := events.New()
	id, ch := bus.Subscribe()

	bus.Unsubscribe(id)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBusUnsubscribeUnknownIsNoop(t *testing.T) {
	bus := events.New()
	bus.Unsubscribe("does-not-exist")
}

func TestBusDropsEventsWhenFull(t *testing.T) {
	bus := events.New()
	_, ch := bus.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(events.ZoneUpdated("hqp:main"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Publish blocked for too long (should drop events)")
	}

	_ = ch
}

func TestBusSubscriberCount(t *testing.T) {
	bus := events.New()
	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	id1, _ := bus.Subscribe()
	_, _ = bus.Subscribe()
	if n := bus.SubscriberCount(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
	bus.Unsubscribe(id1)
	if n := bus.SubscriberCount(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}

func TestBusShuttingDownObservedByAllSubscribers(t *testing.T) {
	bus := events.New()
	const n = 8
	chans := make([]<-chan events.Event, n)
	for i := range chans {
		_, chans[i] = bus.Subscribe()
	}

	bus.Publish(events.ShuttingDown())

	for i, ch := range chans {
		select {
		case e := <-ch:
			if e.Kind != events.KindShuttingDown {
				t.Errorf("subscriber %d: got kind %q, want ShuttingDown", i, e.Kind)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d: did not observe ShuttingDown", i)
		}
	}
}
