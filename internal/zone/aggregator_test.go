package zone_test

import (
	"testing"
	"time"

	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

func waitForCount(t *testing.T, agg *zone.Aggregator, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if agg.Count() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("aggregator count never reached %d, got %d", want, agg.Count())
}

func TestAggregatorPrefixRouting(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	agg.Put(zone.Zone{ID: "hqp:main", Name: "Main"})
	waitForCount(t, agg, 1)

	for _, z := range agg.Zones() {
		if z.Prefix() != "hqp" {
			t.Errorf("zone %q: prefix = %q, want hqp", z.ID, z.Prefix())
		}
	}
}

func TestAggregatorFlushOnAdapterStopping(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	agg.Put(zone.Zone{ID: "hqp:main", Name: "Main"})
	agg.Put(zone.Zone{ID: "hqp:zone2", Name: "Zone 2"})
	agg.Put(zone.Zone{ID: "roon:living-room", Name: "Living Room"})
	waitForCount(t, agg, 3)

	_, flushed := bus.Subscribe()
	bus.Publish(events.AdapterStopping("hqp"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if agg.Count() == 1 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	zones := agg.Zones()
	if len(zones) != 1 || zones[0].Prefix() != "roon" {
		t.Fatalf("expected only roon zones to survive, got %+v", zones)
	}

	var sawFlushed bool
	timeout := time.After(time.Second)
	for !sawFlushed {
		select {
		case e := <-flushed:
			if e.Kind == events.KindZonesFlushed && e.Prefix == "hqp" {
				sawFlushed = true
			}
		case <-timeout:
			t.Fatal("never observed ZonesFlushed(hqp)")
		}
	}
}

func TestAggregatorZoneLookupAndRemove(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	agg.Put(zone.Zone{ID: "lms:kitchen", Name: "Kitchen"})
	waitForCount(t, agg, 1)

	z, ok := agg.Zone("lms:kitchen")
	if !ok || z.Name != "Kitchen" {
		t.Fatalf("Zone lookup failed: %+v, %v", z, ok)
	}

	agg.Remove("lms:kitchen")
	waitForCount(t, agg, 0)

	if _, ok := agg.Zone("lms:kitchen"); ok {
		t.Fatal("expected zone to be removed")
	}
}

func TestPrefixExtraction(t *testing.T) {
	cases := map[string]string{
		"hqp:main":       "hqp",
		"roon:living":    "roon",
		"no-colon-here":  "",
		"upnp:a:b":       "upnp",
	}
	for id, want := range cases {
		if got := zone.Prefix(id); got != want {
			t.Errorf("Prefix(%q) = %q, want %q", id, got, want)
		}
	}
}
