package roonadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/apperr"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

func newLogicAgainst(t *testing.T, srv *httptest.Server, bus *events.Bus, agg *zone.Aggregator) *Logic {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return NewLogic(u.Hostname(), port, bus, agg)
}

func TestLogicPrefixAndCapabilities(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("127.0.0.1", 0, bus, agg)
	if l.Prefix() != "roon" {
		t.Fatalf("Prefix() = %q", l.Prefix())
	}
	if !l.Capabilities().Has(adapter.CapGrouping) {
		t.Fatal("expected CapGrouping for a Roon-style adapter")
	}
}

func TestLogicControlRejectsUnknownZone(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("127.0.0.1", 0, bus, agg)
	err := l.Control(context.Background(), "lms:not-mine", adapter.ActionPlay, 0)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestLogicPollOnceDiscoversAndFlushesZones(t *testing.T) {
	zoneIDs := []string{"z1", "z2"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := make([]RoonZone, 0, len(zoneIDs))
		for _, id := range zoneIDs {
			out = append(out, RoonZone{ZoneID: id, DisplayName: id, State: "playing"})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := newLogicAgainst(t, srv, bus, agg)

	l.pollOnce(context.Background())
	if got := agg.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}

	zoneIDs = []string{"z1"}
	l.pollOnce(context.Background())
	if got := agg.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1 after z2 disappears", got)
	}
	if _, ok := agg.Zone("roon:z2"); ok {
		t.Fatal("expected roon:z2 to be flushed")
	}
}

func TestLogicNowPlayingUnknownZone(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("127.0.0.1", 0, bus, agg)
	_, err := l.NowPlaying(context.Background(), "lms:other")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
