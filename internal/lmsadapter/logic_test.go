package lmsadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

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
	if l.Prefix() != "lms" {
		t.Fatalf("Prefix() = %q", l.Prefix())
	}
	caps := l.Capabilities()
	if !caps.Has(adapter.CapImages) || !caps.Has(adapter.CapSeek) {
		t.Fatalf("capabilities = %v, want CapImages|CapSeek", caps)
	}
	if caps.Has(adapter.CapPipeline) {
		t.Fatal("lms zones are not DSP-linked")
	}
}

func TestLogicControlRejectsUnknownZone(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("127.0.0.1", 0, bus, agg)
	err := l.Control(context.Background(), "hqp:not-mine", adapter.ActionPlay, 0)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// TestLogicPollOnceDiscoversAndFlushesPlayers exercises the full poll
// cycle against a fake server: a first tick discovers two players and
// publishes zones; a second tick with one player gone removes its zone.
func TestLogicPollOnceDiscoversAndFlushesPlayers(t *testing.T) {
	playerIDs := []string{"aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		cmd, _ := req.Params[1].([]any)

		var result any
		if len(cmd) > 0 && cmd[0] == "players" {
			loop := make([]map[string]any, 0, len(playerIDs))
			for _, id := range playerIDs {
				loop = append(loop, map[string]any{"playerid": id, "name": id, "ip": "10.0.0.1", "connected": 1})
			}
			result = map[string]any{"count": len(playerIDs), "players_loop": loop}
		} else {
			result = map[string]any{"mode": "play", "time": 1.0, "duration": 100.0, "mixer volume": 50.0}
		}
		resultBytes, _ := json.Marshal(result)
		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: resultBytes})
	}))
	defer srv.Close()

	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := newLogicAgainst(t, srv, bus, agg)

	l.pollOnce(context.Background())
	time.Sleep(10 * time.Millisecond) // let the aggregator's bus goroutine apply Put

	if got := agg.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2 after first poll", got)
	}
	if _, ok := agg.Zone("lms:aa:bb:cc:dd:ee:01"); !ok {
		t.Fatal("expected zone for player 01")
	}

	playerIDs = []string{"aa:bb:cc:dd:ee:01"} // player 02 disappears
	l.pollOnce(context.Background())
	time.Sleep(10 * time.Millisecond)

	if got := agg.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1 after second poll (player 02 should be flushed)", got)
	}
	if _, ok := agg.Zone("lms:aa:bb:cc:dd:ee:02"); ok {
		t.Fatal("expected player 02's zone to be removed")
	}
}

func TestLogicNowPlayingUnknownZone(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("127.0.0.1", 0, bus, agg)
	_, err := l.NowPlaying(context.Background(), "hqp:other")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
