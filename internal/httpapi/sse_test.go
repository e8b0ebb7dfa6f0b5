package httpapi

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

func TestSSEStreamsEventsAndClosesOnShutdown(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()
	coord := adapter.NewCoordinator(bus)

	srv := httptest.NewServer(NewRouter(agg, coord, bus))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	// Give the handler a moment to subscribe before publishing, since
	// Subscribe/Publish ordering determines whether this event is seen.
	for i := 0; i < 50 && bus.SubscriberCount() == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}

	bus.Publish(events.ZoneDiscovered("roon:1", zone.Zone{ID: "roon:1"}))
	bus.Publish(events.ShuttingDown())

	reader := bufio.NewReader(resp.Body)
	var lines []string
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err != nil {
			break
		}
	}

	joined := strings.Join(lines, "")
	if !strings.Contains(joined, `"ZoneDiscovered"`) {
		t.Fatalf("expected a ZoneDiscovered frame, got: %q", joined)
	}
	if !strings.Contains(joined, `"ShuttingDown"`) {
		t.Fatalf("expected a ShuttingDown frame, got: %q", joined)
	}
}
