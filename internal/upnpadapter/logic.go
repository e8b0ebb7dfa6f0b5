package upnpadapter

import (
	"context"
	"sync"
	"time"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/apperr"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

const (
	discoverInterval = 30 * time.Second
	pollInterval     = 5 * time.Second
)

// Logic adapts a set of discovered UPnP MediaRenderers to adapter.Logic.
// Unlike the DSP client (one instance, one zone) or lms/roon (one server,
// many zones), UPnP renderers are discovered individually on the network
// — each Device becomes its own zone, and the periodic SSDP sweep plays
// the same "put what's seen, remove what vanished" role the DSP client's
// discovery.Discover plays for the HTTP API's discovery endpoint, except
// here it drives the zone set directly.
type Logic struct {
	bus *events.Bus
	agg *zone.Aggregator

	mu      sync.Mutex
	clients map[string]*Client // zoneID -> Client
	known   map[string]bool
}

func NewLogic(bus *events.Bus, agg *zone.Aggregator) *Logic {
	return &Logic{
		bus:     bus,
		agg:     agg,
		clients: make(map[string]*Client),
		known:   make(map[string]bool),
	}
}

func (l *Logic) Prefix() string { return "upnp" }

func (l *Logic) Capabilities() adapter.Capabilities {
	return adapter.CapSeek
}

func zoneIDFor(udn string) string { return "upnp:" + udn }

// Start sweeps for MediaRenderers every discoverInterval and publishes a
// NowPlayingChanged event for each known device every pollInterval until
// ctx is cancelled.
func (l *Logic) Start(ctx context.Context) error {
	l.sweep(ctx)
	l.pollAll(ctx)

	discoverTicker := time.NewTicker(discoverInterval)
	defer discoverTicker.Stop()
	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-discoverTicker.C:
			l.sweep(ctx)
		case <-pollTicker.C:
			l.pollAll(ctx)
		}
	}
}

// sweep runs one SSDP discovery window, fetches each reply's device
// description, and diffs the resulting zone set against what's known —
// the same poll-diff-publish shape lmsadapter/roonadapter use for their
// multi-zone servers, applied here to the renderer population itself.
func (l *Logic) sweep(ctx context.Context) {
	devices, err := Discover(ctx, 0)
	if err != nil && len(devices) == 0 {
		return
	}

	l.mu.Lock()
	seen := make(map[string]bool, len(devices))
	for _, d := range devices {
		desc, err := FetchDevice(ctx, d.Location)
		if err != nil || desc.UDN == "" || desc.AVTransportURL == "" {
			continue
		}
		zoneID := zoneIDFor(desc.UDN)
		seen[zoneID] = true
		if _, exists := l.clients[zoneID]; !exists {
			l.clients[zoneID] = NewClient(desc)
			l.agg.Put(zone.Zone{
				ID:         zoneID,
				Name:       desc.FriendlyName,
				OutputName: desc.FriendlyName,
				DeviceName: desc.FriendlyName,
			})
			l.known[zoneID] = true
			l.bus.Publish(events.NowPlayingChanged(zoneID))
		}
	}
	for zoneID := range l.known {
		if !seen[zoneID] {
			delete(l.known, zoneID)
			delete(l.clients, zoneID)
			l.agg.Remove(zoneID)
		}
	}
	l.mu.Unlock()
}

// pollAll publishes a NowPlayingChanged event per known device. It does
// not query the devices; NowPlaying fetches their state when called.
func (l *Logic) pollAll(ctx context.Context) {
	l.mu.Lock()
	zoneIDs := make([]string, 0, len(l.clients))
	for zoneID := range l.clients {
		zoneIDs = append(zoneIDs, zoneID)
	}
	l.mu.Unlock()

	for _, zoneID := range zoneIDs {
		l.bus.Publish(events.NowPlayingChanged(zoneID))
	}
}

func (l *Logic) clientFor(zoneID string) (*Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.clients[zoneID]
	if !ok {
		return nil, errNoSuchZone(zoneID)
	}
	return c, nil
}

func (l *Logic) NowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	c, err := l.clientFor(zoneID)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	status, err := c.TransportStatus(ctx)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	level, muted, err := c.Volume(ctx)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	return zone.NowPlaying{
		ZoneID:       zoneID,
		Title:        status.Title,
		Artist:       status.Artist,
		Album:        status.Album,
		IsPlaying:    status.State == "PLAYING",
		SeekPosition: status.PositionS,
		Length:       status.DurationS,
		Volume: &zone.Volume{
			Kind:    zone.VolumeNumber,
			Level:   float64(level),
			Min:     0,
			Max:     100,
			IsMuted: muted,
		},
	}, nil
}

func (l *Logic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64) error {
	c, err := l.clientFor(zoneID)
	if err != nil {
		return err
	}
	switch action {
	case adapter.ActionPlay, adapter.ActionPlayPause:
		return c.Play(ctx)
	case adapter.ActionPause:
		return c.Pause(ctx)
	case adapter.ActionStop:
		return c.Stop(ctx)
	case adapter.ActionNext:
		return c.Next(ctx)
	case adapter.ActionPrevious:
		return c.Previous(ctx)
	case adapter.ActionSeek:
		return c.Seek(ctx, value)
	case adapter.ActionVolAbs:
		return c.SetVolume(ctx, int(value))
	case adapter.ActionVolRel:
		level, _, err := c.Volume(ctx)
		if err != nil {
			return err
		}
		return c.SetVolume(ctx, level+int(value))
	default:
		return apperr.New(apperr.Unsupported, "upnp: unsupported action %q", action)
	}
}

// GetImage: now-playing artwork is carried as a URI inside DIDL-Lite
// metadata, not fetched through this adapter — album art is a spec.md
// Non-goal for UPnP specifically since renderers expose it as a direct
// URL the HTTP client can follow itself.
func (l *Logic) GetImage(ctx context.Context, imageKey, zoneID string) (string, []byte, error) {
	return "", nil, apperr.New(apperr.Unsupported, "upnp: no image support")
}

func (l *Logic) GetStatus(ctx context.Context) (adapter.Status, error) {
	l.mu.Lock()
	n := len(l.clients)
	l.mu.Unlock()
	if n == 0 {
		return adapter.Status{Connected: false, Detail: "no renderers discovered"}, nil
	}
	return adapter.Status{Connected: true, Detail: "watching renderers"}, nil
}

// Stop removes every discovered zone. UPnP control connections are
// stateless HTTP, so there is nothing else to release.
func (l *Logic) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for zoneID := range l.known {
		l.agg.Remove(zoneID)
	}
	l.known = make(map[string]bool)
	l.clients = make(map[string]*Client)
	return nil
}
