package openhomeadapter

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

// Logic adapts a set of discovered OpenHome source devices to
// adapter.Logic — structurally identical to upnpadapter.Logic (each
// discovered device is its own zone, a periodic sweep drives the zone
// set), differing only in which client type and zone-ID prefix it uses.
type Logic struct {
	bus *events.Bus
	agg *zone.Aggregator

	mu      sync.Mutex
	clients map[string]*Client
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

func (l *Logic) Prefix() string { return "openhome" }

func (l *Logic) Capabilities() adapter.Capabilities {
	return adapter.CapSeek
}

func zoneIDFor(udn string) string { return "openhome:" + udn }

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

func (l *Logic) sweep(ctx context.Context) {
	devices, err := Discover(ctx, 0)
	if err != nil && len(devices) == 0 {
		return
	}

	l.mu.Lock()
	seen := make(map[string]bool, len(devices))
	for _, d := range devices {
		desc, err := FetchDevice(ctx, d.Location)
		if err != nil || desc.UDN == "" || desc.TransportURL == "" {
			continue
		}
		zoneID := zoneIDFor(desc.UDN)
		seen[zoneID] = true
		if _, exists := l.clients[zoneID]; !exists {
			client := NewClient(desc)
			room, err := client.Room(ctx)
			if err != nil || room == "" {
				room = desc.UDN
			}
			l.clients[zoneID] = client
			l.agg.Put(zone.Zone{
				ID:         zoneID,
				Name:       room,
				OutputName: room,
				DeviceName: room,
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
	state, err := c.TransportState(ctx)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	elapsed, duration, err := c.Time(ctx)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	level, err := c.Volume(ctx)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	muted, err := c.Mute(ctx)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	return zone.NowPlaying{
		ZoneID:       zoneID,
		IsPlaying:    state == "Playing",
		SeekPosition: elapsed,
		Length:       duration,
		Volume: &zone.Volume{
			Kind:    zone.VolumeNumber,
			Level:   float64(level),
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
		level, err := c.Volume(ctx)
		if err != nil {
			return err
		}
		return c.SetVolume(ctx, level+int(value))
	default:
		return apperr.New(apperr.Unsupported, "openhome: unsupported action %q", action)
	}
}

// GetImage: OpenHome's metadata (artwork URIs) travels through the
// Playlist/Radio source services this adapter doesn't implement — out
// of scope for the same reason library browsing is a spec.md Non-goal.
func (l *Logic) GetImage(ctx context.Context, imageKey, zoneID string) (string, []byte, error) {
	return "", nil, apperr.New(apperr.Unsupported, "openhome: no image support")
}

func (l *Logic) GetStatus(ctx context.Context) (adapter.Status, error) {
	l.mu.Lock()
	n := len(l.clients)
	l.mu.Unlock()
	if n == 0 {
		return adapter.Status{Connected: false, Detail: "no sources discovered"}, nil
	}
	return adapter.Status{Connected: true, Detail: "watching sources"}, nil
}

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
