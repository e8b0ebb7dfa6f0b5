package roonadapter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

const pollInterval = 3 * time.Second

// Logic implements adapter.Logic for a single Roon-style core at the
// host:port it is built with. It does not call Discover, and
// cmd/hifictl builds one Logic from the configured roon host/port. It
// polls that core's zone list and republishes changes, mirroring
// the poll-and-diff shape internal/lmsadapter uses for multi-zone servers.
type Logic struct {
	client *Client
	agg    *zone.Aggregator
	bus    *events.Bus

	mu    sync.Mutex
	known map[string]bool
}

// NewLogic builds a Logic polling the core at host:port.
func NewLogic(host string, port int, bus *events.Bus, agg *zone.Aggregator) *Logic {
	return &Logic{
		client: NewClient(host, port),
		agg:    agg,
		bus:    bus,
		known:  make(map[string]bool),
	}
}

func (l *Logic) Prefix() string { return "roon" }

func (l *Logic) Capabilities() adapter.Capabilities {
	return adapter.CapImages | adapter.CapGrouping | adapter.CapSeek
}

func roonZoneID(coreZoneID string) string { return "roon:" + coreZoneID }

func coreZoneIDFrom(zoneID string) (string, bool) {
	const prefix = "roon:"
	if !strings.HasPrefix(zoneID, prefix) {
		return "", false
	}
	return zoneID[len(prefix):], true
}

func (l *Logic) Start(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	l.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.pollOnce(ctx)
		}
	}
}

func (l *Logic) pollOnce(ctx context.Context) {
	zones, err := l.client.Zones(ctx)
	if err != nil {
		return
	}

	seen := make(map[string]bool, len(zones))
	for _, rz := range zones {
		seen[rz.ZoneID] = true
		l.publishZone(rz)
	}

	l.mu.Lock()
	stale := make([]string, 0)
	for id := range l.known {
		if !seen[id] {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(l.known, id)
	}
	l.mu.Unlock()

	for _, id := range stale {
		l.agg.Remove(roonZoneID(id))
	}
}

func (l *Logic) publishZone(rz RoonZone) {
	zoneID := roonZoneID(rz.ZoneID)

	z := zone.Zone{
		ID:         zoneID,
		Name:       rz.DisplayName,
		OutputName: rz.OutputName,
		DeviceName: rz.OutputName,
		State:      playbackState(rz.State),
	}
	if rz.Volume != nil {
		z.Volume = &zone.Volume{
			Kind:    zone.VolumeNumber,
			Level:   rz.Volume.Value,
			Min:     rz.Volume.Min,
			Max:     rz.Volume.Max,
			Step:    rz.Volume.Step,
			IsMuted: rz.Volume.IsMuted,
		}
	}
	l.agg.Put(z)

	l.mu.Lock()
	l.known[rz.ZoneID] = true
	l.mu.Unlock()
	l.bus.Publish(events.NowPlayingChanged(zoneID))
}

func playbackState(s string) zone.PlaybackState {
	switch s {
	case "playing":
		return zone.Playing
	case "paused":
		return zone.Paused
	case "stopped":
		return zone.Stopped
	default:
		return zone.Unknown
	}
}

func (l *Logic) Stop(ctx context.Context) error {
	l.mu.Lock()
	ids := make([]string, 0, len(l.known))
	for id := range l.known {
		ids = append(ids, id)
	}
	l.known = make(map[string]bool)
	l.mu.Unlock()

	for _, id := range ids {
		l.agg.Remove(roonZoneID(id))
	}
	return nil
}

func (l *Logic) NowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	coreZoneID, ok := coreZoneIDFrom(zoneID)
	if !ok {
		return zone.NowPlaying{}, errNoSuchZone(zoneID)
	}
	zones, err := l.client.Zones(ctx)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	for _, rz := range zones {
		if rz.ZoneID != coreZoneID {
			continue
		}
		np := zone.NowPlaying{
			ZoneID:       zoneID,
			Title:        rz.Title,
			Artist:       rz.Artist,
			Album:        rz.Album,
			IsPlaying:    rz.State == "playing",
			SeekPosition: rz.SeekS,
			Length:       rz.LengthS,
			ImageKey:     rz.ImageKey,
		}
		if rz.Volume != nil {
			np.Volume = &zone.Volume{
				Kind:    zone.VolumeNumber,
				Level:   rz.Volume.Value,
				Min:     rz.Volume.Min,
				Max:     rz.Volume.Max,
				Step:    rz.Volume.Step,
				IsMuted: rz.Volume.IsMuted,
			}
		}
		return np, nil
	}
	return zone.NowPlaying{}, errNoSuchZone(zoneID)
}

func (l *Logic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64) error {
	coreZoneID, ok := coreZoneIDFrom(zoneID)
	if !ok {
		return errNoSuchZone(zoneID)
	}
	return l.client.Control(ctx, coreZoneID, string(action), value)
}

func (l *Logic) GetImage(ctx context.Context, imageKey, zoneID string) (string, []byte, error) {
	return fetchArtwork(ctx, l.client, imageKey)
}

func (l *Logic) GetStatus(ctx context.Context) (adapter.Status, error) {
	_, err := l.client.Zones(ctx)
	return adapter.Status{Connected: err == nil}, nil
}
