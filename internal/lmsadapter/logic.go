package lmsadapter

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

const pollInterval = 5 * time.Second // matches the teacher's pollMetadata cadence

// Logic implements adapter.Logic for a Lyrion Music Server instance.
// Unlike hqp (one long-lived TCP connection, one zone per instance),
// one LMS server can host many players: Logic polls "players" each tick
// to discover/lose them, then "status" per player to refresh NowPlaying.
type Logic struct {
	client *Client
	agg    *zone.Aggregator
	bus    *events.Bus

	mu    sync.Mutex
	known map[string]bool // playerID -> currently published
}

// NewLogic builds a Logic for the LMS server at host:port (port 9000 if
// zero).
func NewLogic(host string, port int, bus *events.Bus, agg *zone.Aggregator) *Logic {
	return &Logic{
		client: NewClient(host, port),
		agg:    agg,
		bus:    bus,
		known:  make(map[string]bool),
	}
}

func (l *Logic) Prefix() string { return "lms" }

func (l *Logic) Capabilities() adapter.Capabilities {
	return adapter.CapImages | adapter.CapSeek
}

func zoneIDFor(playerID string) string { return "lms:" + playerID }

func playerIDFrom(zoneID string) (string, bool) {
	const prefix = "lms:"
	if !strings.HasPrefix(zoneID, prefix) {
		return "", false
	}
	return zoneID[len(prefix):], true
}

// Start polls the server's player list and per-player status every
// pollInterval until ctx is cancelled. Transient poll failures are
// logged-by-omission-of-update (the previous zone state is left in
// place) rather than ending Start, so a momentary LMS hiccup doesn't
// count as a crash against the handle's restart budget.
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
	players, err := l.client.Players(ctx)
	if err != nil {
		return
	}

	seen := make(map[string]bool, len(players))
	for _, p := range players {
		seen[p.ID] = true
		l.publishPlayer(ctx, p)
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
		l.agg.Remove(zoneIDFor(id))
	}
}

func (l *Logic) publishPlayer(ctx context.Context, p Player) {
	zoneID := zoneIDFor(p.ID)

	st, err := l.client.Status(ctx, p.ID)
	if err != nil {
		return
	}

	z := zone.Zone{
		ID:         zoneID,
		Name:       p.Name,
		OutputName: p.Name,
		DeviceName: p.Model,
		State:      playbackState(st.Mode),
		Volume: &zone.Volume{
			Kind:    zone.VolumeNumber,
			Level:   math.Abs(st.MixerVolume),
			Min:     0,
			Max:     100,
			Step:    1,
			IsMuted: st.MixerVolume < 0,
		},
	}
	l.agg.Put(z)

	l.mu.Lock()
	wasKnown := l.known[p.ID]
	l.known[p.ID] = true
	l.mu.Unlock()
	if !wasKnown {
		l.bus.Publish(events.Event{Kind: events.KindLMSPlayerChanged, Prefix: "lms", ZoneID: zoneID})
	}
	l.bus.Publish(events.NowPlayingChanged(zoneID))
}

func playbackState(mode string) zone.PlaybackState {
	switch mode {
	case "play":
		return zone.Playing
	case "pause":
		return zone.Paused
	case "stop":
		return zone.Stopped
	default:
		return zone.Unknown
	}
}

// Stop releases no persistent resources (this adapter is stateless HTTP
// polling) but removes every zone it published, so a disabled adapter
// leaves no stale entries behind the usual AdapterStopping flush.
func (l *Logic) Stop(ctx context.Context) error {
	l.mu.Lock()
	ids := make([]string, 0, len(l.known))
	for id := range l.known {
		ids = append(ids, id)
	}
	l.known = make(map[string]bool)
	l.mu.Unlock()

	for _, id := range ids {
		l.agg.Remove(zoneIDFor(id))
	}
	return nil
}

func (l *Logic) NowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	playerID, ok := playerIDFrom(zoneID)
	if !ok {
		return zone.NowPlaying{}, errNoSuchZone(zoneID)
	}
	st, err := l.client.Status(ctx, playerID)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	track := st.Track()
	return zone.NowPlaying{
		ZoneID:    zoneID,
		Title:     track.Title,
		Artist:    track.Artist,
		Album:     track.Album,
		IsPlaying: st.Mode == "play",
		Volume: &zone.Volume{
			Kind:    zone.VolumeNumber,
			Level:   math.Abs(st.MixerVolume),
			Min:     0,
			Max:     100,
			Step:    1,
			IsMuted: st.MixerVolume < 0,
		},
		SeekPosition: st.Time,
		Length:       st.Duration,
		ArtworkURL:   track.ArtworkURL,
	}, nil
}

func (l *Logic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64) error {
	playerID, ok := playerIDFrom(zoneID)
	if !ok {
		return errNoSuchZone(zoneID)
	}
	switch action {
	case adapter.ActionPlay:
		return l.client.Play(ctx, playerID)
	case adapter.ActionPause:
		return l.client.Pause(ctx, playerID, false)
	case adapter.ActionPlayPause:
		return l.client.Pause(ctx, playerID, true)
	case adapter.ActionStop:
		return l.client.Stop(ctx, playerID)
	case adapter.ActionNext:
		return l.client.Next(ctx, playerID)
	case adapter.ActionPrevious:
		return l.client.Previous(ctx, playerID)
	case adapter.ActionVolAbs:
		return l.client.SetVolume(ctx, playerID, value)
	case adapter.ActionVolRel:
		return l.client.AdjustVolume(ctx, playerID, value)
	case adapter.ActionSeek:
		return l.client.Seek(ctx, playerID, value)
	default:
		return errMalformed("lms: unsupported action %q", action)
	}
}

func (l *Logic) GetImage(ctx context.Context, imageKey, zoneID string) (string, []byte, error) {
	return fetchArtwork(ctx, l.client, imageKey)
}

func (l *Logic) GetStatus(ctx context.Context) (adapter.Status, error) {
	_, err := l.client.Players(ctx)
	return adapter.Status{Connected: err == nil}, nil
}
