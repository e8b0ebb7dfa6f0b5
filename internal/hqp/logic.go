package hqp

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/apperr"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

const pollInterval = 2 * time.Second

// Logic adapts Client to adapter.Logic (spec.md §4.3), exposing the
// DSP instance as a single zone — the protocol has no concept of
// multiple simultaneous pipelines, so one Client maps to one Zone
// whose opaque ID is the configured host.
type Logic struct {
	client *Client
	agg    *zone.Aggregator
	bus    *events.Bus
	host   string

	zoneID string
}

// NewLogic builds the hqp adapter.Logic for a single DSP instance at
// host, pushing zone updates into agg as spec.md §4.2 requires
// ("the aggregator never calls adapters directly").
func NewLogic(host string, bus *events.Bus, agg *zone.Aggregator) *Logic {
	return &Logic{
		client: NewClient(host, bus),
		agg:    agg,
		bus:    bus,
		host:   host,
		zoneID: "hqp:" + host,
	}
}

func (l *Logic) Prefix() string { return "hqp" }

func (l *Logic) Capabilities() adapter.Capabilities {
	return adapter.CapPipeline
}

// Start polls the pipeline view and publishes a zone for this
// instance until ctx is cancelled. Connection failures surface as
// errors from the individual poll tick but do not end Start — only
// ctx cancellation or Stop does, so a transient DSP outage doesn't
// count as a crash against the handle's restart budget.
func (l *Logic) Start(ctx context.Context) error {
	l.publishZone()

	var lastPipeline PipelineView
	havePipeline := false

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			view, err := l.client.GetPipeline()
			if err != nil {
				continue // transient; next tick retries via ensureConnected
			}
			if !havePipeline || view != lastPipeline {
				wasFirst := !havePipeline
				lastPipeline = view
				havePipeline = true
				if wasFirst {
					l.publishZone() // now that a connect has happened, pick up Identity().Name
				}
				l.bus.Publish(events.Event{
					Kind:    events.KindHQPPipelineChanged,
					Prefix:  "hqp",
					ZoneID:  l.zoneID,
					Payload: view,
				})
				l.bus.Publish(events.NowPlayingChanged(l.zoneID))
			}
		}
	}
}

func (l *Logic) publishZone() {
	name := l.client.Identity().Name
	if name == "" {
		name = l.host
	}
	l.agg.Put(zone.Zone{
		ID:         l.zoneID,
		Name:       "HQPlayer: " + name,
		OutputName: l.host,
		DeviceName: name,
		DSP: &zone.DSPLink{
			Type:     "hqplayer",
			Instance: l.host,
			Pipeline: "/hqp/pipeline?zone_id=" + url.QueryEscape(l.zoneID),
			Profiles: "/hqp/profiles",
		},
	})
}

// Stop releases the socket and removes this instance's zone.
func (l *Logic) Stop(ctx context.Context) error {
	err := l.client.Close()
	l.agg.Remove(l.zoneID)
	return err
}

func (l *Logic) NowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	if zoneID != l.zoneID {
		return zone.NowPlaying{}, apperr.New(apperr.NotFound, "hqp: no such zone %q", zoneID)
	}
	view, err := l.client.GetPipeline()
	if err != nil {
		return zone.NowPlaying{}, err
	}
	return zone.NowPlaying{
		ZoneID:    zoneID,
		Title:     fmt.Sprintf("%s / %s", view.Mode, view.Filter1x),
		IsPlaying: view.ActiveMode != "",
		Volume: &zone.Volume{
			Kind: zone.VolumeDecibel,
			Min:  view.VolumeRange.MinDB,
			Max:  view.VolumeRange.MaxDB,
			Step: view.VolumeRange.StepDB,
		},
	}, nil
}

// Control translates a generic adapter.Action into the corresponding
// DSP transport/volume command.
func (l *Logic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64) error {
	if zoneID != l.zoneID {
		return apperr.New(apperr.NotFound, "hqp: no such zone %q", zoneID)
	}
	switch action {
	case adapter.ActionPlay, adapter.ActionPlayPause:
		return l.client.Play()
	case adapter.ActionPause:
		return l.client.Pause()
	case adapter.ActionStop:
		return l.client.Stop()
	case adapter.ActionNext:
		return l.client.Next()
	case adapter.ActionPrevious:
		return l.client.Previous()
	case adapter.ActionVolAbs:
		return l.client.Volume(value)
	case adapter.ActionVolRel:
		if value >= 0 {
			return l.client.VolumeUp()
		}
		return l.client.VolumeDown()
	case adapter.ActionSeek:
		return l.client.Seek(value)
	default:
		return apperr.New(apperr.Unsupported, "hqp: unsupported action %q", action)
	}
}

// GetImage: the DSP protocol carries no artwork.
func (l *Logic) GetImage(ctx context.Context, imageKey, zoneID string) (string, []byte, error) {
	return "", nil, apperr.New(apperr.Unsupported, "hqp: no image support")
}

func (l *Logic) GetStatus(ctx context.Context) (adapter.Status, error) {
	if l.client.Connected() {
		return adapter.Status{Connected: true}, nil
	}
	return adapter.Status{Connected: false, Detail: "not connected"}, nil
}

// Pipeline exposes the pipeline view for the HTTP layer's
// GET /hqp/pipeline, bypassing the generic NowPlaying translation.
func (l *Logic) Pipeline() (PipelineView, error) {
	return l.client.GetPipeline()
}

// SetPipeline exposes set_pipeline for the HTTP layer's
// POST /hqp/pipeline.
func (l *Logic) SetPipeline(setting, value string) error {
	return l.client.SetPipeline(setting, value)
}

// Profiles exposes the cached enumerations for the HTTP layer's
// GET /hqp/profiles.
func (l *Logic) Profiles() ProfilesView {
	return l.client.Profiles()
}

// ZoneID returns this instance's zone_id, for the HTTP layer to
// validate a requested zone_id against the single zone this Logic owns
// before calling Pipeline/SetPipeline.
func (l *Logic) ZoneID() string {
	return l.zoneID
}
