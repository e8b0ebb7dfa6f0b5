// Package events provides the process-wide typed event bus described in
// spec.md §4.1 (C1): a best-effort, non-blocking broadcast of Event values
// from adapters and the coordinator to SSE subscribers and the zone
// aggregator.
package events

// Kind identifies the variant of an Event.
type Kind string

const (
	KindZoneDiscovered       Kind = "ZoneDiscovered"
	KindZoneUpdated          Kind = "ZoneUpdated"
	KindZoneRemoved          Kind = "ZoneRemoved"
	KindNowPlayingChanged    Kind = "NowPlayingChanged"
	KindVolumeChanged        Kind = "VolumeChanged"
	KindSeekPositionChanged  Kind = "SeekPositionChanged"
	KindAdapterConnected     Kind = "AdapterConnected"
	KindAdapterDisconnected  Kind = "AdapterDisconnected"
	KindAdapterStopping      Kind = "AdapterStopping"
	KindAdapterStopped       Kind = "AdapterStopped"
	KindZonesFlushed         Kind = "ZonesFlushed"
	KindShuttingDown         Kind = "ShuttingDown"
	KindHQPPipelineChanged   Kind = "HQPPipelineChanged"
	KindHQPStateChanged      Kind = "HQPStateChanged"
	KindLMSPlayerChanged     Kind = "LMSPlayerChanged"
)

// Event is a single tagged event flowing on the bus. Exactly the fields
// relevant to Kind are populated; the rest are zero values. This mirrors
// spec.md §3's tagged-variant event list without requiring a sum type —
// idiomatic Go favors one flat struct with a discriminant over an
// interface hierarchy when every variant is this small.
type Event struct {
	Kind Kind `json:"type"`

	// Prefix is the adapter prefix (roon, lms, hqp, upnp, openhome) for
	// adapter-lifecycle events. Always set when Kind is one of the
	// Adapter* or ZonesFlushed variants.
	Prefix string `json:"prefix,omitempty"`

	// ZoneID is set for zone- and now-playing-scoped events.
	ZoneID string `json:"zone_id,omitempty"`

	// Payload carries variant-specific data (the Zone itself for
	// ZoneDiscovered, free-form adapter state for the *Changed variants).
	// any is used for the same reason Event is flat: this is a broadcast
	// bus crossing package boundaries, not a place for generics ceremony.
	Payload any `json:"payload,omitempty"`
}

// ZoneDiscovered builds the event published when an adapter first sees a zone.
func ZoneDiscovered(zoneID string, zone any) Event {
	return Event{Kind: KindZoneDiscovered, ZoneID: zoneID, Payload: zone}
}

// ZoneUpdated builds the event published when an adapter refreshes a zone's attributes.
func ZoneUpdated(zoneID string) Event {
	return Event{Kind: KindZoneUpdated, ZoneID: zoneID}
}

// ZoneRemoved builds the event published when an adapter removes a zone it no longer sees.
func ZoneRemoved(zoneID string) Event {
	return Event{Kind: KindZoneRemoved, ZoneID: zoneID}
}

// NowPlayingChanged builds the event published when a zone's now-playing metadata changes.
func NowPlayingChanged(zoneID string) Event {
	return Event{Kind: KindNowPlayingChanged, ZoneID: zoneID}
}

// VolumeChanged builds the event published when a zone's volume changes.
func VolumeChanged(zoneID string) Event {
	return Event{Kind: KindVolumeChanged, ZoneID: zoneID}
}

// SeekPositionChanged builds the event published when a zone's seek position changes.
func SeekPositionChanged(zoneID string) Event {
	return Event{Kind: KindSeekPositionChanged, ZoneID: zoneID}
}

// AdapterConnected builds the event published when an adapter establishes its upstream connection.
func AdapterConnected(prefix string) Event {
	return Event{Kind: KindAdapterConnected, Prefix: prefix}
}

// AdapterDisconnected builds the event published when an adapter loses its upstream connection.
func AdapterDisconnected(prefix string) Event {
	return Event{Kind: KindAdapterDisconnected, Prefix: prefix}
}

// AdapterStopping builds the event published before a handle begins stopping its logic.
func AdapterStopping(prefix string) Event {
	return Event{Kind: KindAdapterStopping, Prefix: prefix}
}

// AdapterStopped builds the event published once a handle's logic has released its resources.
func AdapterStopped(prefix string) Event {
	return Event{Kind: KindAdapterStopped, Prefix: prefix}
}

// ZonesFlushed builds the event published after the aggregator drops every
// zone belonging to prefix.
func ZonesFlushed(prefix string) Event {
	return Event{Kind: KindZonesFlushed, Prefix: prefix}
}

// ShuttingDown builds the process-wide shutdown event. Guaranteed to be
// observed by every subscriber per spec.md §4.1.
func ShuttingDown() Event {
	return Event{Kind: KindShuttingDown}
}
