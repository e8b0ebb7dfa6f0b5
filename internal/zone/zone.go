// Package zone defines the data model spec.md §3 describes (Zone,
// NowPlaying) and the Aggregator (spec.md §4.2, C2): the single
// authoritative zone_id -> Zone map fed by the event bus.
package zone

import "strings"

// PlaybackState is the zone-level transport state.
type PlaybackState string

const (
	Stopped PlaybackState = "stopped"
	Paused  PlaybackState = "paused"
	Playing PlaybackState = "playing"
	Unknown PlaybackState = "unknown"
)

// VolumeKind distinguishes the scale a zone's volume control uses.
type VolumeKind string

const (
	VolumeNumber   VolumeKind = "number"
	VolumeDecibel  VolumeKind = "decibel"
	VolumeFixed    VolumeKind = "fixed"
)

// Volume describes a zone's volume control, mirroring spec.md §3's
// "optional volume control descriptor (kind, min, max, step, is-muted)".
type Volume struct {
	Kind    VolumeKind `json:"kind"`
	Level   float64    `json:"level"`
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Step    float64    `json:"step"`
	IsMuted bool        `json:"is_muted"`
}

// DSPLink describes a zone's link to a DSP instance, matching the
// `"dsp": {...}` object in spec.md §6's Zone JSON shape.
type DSPLink struct {
	Type     string `json:"type"`     // always "hqplayer" for this spec
	Instance string `json:"instance"`
	Pipeline string `json:"pipeline"` // "/hqp/pipeline?zone_id=<urlencoded zone_id>"
	Profiles string `json:"profiles,omitempty"`
}

// Zone is a logical playback endpoint, identified by "<prefix>:<opaque>".
// Bit-compatible with the JSON shape spec.md §6 documents.
type Zone struct {
	ID         string   `json:"zone_id"`
	Name       string   `json:"zone_name"`
	OutputName string   `json:"output_name"`
	DeviceName string   `json:"device_name"`
	State      PlaybackState `json:"-"`
	Volume     *Volume  `json:"-"`
	DSP        *DSPLink `json:"dsp,omitempty"`
}

// Prefix returns the adapter prefix that created this zone ("roon", "lms",
// "hqp", "upnp", "openhome"), the authoritative routing key per spec.md §3.
func (z Zone) Prefix() string {
	return Prefix(z.ID)
}

// Prefix extracts the adapter prefix from a zone_id of the form
// "<prefix>:<opaque>". Returns "" if id does not contain a colon.
func Prefix(zoneID string) string {
	i := strings.IndexByte(zoneID, ':')
	if i < 0 {
		return ""
	}
	return zoneID[:i]
}

// NowPlaying is the current playback metadata for a zone, keyed by
// zone_id, derived on demand per spec.md §3 ("not persisted").
type NowPlaying struct {
	ZoneID       string  `json:"zone_id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Album        string  `json:"album"`
	IsPlaying    bool    `json:"is_playing"`
	Volume       *Volume `json:"volume,omitempty"`
	SeekPosition float64 `json:"seek_position_s"`
	Length       float64 `json:"length_s"`
	ImageKey     string  `json:"image_key,omitempty"`
	ArtworkURL   string  `json:"artwork_url,omitempty"`
}
