// Package adapter implements the generic adapter lifecycle machinery
// spec.md §4.3-4.4 describes (C3: Handle, C4: Coordinator), parameterized
// over an AdapterLogic capability set. Concrete protocol adapters
// (internal/hqp, internal/roonadapter, internal/lmsadapter,
// internal/upnpadapter, internal/openhomeadapter) implement Logic; this
// package never knows which protocol it is driving.
package adapter

import (
	"context"

	"github.com/muness/unified-hifi-control/internal/zone"
)

// Action is a transport/volume command routed to a zone, per spec.md §6.
type Action string

const (
	ActionPlayPause Action = "play_pause"
	ActionPlay      Action = "play"
	ActionPause     Action = "pause"
	ActionStop      Action = "stop"
	ActionNext      Action = "next"
	ActionPrevious  Action = "previous"
	ActionVolRel    Action = "vol_rel"
	ActionVolAbs    Action = "vol_abs"
	ActionSeek      Action = "seek"
)

// Capabilities is a bit-flag capability descriptor (spec.md §9: "Use a
// tagged capability descriptor plus a narrow command/query interface").
// Callers can check a flag up front rather than relying solely on an
// Unsupported error turning up at call time.
type Capabilities uint32

const (
	CapImages    Capabilities = 1 << iota // GetImage is implemented
	CapGrouping                            // zones on this adapter can be grouped
	CapPipeline                            // zones link to a DSP pipeline (spec.md §3 DSPLink)
	CapSeek                                // Seek is a meaningful action for this adapter
)

func (c Capabilities) Has(f Capabilities) bool { return c&f != 0 }

// Status is the adapter-level health/diagnostic snapshot returned by
// get_status(), e.g. for an /api/info-equivalent endpoint.
type Status struct {
	Connected bool
	Detail    string
}

// Logic is the per-protocol capability set spec.md §4.3 names: start,
// stop, get_zones (via zone events + the aggregator, not a direct poll
// method — see below), get_now_playing, control, optional get_image,
// get_status.
//
// Zone discovery is push, not pull: Logic implementations own a
// *zone.Aggregator reference (handed to them at construction by their
// own package, e.g. hqp.NewClient(..., agg)) and call agg.Put/Remove as
// they discover or lose zones, rather than exposing a Zones() method
// here. This matches spec.md §4.2 ("The aggregator never calls adapters
// directly") — the data flow is one-directional, adapter -> aggregator.
type Logic interface {
	// Prefix returns this adapter's routing prefix ("roon", "lms", "hqp",
	// "upnp", "openhome").
	Prefix() string

	// Capabilities returns this adapter's capability flags.
	Capabilities() Capabilities

	// Start runs the adapter's long-lived background work (polling,
	// subscribing, accepting connections) and blocks until ctx is
	// cancelled or an unrecoverable error occurs. A non-nil return while
	// ctx is still live is treated by Handle as a crash subject to the
	// restart policy in spec.md §4.3; a nil or ctx.Err() return when ctx
	// is done is a cooperative exit.
	Start(ctx context.Context) error

	// Stop performs cooperative shutdown: it must return only after
	// every owned I/O resource (sockets, subprocesses, timers) has been
	// released, fulfilling the ACK contract in spec.md §4.3. Must
	// complete within a bounded time regardless of ctx.
	Stop(ctx context.Context) error

	// NowPlaying returns current playback metadata for a zone this
	// adapter owns.
	NowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error)

	// Control executes a transport/volume command against a zone this
	// adapter owns. value is the vol_abs level, vol_rel delta, or seek
	// position in seconds; unused for the other actions.
	Control(ctx context.Context, zoneID string, action Action, value float64) error

	// GetImage fetches artwork bytes for imageKey scoped to zoneID.
	// Returns an Unsupported *apperr.Error if Capabilities lacks
	// CapImages.
	GetImage(ctx context.Context, imageKey, zoneID string) (contentType string, data []byte, err error)

	// GetStatus returns a health/diagnostic snapshot for this adapter.
	GetStatus(ctx context.Context) (Status, error)
}
