package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/muness/unified-hifi-control/internal/apperr"
	"github.com/muness/unified-hifi-control/internal/events"
)

// Factory constructs a fresh Logic instance for an adapter prefix. The
// Coordinator calls it at most once per Start/SetEnabled(true) cycle —
// a disabled adapter's Logic is never constructed, let alone started,
// so it can never appear "searching" anywhere in the system (spec.md
// §4.4).
type Factory func() Logic

// Coordinator is the component deciding which adapter handles exist
// (spec.md §4.4, C4). It reads enabled-adapter configuration,
// instantiates exactly the enabled handles, and on termination
// publishes ShuttingDown before waiting for every handle's ACK.
type Coordinator struct {
	bus *events.Bus

	mu        sync.Mutex
	factories map[string]Factory
	handles   map[string]*Handle // only prefixes that have been started at least once
}

// NewCoordinator creates an empty Coordinator bound to bus.
func NewCoordinator(bus *events.Bus) *Coordinator {
	return &Coordinator{
		bus:       bus,
		factories: make(map[string]Factory),
		handles:   make(map[string]*Handle),
	}
}

// Register associates a prefix with the factory used to construct its
// Logic when enabled. Call once per adapter prefix at wiring time,
// before Start.
func (c *Coordinator) Register(prefix string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[prefix] = f
}

// Start instantiates and starts exactly the handles named in
// enabledPrefixes. Prefixes with no registered factory are logged and
// skipped rather than treated as fatal, so a misconfigured adapter list
// doesn't take down the whole bridge.
func (c *Coordinator) Start(ctx context.Context, enabledPrefixes []string) error {
	for _, prefix := range enabledPrefixes {
		if err := c.SetEnabled(ctx, prefix, true); err != nil {
			slog.Error("coordinator: failed to start adapter", "prefix", prefix, "err", err)
		}
	}
	return nil
}

// SetEnabled idempotently starts or stops the handle for prefix,
// implementing spec.md §4.4's "On runtime enable/disable
// (reconfiguration)". Enabling a prefix with no registered factory
// returns a NotConfigured error.
func (c *Coordinator) SetEnabled(ctx context.Context, prefix string, enabled bool) error {
	c.mu.Lock()
	h, exists := c.handles[prefix]
	factory, hasFactory := c.factories[prefix]
	c.mu.Unlock()

	if enabled {
		if !exists {
			if !hasFactory {
				return apperr.New(apperr.NotConfigured, "no adapter registered for prefix %q", prefix)
			}
			h = NewHandle(factory(), c.bus)
			c.mu.Lock()
			c.handles[prefix] = h
			c.mu.Unlock()
		}
		return h.Start(ctx)
	}

	if !exists {
		return nil
	}
	return h.Stop(ctx)
}

// Handle returns the handle registered for prefix (the command router
// entry spec.md §4.2/§4.3 describe), and whether it exists. A prefix
// with no handle (never enabled, or disabled) is not found — this is
// how the command router distinguishes "adapter disabled" from "zone
// not found" at the call site.
func (c *Coordinator) Handle(prefix string) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.handles[prefix]
	if !ok || !h.Running() {
		return nil, false
	}
	return h, true
}

// ActivePrefixes returns the prefixes of every currently-running handle.
func (c *Coordinator) ActivePrefixes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.handles))
	for prefix, h := range c.handles {
		if h.Running() {
			out = append(out, prefix)
		}
	}
	return out
}

// Shutdown publishes ShuttingDown and waits for every handle's Stop to
// complete, bounded by grace. Handles are stopped concurrently via
// errgroup so the total wait is the slowest single handle, not the sum
// (spec.md §8 Scenario 5: "two adapters are mid-poll ... each handle's
// stop() resolves within the grace timeout"). Returns the first error
// encountered, if any; a grace-timeout expiry is itself returned as an
// error so cmd/hifictl can choose a non-zero exit status.
func (c *Coordinator) Shutdown(ctx context.Context, grace time.Duration) error {
	c.bus.Publish(events.ShuttingDown())

	c.mu.Lock()
	handles := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	gctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	g, gctx := errgroup.WithContext(gctx)
	for _, h := range handles {
		h := h
		g.Go(func() error {
			if err := h.Stop(gctx); err != nil {
				return fmt.Errorf("adapter %q: %w", h.Prefix(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
