package adapter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/muness/unified-hifi-control/internal/events"
)

// Crash/restart policy constants, spec.md §4.3.
const (
	maxRestarts    = 5
	restartBackoff = 1 * time.Second
	healthyResetAfter = 5 * time.Minute
)

// Handle owns the lifecycle of one adapter Logic: start, stop-with-ACK,
// crash/restart counting, and guaranteed shutdown publication (spec.md
// §4.3, C3). It is the only thing in this package that touches the bus
// directly on the adapter's behalf for lifecycle events; Logic
// implementations publish their own domain events (ZoneDiscovered,
// NowPlayingChanged, AdapterConnected/Disconnected) themselves, since
// those require protocol-specific timing Handle has no visibility into.
type Handle struct {
	prefix string
	logic  Logic
	bus    *events.Bus

	mu          sync.Mutex
	running     bool
	stopping    bool
	crashCount  int
	healthyFrom time.Time
	cancel      context.CancelFunc
	doneCh      chan struct{}
	stopAck     chan struct{} // closed once the in-flight Stop call fully completes
	shutdownSub string
}

// NewHandle wraps logic in a Handle that publishes lifecycle events on
// bus.
func NewHandle(logic Logic, bus *events.Bus) *Handle {
	return &Handle{
		prefix: logic.Prefix(),
		logic:  logic,
		bus:    bus,
	}
}

// Prefix returns the wrapped adapter's routing prefix.
func (h *Handle) Prefix() string { return h.prefix }

// Logic returns the wrapped Logic, for callers (e.g. internal/httpapi)
// that need to invoke NowPlaying/Control/GetImage/GetStatus directly.
func (h *Handle) Logic() Logic { return h.logic }

// Running reports whether the handle currently considers its logic
// started. It is false before Start, after Stop, and after the run loop
// gives up on an exhausted restart budget.
func (h *Handle) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Start begins the adapter's background task and a listener that
// triggers Stop when ShuttingDown is published. Idempotent: calling
// Start on an already-running handle is a no-op. Starting a handle that
// previously gave up after exhausting its restart budget resets the
// crash counter — this is how Coordinator's runtime re-enable
// (reconfiguration) clears a Fatal handle, per spec.md §4.4.
func (h *Handle) Start(context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.stopping = false
	h.crashCount = 0
	h.healthyFrom = time.Now()

	runCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.doneCh = make(chan struct{})
	h.mu.Unlock()

	subID, sub := h.bus.Subscribe()
	h.mu.Lock()
	h.shutdownSub = subID
	h.mu.Unlock()
	go h.watchShutdown(sub)
	go h.runLoop(runCtx)

	return nil
}

// watchShutdown stops the handle the first time ShuttingDown arrives,
// then exits; Stop() itself unsubscribes this listener.
func (h *Handle) watchShutdown(sub <-chan events.Event) {
	for e := range sub {
		if e.Kind == events.KindShuttingDown {
			_ = h.Stop(context.Background())
			return
		}
	}
}

// isStopRequested reports whether Stop() has been called for the
// current run, used by runLoop to distinguish a cooperative exit from a
// crash.
func (h *Handle) isStopRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopping
}

// runLoop drives logic.Start, applying the crash/restart policy on
// unexpected returns until the restart budget is exhausted or a
// cooperative Stop arrives.
func (h *Handle) runLoop(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		doneCh := h.doneCh
		h.mu.Unlock()
		close(doneCh)
	}()

	for {
		err := h.logic.Start(ctx)

		if h.isStopRequested() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Unexpected return while ctx is still live: a crash.
		h.mu.Lock()
		if time.Since(h.healthyFrom) >= healthyResetAfter {
			h.crashCount = 0
		}
		h.crashCount++
		count := h.crashCount
		h.mu.Unlock()

		slog.Error("adapter: logic task ended unexpectedly", "prefix", h.prefix, "restart_count", count, "err", err)

		if count >= maxRestarts {
			slog.Error("adapter: giving up after restart budget exhausted", "prefix", h.prefix)
			h.bus.Publish(events.AdapterStopping(h.prefix))
			h.bus.Publish(events.AdapterStopped(h.prefix))
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
			return
		}

		select {
		case <-time.After(restartBackoff):
		case <-ctx.Done():
			return
		}
		h.mu.Lock()
		h.healthyFrom = time.Now()
		h.mu.Unlock()
	}
}

// Stop performs cooperative shutdown: publishes AdapterStopping, calls
// logic.Stop and waits for it plus the run loop to exit, then publishes
// AdapterStopped. Returns once both have happened — the ACK contract in
// spec.md §4.3. Safe to call concurrently or more than once; only the
// first caller does the work, subsequent callers block until it
// completes and then return nil. A handle that was never started (or
// has already fully stopped) returns nil immediately instead of
// waiting, since there is nothing in flight to wait for.
func (h *Handle) Stop(ctx context.Context) error {
	h.mu.Lock()
	if !h.running && !h.stopping {
		h.mu.Unlock()
		return nil
	}
	if h.stopping {
		ack := h.stopAck
		h.mu.Unlock()
		select {
		case <-ack:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.stopping = true
	ack := make(chan struct{})
	h.stopAck = ack
	cancel := h.cancel
	doneCh := h.doneCh
	subID := h.shutdownSub
	h.mu.Unlock()

	h.bus.Publish(events.AdapterStopping(h.prefix))

	logicDone := make(chan error, 1)
	go func() { logicDone <- h.logic.Stop(ctx) }()

	var logicErr error
	select {
	case logicErr = <-logicDone:
	case <-ctx.Done():
		logicErr = ctx.Err()
	}

	cancel()
	<-doneCh

	h.bus.Publish(events.AdapterStopped(h.prefix))
	h.bus.Unsubscribe(subID)

	h.mu.Lock()
	h.running = false
	h.stopping = false
	h.mu.Unlock()

	close(ack)
	return logicErr
}
