package hqp

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/muness/unified-hifi-control/internal/events"
)

// connState is the connection lifecycle spec.md §4.5.6 names: Idle ->
// Connecting -> Connected -> Draining -> Idle, with Failed reachable
// from Connecting. A failed connect attempt returns to Idle rather
// than staying in Failed permanently, so the next caller's
// ensureConnected still gets the "one lazy attempt" spec.md §4.5.1
// promises instead of a handle that's stuck until restarted.
type connState int

const (
	stateIdle connState = iota
	stateConnecting
	stateConnected
	stateDraining
)

const defaultPort = 4321

// reconnectInterval bounds how often ensureConnected will actually dial
// when the DSP engine is down. Every NowPlaying poll and control request
// that arrives while disconnected calls ensureConnected, and spec.md
// §4.5.1's lazy-reconnect design has no background loop to otherwise
// throttle that — without a limiter, a disconnected engine under
// sustained HTTP polling gets hammered with a fresh TCP SYN per request.
const reconnectInterval = 2 * time.Second

// Client is the public DSP Protocol Client (C5). One Client per DSP
// instance; safe for concurrent use.
type Client struct {
	host string
	port int
	bus  *events.Bus

	mu          sync.Mutex
	state       connState
	c           *conn
	connectOnce chan struct{} // non-nil while a connect attempt is in flight; closed when it resolves

	reconnect *rate.Limiter

	caches   listCaches
	identity Identity
}

// Identity is the parsed GetInfo response (spec.md §4.5.2).
type Identity struct {
	Name     string
	Product  string
	Version  string
	Platform string
	Engine   string
}

// Identity returns the most recently fetched GetInfo snapshot, zero
// valued until the first successful connect.
func (cl *Client) Identity() Identity {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.identity
}

// NewClient creates a Client for the DSP instance at host (port 4321
// unless overridden). Events are published on bus as the connection
// state and pipeline/transport state change.
func NewClient(host string, bus *events.Bus) *Client {
	return &Client{
		host:      host,
		port:      defaultPort,
		bus:       bus,
		state:     stateIdle,
		reconnect: rate.NewLimiter(rate.Every(reconnectInterval), 1),
	}
}

// Connected reports whether the client currently holds a live socket.
func (cl *Client) Connected() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.state == stateConnected
}

// ensureConnected implements the Idle -> Connecting -> Connected
// transition. Concurrent callers while a connect is already in flight
// share that attempt's result instead of dialing twice (spec.md
// §4.5.1: "concurrent callers share the in-progress future").
func (cl *Client) ensureConnected() error {
	cl.mu.Lock()
	switch cl.state {
	case stateConnected:
		cl.mu.Unlock()
		return nil
	case stateConnecting:
		wait := cl.connectOnce
		cl.mu.Unlock()
		<-wait
		return cl.ensureConnected() // re-check; the attempt may have failed
	}

	if !cl.reconnect.Allow() {
		cl.mu.Unlock()
		return errDisconnected("reconnect to %s:%d rate limited", cl.host, cl.port)
	}

	cl.state = stateConnecting
	done := make(chan struct{})
	cl.connectOnce = done
	host, port := cl.host, cl.port
	cl.mu.Unlock()

	c, err := dial(host, port)

	cl.mu.Lock()
	if err != nil {
		cl.state = stateIdle
		cl.connectOnce = nil
		cl.mu.Unlock()
		close(done)
		return errDisconnected("connect to %s:%d: %v", host, port, err)
	}
	cl.state = stateConnected
	cl.c = c
	cl.connectOnce = nil
	cl.mu.Unlock()
	close(done)

	cl.bus.Publish(events.AdapterConnected("hqp"))

	if err := cl.refreshCaches(); err != nil {
		slog.Error("hqp: cache refresh after connect failed", "err", err)
	}
	return nil
}

// refreshCaches issues the seven pipelined FIFO calls spec.md §4.5.6
// names after a successful connect: GetInfo, the four enumerations,
// MatrixListProfiles, and VolumeRange.
func (cl *Client) refreshCaches() error {
	cl.mu.Lock()
	c := cl.c
	cl.mu.Unlock()
	if c == nil {
		return errDisconnected("no connection")
	}

	infoEl, err := c.send("GetInfo")
	if err != nil {
		return fmt.Errorf("GetInfo: %w", err)
	}
	cl.mu.Lock()
	cl.identity = Identity{
		Name:     infoEl.attrString("name", ""),
		Product:  infoEl.attrString("product", ""),
		Version:  infoEl.attrString("version", ""),
		Platform: infoEl.attrString("platform", ""),
		Engine:   infoEl.attrString("engine", ""),
	}
	cl.mu.Unlock()
	modesEl, err := c.send("GetModes")
	if err != nil {
		return fmt.Errorf("GetModes: %w", err)
	}
	filtersEl, err := c.send("GetFilters")
	if err != nil {
		return fmt.Errorf("GetFilters: %w", err)
	}
	shapersEl, err := c.send("GetShapers")
	if err != nil {
		return fmt.Errorf("GetShapers: %w", err)
	}
	ratesEl, err := c.send("GetRates")
	if err != nil {
		return fmt.Errorf("GetRates: %w", err)
	}
	profilesEl, err := c.send("MatrixListProfiles")
	if err != nil {
		return fmt.Errorf("MatrixListProfiles: %w", err)
	}
	volEl, err := c.send("VolumeRange")
	if err != nil {
		return fmt.Errorf("VolumeRange: %w", err)
	}

	cl.caches.set(
		parseListItems(modesEl, "ModesItem"),
		parseListItems(filtersEl, "FiltersItem"),
		parseListItems(shapersEl, "ShapersItem"),
		parseRateItems(ratesEl),
		parseListItems(profilesEl, "MatrixProfilesItem"),
		parseVolumeRange(volEl),
	)
	return nil
}

// send is the one place every public method routes a wire request
// through: ensure a connection, then delegate to it. A disconnected
// socket observed here surfaces the error and drops back to Idle so
// the *next* call is the one lazy reconnect attempt (spec.md §4.5.1:
// "Reconnect is lazy ... no background reconnect loop").
func (cl *Client) send(name string, attrs ...attrPair) (*element, error) {
	if err := cl.ensureConnected(); err != nil {
		return nil, err
	}
	cl.mu.Lock()
	c := cl.c
	cl.mu.Unlock()

	el, err := c.send(name, attrs...)
	if err != nil {
		cl.handleDisconnect(c)
	}
	return el, err
}

// handleDisconnect transitions Connected -> Draining -> Idle and
// publishes AdapterDisconnected, provided the conn that errored is
// still the one this Client is using (a replaced conn's errors are
// already stale).
func (cl *Client) handleDisconnect(failed *conn) {
	cl.mu.Lock()
	if cl.c != failed {
		cl.mu.Unlock()
		return
	}
	cl.state = stateDraining
	cl.c = nil
	cl.mu.Unlock()

	failed.close()

	cl.mu.Lock()
	cl.state = stateIdle
	cl.mu.Unlock()

	cl.bus.Publish(events.AdapterDisconnected("hqp"))
}

// Close performs cooperative shutdown: drains the in-flight socket and
// returns once it's released, fulfilling the ACK contract Handle
// relies on (spec.md §4.3, §4.5.6).
func (cl *Client) Close() error {
	cl.mu.Lock()
	c := cl.c
	wasConnected := cl.state == stateConnected
	cl.state = stateDraining
	cl.c = nil
	cl.mu.Unlock()

	if c != nil {
		c.close()
	}

	cl.mu.Lock()
	cl.state = stateIdle
	cl.mu.Unlock()

	if wasConnected {
		cl.bus.Publish(events.AdapterDisconnected("hqp"))
	}
	return nil
}

// GetPipeline reads State + Status and returns the index-free
// PipelineView (spec.md §4.5.4).
func (cl *Client) GetPipeline() (PipelineView, error) {
	stateEl, err := cl.send("State")
	if err != nil {
		return PipelineView{}, err
	}
	statusEl, err := cl.send("Status", attrInt("subscribe", 0))
	if err != nil {
		return PipelineView{}, err
	}
	st := parseDSPState(stateEl)
	status := parseDSPStatus(statusEl)
	return buildPipelineView(st, status, &cl.caches), nil
}

// ProfilesView is the read-only snapshot of every DSP enumeration
// (modes, filters, shapers, matrix profiles, rates, volume bounds),
// for GET /hqp/profiles — listing what set_pipeline's setting/value
// pairs may legally resolve to, without round-tripping a Set command.
type ProfilesView struct {
	Modes       []ListItem
	Filters     []ListItem
	Shapers     []ListItem
	Profiles    []ListItem
	Rates       []RateItem
	VolumeRange VolumeRange
}

// Profiles returns the currently cached enumerations. Populated on
// (re)connect; empty before the first successful connect.
func (cl *Client) Profiles() ProfilesView {
	modes, filters, shapers, profiles, rates, vr := cl.caches.snapshot()
	return ProfilesView{
		Modes:       modes,
		Filters:     filters,
		Shapers:     shapers,
		Profiles:    profiles,
		Rates:       rates,
		VolumeRange: vr,
	}
}

// SetPipeline resolves a domain name or Hz value to its wire index and
// issues the matching Set command (spec.md §4.5.4).
func (cl *Client) SetPipeline(setting, value string) error {
	modes, filters, shapers, _, rates, _ := cl.caches.snapshot()

	switch setting {
	case "mode":
		idx, err := indexForName(modes, value)
		if err != nil {
			return errMalformed("%v", err)
		}
		_, err = cl.send("SetMode", attrInt("value", idx))
		return err
	case "filter1x":
		idx, err := indexForName(filters, value)
		if err != nil {
			return errMalformed("%v", err)
		}
		_, err = cl.send("SetFilter", attrInt("value", idx))
		return err
	case "filterNx":
		idx, err := indexForName(filters, value)
		if err != nil {
			return errMalformed("%v", err)
		}
		_, err = cl.send("SetFilter", attrInt("value1x", idx))
		return err
	case "shaper":
		idx, err := indexForName(shapers, value)
		if err != nil {
			return errMalformed("%v", err)
		}
		_, err = cl.send("SetShaping", attrInt("value", idx))
		return err
	case "samplerate":
		hz, err := parseHz(value)
		if err != nil {
			return errMalformed("%v", err)
		}
		idx, err := indexForRate(rates, hz)
		if err != nil {
			return errMalformed("%v", err)
		}
		_, err = cl.send("SetRate", attrInt("value", idx))
		return err
	case "dither":
		// No wire command for this setting is named in the protocol's
		// command table; left unsupported rather than guessed.
		return errUnsupportedKind("dither is not a settable pipeline field on this protocol")
	default:
		return errMalformed("unknown pipeline setting %q", setting)
	}
}

func parseHz(s string) (int, error) {
	var hz int
	_, err := fmt.Sscanf(s, "%d", &hz)
	return hz, err
}

// SetMatrixProfile switches the named matrix profile.
func (cl *Client) SetMatrixProfile(name string) error {
	_, err := cl.send("MatrixSetProfile", attrStr("value", name))
	return err
}

// Transport controls. Play sends last="0" unconditionally: the
// reference material invokes it both ways, but spec.md §9 flags this
// as an open question rather than something to guess, so the
// attribute is sent with the value every example of the command shows.
func (cl *Client) Play() error      { _, err := cl.send("Play", attrInt("last", 0)); return err }
func (cl *Client) Pause() error     { _, err := cl.send("Pause"); return err }
func (cl *Client) Stop() error      { _, err := cl.send("Stop"); return err }
func (cl *Client) Previous() error  { _, err := cl.send("Previous"); return err }
func (cl *Client) Next() error      { _, err := cl.send("Next"); return err }
func (cl *Client) Seek(s float64) error {
	_, err := cl.send("Seek", attrStr("position", fmt.Sprintf("%.2f", s)))
	return err
}

// Volume sets the absolute volume in dB.
func (cl *Client) Volume(db float64) error {
	_, err := cl.send("Volume", attrStr("value", fmt.Sprintf("%.2f", db)))
	return err
}

func (cl *Client) VolumeUp() error   { _, err := cl.send("VolumeUp"); return err }
func (cl *Client) VolumeDown() error { _, err := cl.send("VolumeDown"); return err }

func (cl *Client) VolumeMute(mute bool) error {
	v := 0
	if mute {
		v = 1
	}
	_, err := cl.send("VolumeMute", attrInt("value", v))
	return err
}
