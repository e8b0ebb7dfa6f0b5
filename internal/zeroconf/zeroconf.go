// Package zeroconf advertises the bridge's HTTP+SSE surface over
// mDNS/DNS-SD so Roon-style "find my device" UIs and other LAN tools
// can locate it without a configured address. The TXT record carries
// the set of adapter prefixes currently active, so a client can tell
// at a glance whether the instance it found speaks hqp, lms, roon,
// upnp, or openhome before ever opening a connection.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
)

// Service manages mDNS registration for one bridge instance. TXT
// records are rebuilt from the active adapter prefixes on every
// UpdateTXT call; since grandcat/zeroconf v1.0.0 does not expose a
// SetText method, applying an update means tearing down and
// re-registering the server rather than mutating it in place.
type Service struct {
	name string // instance name, e.g. the host's hostname
	port int

	mu       sync.Mutex
	server   *zeroconf.Server
	prefixes []string
}

// New creates a Service that will advertise on port under name. The
// initial TXT record carries prefixes as the adapter set active at
// registration time; pass nil if nothing is enabled yet — UpdateTXT
// can fill it in once the coordinator reports active adapters.
func New(name string, port int, prefixes []string) *Service {
	return &Service{
		name:     name,
		port:     port,
		prefixes: sortedCopy(prefixes),
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled,
// at which point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	if err := s.register(); err != nil {
		return err
	}

	<-ctx.Done()

	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()
	if server != nil {
		server.Shutdown()
	}
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}

// register publishes the service under the current txt() and stores
// the resulting server. Callers must not hold s.mu.
func (s *Service) register() error {
	txt := s.txt()
	server, err := zeroconf.Register(
		s.name,       // instance name
		"_http._tcp", // service type
		"local.",     // domain
		s.port,       // port
		txt,          // TXT records
		nil,          // ifaces — nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	slog.Info("zeroconf: registered mDNS service", "name", s.name, "port", s.port, "txt", txt)
	return nil
}

// txt builds the current TXT record set from s.prefixes.
func (s *Service) txt() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := []string{"component=hifictl"}
	if len(s.prefixes) > 0 {
		rec = append(rec, "adapters="+strings.Join(s.prefixes, ","))
	}
	return rec
}

// UpdateTXT replaces the advertised adapter-prefix set and, if the
// service is currently registered, restarts registration so the new
// TXT record actually reaches the network. Callers (cmd/hifictl's
// config-reload path) are expected to pass the coordinator's current
// Coordinator.ActivePrefixes() whenever the enabled-adapter set
// changes. A Service that hasn't been started yet just remembers the
// prefixes for the next Start.
func (s *Service) UpdateTXT(prefixes []string) error {
	s.mu.Lock()
	s.prefixes = sortedCopy(prefixes)
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	server.Shutdown()
	if err := s.register(); err != nil {
		return fmt.Errorf("zeroconf: restart to apply TXT update: %w", err)
	}
	return nil
}

func sortedCopy(prefixes []string) []string {
	if len(prefixes) == 0 {
		return nil
	}
	out := make([]string, len(prefixes))
	copy(out, prefixes)
	sort.Strings(out)
	return out
}
