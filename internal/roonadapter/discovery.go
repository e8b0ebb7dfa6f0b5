package roonadapter

import (
	"context"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	serviceType        = "_roon._tcp"
	defaultDiscoWindow = 3 * time.Second
)

// Core is a discovered Roon-style core: a display name plus the
// host:port its zone API answers on.
type Core struct {
	Host string
	Port int
	Name string
}

// Discover browses mDNS for service type "_roon._tcp" for window,
// returning every core seen. This adapter's real counterpart discovers
// cores over Roon's own SOOD broadcast protocol; this module instead
// reuses the teacher's own grandcat/zeroconf dependency (previously
// used only to advertise the web UI) repurposed as the browse side of
// mDNS, consistent with spec.md's "Roon-style" framing rather than a
// byte-exact reimplementation of Roon's closed wire protocol.
func Discover(ctx context.Context, window time.Duration) ([]Core, error) {
	if window <= 0 {
		window = defaultDiscoWindow
	}
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return nil, errUnreachable(err, "roon: build mDNS resolver")
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	cores := make([]Core, 0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e == nil || len(e.AddrIPv4) == 0 {
				continue
			}
			cores = append(cores, Core{
				Host: e.AddrIPv4[0].String(),
				Port: e.Port,
				Name: e.Instance,
			})
		}
	}()

	browseCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()
	if err := resolver.Browse(browseCtx, serviceType, "local.", entries); err != nil {
		return nil, errUnreachable(err, "roon: mDNS browse")
	}
	<-browseCtx.Done()
	<-done

	return cores, nil
}
