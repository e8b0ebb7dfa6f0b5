package hqp

import (
	"context"
	"encoding/xml"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	multicastAddr     = "239.192.0.199:4321"
	defaultDiscoWindow = 3 * time.Second
	discoveryProbe     = `<?xml version="1.0"?><discover>hqplayer</discover>` + "\n"
)

// DiscoveredInstance is one reply to a UDP discovery probe (spec.md
// §4.5.5), keyed by the responder's source IP.
type DiscoveredInstance struct {
	Host    string
	Name    string
	Version string
	Product string
}

// Discover sends the discovery probe to the multicast group and
// collects replies for window (default 3s if window <= 0), returning
// the deduplicated set keyed by host — spec.md §8 Testable Property 8
// requires repeat runs against a stable set of responders to return
// the same entries.
func Discover(ctx context.Context, window time.Duration) ([]DiscoveredInstance, error) {
	if window <= 0 {
		window = defaultDiscoWindow
	}

	groupAddr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{Control: setReuseAddr}
	pc, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return nil, err
	}
	sock := pc.(*net.UDPConn)
	defer sock.Close()

	probe := []byte(discoveryProbe)
	if _, err := sock.WriteToUDP(probe, groupAddr); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(window)
	if err := sock.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	seen := make(map[string]DiscoveredInstance)
	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return flatten(seen), ctx.Err()
		default:
		}

		n, from, err := sock.ReadFromUDP(buf)
		if err != nil {
			// Read deadline expired: the collection window is over.
			return flatten(seen), nil
		}

		var el element
		if xml.Unmarshal(buf[:n], &el) != nil || el.XMLName.Local != "discover" {
			continue
		}
		host := from.IP.String()
		seen[host] = DiscoveredInstance{
			Host:    host,
			Name:    el.attrString("name", ""),
			Version: el.attrString("version", ""),
			Product: el.attrString("product", ""),
		}
	}
}

// setReuseAddr sets SO_REUSEADDR on the discovery probe socket so more
// than one bridge process on the same host can run Discover
// concurrently without fighting over the ephemeral port's bind.
func setReuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return sockErr
}

func flatten(m map[string]DiscoveredInstance) []DiscoveredInstance {
	out := make([]DiscoveredInstance, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
