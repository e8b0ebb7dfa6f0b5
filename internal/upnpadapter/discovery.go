package upnpadapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	ssdpMulticastAddr  = "239.255.255.250:1900"
	mediaRendererST    = "urn:schemas-upnp-org:device:MediaRenderer:1"
	defaultDiscoWindow = 3 * time.Second
)

// DiscoveredDevice is one SSDP M-SEARCH reply, prior to fetching and
// parsing its device description XML.
type DiscoveredDevice struct {
	Location string
	USN      string
}

// Discover sends an SSDP M-SEARCH probe for MediaRenderer devices and
// collects replies for window (default 3s if window <= 0), deduplicated
// by USN — the same UDP-probe-and-collect shape as the DSP client's own
// discovery, adapted to SSDP's unicast-reply-to-multicast-probe pattern
// rather than hqp's multicast-reply pattern.
func Discover(ctx context.Context, window time.Duration) ([]DiscoveredDevice, error) {
	if window <= 0 {
		window = defaultDiscoWindow
	}

	groupAddr, err := net.ResolveUDPAddr("udp4", ssdpMulticastAddr)
	if err != nil {
		return nil, err
	}

	sock, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	probe := []byte("M-SEARCH * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: 2\r\n" +
		"ST: " + mediaRendererST + "\r\n\r\n")
	if _, err := sock.WriteToUDP(probe, groupAddr); err != nil {
		return nil, err
	}

	if err := sock.SetReadDeadline(time.Now().Add(window)); err != nil {
		return nil, err
	}

	seen := make(map[string]DiscoveredDevice)
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return flattenDevices(seen), ctx.Err()
		default:
		}

		n, _, err := sock.ReadFromUDP(buf)
		if err != nil {
			return flattenDevices(seen), nil
		}

		dev, ok := parseSSDPReply(buf[:n])
		if !ok {
			continue
		}
		seen[dev.USN] = dev
	}
}

// parseSSDPReply picks LOCATION and USN out of an SSDP HTTP-over-UDP
// response. Malformed or non-matching replies are skipped by the caller.
func parseSSDPReply(data []byte) (DiscoveredDevice, bool) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	if err != nil {
		return DiscoveredDevice{}, false
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	usn := resp.Header.Get("Usn")
	if location == "" || usn == "" {
		return DiscoveredDevice{}, false
	}
	return DiscoveredDevice{Location: location, USN: usn}, true
}

func flattenDevices(m map[string]DiscoveredDevice) []DiscoveredDevice {
	out := make([]DiscoveredDevice, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// deviceDescription is the subset of a UPnP device description document
// this adapter needs to build a Device: its friendly name and the two
// services' control URLs.
type deviceDescription struct {
	UDN          string `xml:"device>UDN"`
	FriendlyName string `xml:"device>friendlyName"`
	ServiceList  struct {
		Services []struct {
			ServiceType string `xml:"serviceType"`
			ControlURL  string `xml:"controlURL"`
		} `xml:"service"`
	} `xml:"device>serviceList"`
}

// FetchDevice retrieves and parses the device description at
// location, resolving the AVTransport/RenderingControl control URLs
// relative to it.
func FetchDevice(ctx context.Context, location string) (Device, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return Device{}, errMalformed("build device description request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Device{}, errUnreachable(err, "upnp: fetch device description %s", location)
	}
	defer resp.Body.Close()

	var desc deviceDescription
	if err := xml.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return Device{}, errMalformed("decode device description: %v", err)
	}

	dev := Device{UDN: desc.UDN, FriendlyName: desc.FriendlyName}
	for _, svc := range desc.ServiceList.Services {
		url := resolveControlURL(location, svc.ControlURL)
		switch svc.ServiceType {
		case avTransportURN:
			dev.AVTransportURL = url
		case renderingControlURN:
			dev.RenderingControlURL = url
		}
	}
	return dev, nil
}

// resolveControlURL joins a device description's base location with a
// (possibly relative) control URL found inside it.
func resolveControlURL(location, controlURL string) string {
	if strings.HasPrefix(controlURL, "http://") || strings.HasPrefix(controlURL, "https://") {
		return controlURL
	}
	idx := strings.Index(location[len("http://"):], "/")
	if idx < 0 {
		return location + controlURL
	}
	base := location[:len("http://")+idx]
	if !strings.HasPrefix(controlURL, "/") {
		return base + "/" + controlURL
	}
	return base + controlURL
}
