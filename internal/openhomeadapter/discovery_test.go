package openhomeadapter

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDiscoverReturnsWithinWindow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	devices, err := Discover(ctx, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if devices == nil {
		t.Fatal("expected a non-nil empty slice")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Discover took %v, expected to return near the window", elapsed)
	}
}

func TestSSDPMulticastAddrResolves(t *testing.T) {
	if _, err := net.ResolveUDPAddr("udp4", ssdpMulticastAddr); err != nil {
		t.Fatalf("ssdpMulticastAddr does not resolve: %v", err)
	}
}

func TestFetchDeviceParsesDescriptionAndResolvesControlURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(`<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <UDN>uuid:oh-abc</UDN>
    <serviceList>
      <service>
        <serviceType>` + transportURN + `</serviceType>
        <controlURL>/Transport/Control</controlURL>
      </service>
      <service>
        <serviceType>` + volumeURN + `</serviceType>
        <controlURL>/Volume/Control</controlURL>
      </service>
      <service>
        <serviceType>` + timeURN + `</serviceType>
        <controlURL>/Time/Control</controlURL>
      </service>
      <service>
        <serviceType>` + productURN + `</serviceType>
        <controlURL>/Product/Control</controlURL>
      </service>
    </serviceList>
  </device>
</root>`))
	}))
	defer srv.Close()

	dev, err := FetchDevice(context.Background(), srv.URL+"/description.xml")
	if err != nil {
		t.Fatalf("FetchDevice: %v", err)
	}
	if dev.UDN != "uuid:oh-abc" {
		t.Fatalf("UDN = %q", dev.UDN)
	}
	if dev.TransportURL != srv.URL+"/Transport/Control" {
		t.Fatalf("TransportURL = %q", dev.TransportURL)
	}
	if dev.VolumeURL != srv.URL+"/Volume/Control" {
		t.Fatalf("VolumeURL = %q", dev.VolumeURL)
	}
	if dev.TimeURL != srv.URL+"/Time/Control" {
		t.Fatalf("TimeURL = %q", dev.TimeURL)
	}
	if dev.ProductURL != srv.URL+"/Product/Control" {
		t.Fatalf("ProductURL = %q", dev.ProductURL)
	}
}
