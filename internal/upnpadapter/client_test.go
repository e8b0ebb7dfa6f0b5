package upnpadapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// soapResponseServer serves a fixed SOAP envelope body for every
// request, recording the last SOAPACTION header and request body seen.
func soapResponseServer(t *testing.T, body string) (*httptest.Server, *string) {
	t.Helper()
	var lastAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAction = r.Header.Get("SOAPACTION")
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, body)
	}))
	return srv, &lastAction
}

func deviceFor(srv *httptest.Server) Device {
	return Device{
		UDN:                 "uuid:test-device",
		FriendlyName:        "Test Renderer",
		AVTransportURL:      srv.URL + "/AVTransport/Control",
		RenderingControlURL: srv.URL + "/RenderingControl/Control",
	}
}

func envelope(inner string) string {
	return `<?xml version="1.0"?>` +
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">` +
		`<s:Body>` + inner + `</s:Body></s:Envelope>`
}

func TestClientPlaySendsCorrectAction(t *testing.T) {
	srv, lastAction := soapResponseServer(t, envelope(`<u:PlayResponse xmlns:u="`+avTransportURN+`"></u:PlayResponse>`))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	if err := cl.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	want := fmt.Sprintf(`"%s#Play"`, avTransportURN)
	if *lastAction != want {
		t.Fatalf("SOAPACTION = %q, want %q", *lastAction, want)
	}
}

func TestClientTransportStatusParsesStateAndMetadata(t *testing.T) {
	transportResp := `<u:GetTransportInfoResponse xmlns:u="` + avTransportURN + `">` +
		`<CurrentTransportState>PLAYING</CurrentTransportState></u:GetTransportInfoResponse>`
	positionResp := `<u:GetPositionInfoResponse xmlns:u="` + avTransportURN + `">` +
		`<Track>1</Track><TrackDuration>0:03:45</TrackDuration>` +
		`<TrackMetaData>&lt;DIDL-Lite&gt;&lt;item&gt;&lt;title&gt;Close to the Edge&lt;/title&gt;&lt;creator&gt;Yes&lt;/creator&gt;&lt;/item&gt;&lt;/DIDL-Lite&gt;</TrackMetaData>` +
		`<TrackURI>x-file-cifs://nas/track.flac</TrackURI><RelTime>0:01:20</RelTime></u:GetPositionInfoResponse>`

	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		action := r.Header.Get("SOAPACTION")
		w.Header().Set("Content-Type", "text/xml")
		if strings.Contains(action, "GetTransportInfo") {
			fmt.Fprint(w, envelope(transportResp))
			return
		}
		fmt.Fprint(w, envelope(positionResp))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	status, err := cl.TransportStatus(context.Background())
	if err != nil {
		t.Fatalf("TransportStatus: %v", err)
	}
	if status.State != "PLAYING" {
		t.Fatalf("State = %q", status.State)
	}
	if status.Title != "Close to the Edge" || status.Artist != "Yes" {
		t.Fatalf("Title/Artist = %q/%q", status.Title, status.Artist)
	}
	if status.PositionS != 80 {
		t.Fatalf("PositionS = %v, want 80", status.PositionS)
	}
	if status.DurationS != 225 {
		t.Fatalf("DurationS = %v, want 225", status.DurationS)
	}
	if callCount != 2 {
		t.Fatalf("callCount = %d, want 2", callCount)
	}
}

func TestClientVolumeParsesLevelAndMute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.Header.Get("SOAPACTION")
		w.Header().Set("Content-Type", "text/xml")
		if strings.Contains(action, "GetVolume") {
			fmt.Fprint(w, envelope(`<u:GetVolumeResponse xmlns:u="`+renderingControlURN+`"><CurrentVolume>37</CurrentVolume></u:GetVolumeResponse>`))
			return
		}
		fmt.Fprint(w, envelope(`<u:GetMuteResponse xmlns:u="`+renderingControlURN+`"><CurrentMute>1</CurrentMute></u:GetMuteResponse>`))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	level, muted, err := cl.Volume(context.Background())
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	if level != 37 || !muted {
		t.Fatalf("level/muted = %d/%v, want 37/true", level, muted)
	}
}

func TestClientSurfacesSOAPFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, envelope(`<s:Fault><faultstring>Invalid InstanceID</faultstring></s:Fault>`))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	if err := cl.Play(context.Background()); err == nil {
		t.Fatal("expected an error for a SOAP fault response")
	}
}

func TestFormatAndParseUPnPTimeRoundTrip(t *testing.T) {
	cases := []float64{0, 5, 65, 3725}
	for _, s := range cases {
		formatted := formatUPnPTime(s)
		parsed := parseUPnPTime(formatted)
		if parsed != s {
			t.Fatalf("formatUPnPTime(%v) = %q, parseUPnPTime back = %v", s, formatted, parsed)
		}
	}
}
