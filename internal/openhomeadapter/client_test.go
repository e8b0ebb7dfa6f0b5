package openhomeadapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func envelope(inner string) string {
	return `<?xml version="1.0"?>` +
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">` +
		`<s:Body>` + inner + `</s:Body></s:Envelope>`
}

func deviceFor(srv *httptest.Server) Device {
	return Device{
		UDN:          "uuid:oh-test",
		Room:         "Kitchen",
		TransportURL: srv.URL + "/Transport/Control",
		VolumeURL:    srv.URL + "/Volume/Control",
		TimeURL:      srv.URL + "/Time/Control",
		ProductURL:   srv.URL + "/Product/Control",
	}
}

func TestClientPlaySendsCorrectAction(t *testing.T) {
	var lastAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAction = r.Header.Get("SOAPACTION")
		io.Copy(io.Discard, r.Body)
		fmt.Fprint(w, envelope(`<u:PlayResponse xmlns:u="`+transportURN+`"></u:PlayResponse>`))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	if err := cl.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	want := fmt.Sprintf(`"%s#Play"`, transportURN)
	if lastAction != want {
		t.Fatalf("SOAPACTION = %q, want %q", lastAction, want)
	}
}

func TestClientTransportStateParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, envelope(`<u:TransportStateResponse xmlns:u="`+transportURN+`"><aState>Playing</aState></u:TransportStateResponse>`))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	state, err := cl.TransportState(context.Background())
	if err != nil {
		t.Fatalf("TransportState: %v", err)
	}
	if state != "Playing" {
		t.Fatalf("state = %q", state)
	}
}

func TestClientTimeParsesElapsedAndDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, envelope(`<u:TimeResponse xmlns:u="`+timeURN+`"><aTrackCount>1</aTrackCount><aDuration>240</aDuration><aSeconds>30</aSeconds></u:TimeResponse>`))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	elapsed, duration, err := cl.Time(context.Background())
	if err != nil {
		t.Fatalf("Time: %v", err)
	}
	if elapsed != 30 || duration != 240 {
		t.Fatalf("elapsed/duration = %v/%v", elapsed, duration)
	}
}

func TestClientVolumeAndMuteParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.Header.Get("SOAPACTION")
		if strings.Contains(action, "#Volume\"") {
			fmt.Fprint(w, envelope(`<u:VolumeResponse xmlns:u="`+volumeURN+`"><aValue>55</aValue></u:VolumeResponse>`))
			return
		}
		fmt.Fprint(w, envelope(`<u:MuteResponse xmlns:u="`+volumeURN+`"><aValue>true</aValue></u:MuteResponse>`))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	level, err := cl.Volume(context.Background())
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	if level != 55 {
		t.Fatalf("level = %d, want 55", level)
	}
	muted, err := cl.Mute(context.Background())
	if err != nil {
		t.Fatalf("Mute: %v", err)
	}
	if !muted {
		t.Fatal("expected muted = true")
	}
}

func TestClientRoomParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, envelope(`<u:RoomResponse xmlns:u="`+productURN+`"><aRoom>Living Room</aRoom></u:RoomResponse>`))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	room, err := cl.Room(context.Background())
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if room != "Living Room" {
		t.Fatalf("room = %q", room)
	}
}

func TestClientSurfacesSOAPFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, envelope(`<s:Fault><faultstring>Invalid action</faultstring></s:Fault>`))
	}))
	defer srv.Close()

	cl := NewClient(deviceFor(srv))
	if err := cl.Play(context.Background()); err == nil {
		t.Fatal("expected an error for a SOAP fault response")
	}
}
