package upnpadapter

import (
	"context"
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"
)

// Device is a discovered UPnP MediaRenderer: its identity plus the
// control URLs for the two services this adapter drives.
type Device struct {
	UDN                 string
	FriendlyName         string
	AVTransportURL       string
	RenderingControlURL  string
}

// Client drives one Device's AVTransport/RenderingControl services.
type Client struct {
	device     Device
	httpClient *http.Client
}

// NewClient builds a Client for device.
func NewClient(device Device) *Client {
	return &Client{device: device, httpClient: &http.Client{Timeout: requestTimeout}}
}

func (c *Client) Play(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.AVTransportURL, avTransportURN, "Play",
		playAction{XmlnsU: avTransportURN, InstanceID: 0, Speed: "1"}, nil)
}

func (c *Client) Pause(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.AVTransportURL, avTransportURN, "Pause",
		pauseAction{XmlnsU: avTransportURN, InstanceID: 0}, nil)
}

func (c *Client) Stop(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.AVTransportURL, avTransportURN, "Stop",
		stopAction{XmlnsU: avTransportURN, InstanceID: 0}, nil)
}

func (c *Client) Next(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.AVTransportURL, avTransportURN, "Next",
		nextAction{XmlnsU: avTransportURN, InstanceID: 0}, nil)
}

func (c *Client) Previous(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.AVTransportURL, avTransportURN, "Previous",
		previousAction{XmlnsU: avTransportURN, InstanceID: 0}, nil)
}

// Seek moves the transport to positionS seconds, encoded as UPnP's
// REL_TIME "H:MM:SS" target format.
func (c *Client) Seek(ctx context.Context, positionS float64) error {
	return doSOAP(ctx, c.httpClient, c.device.AVTransportURL, avTransportURN, "Seek",
		seekAction{XmlnsU: avTransportURN, InstanceID: 0, Unit: "REL_TIME", Target: formatUPnPTime(positionS)}, nil)
}

// TransportStatus is the polled snapshot this adapter builds from
// GetTransportInfo + GetPositionInfo.
type TransportStatus struct {
	State      string // PLAYING | PAUSED_PLAYBACK | STOPPED | TRANSITIONING | NO_MEDIA_PRESENT
	Title      string
	Artist     string
	Album      string
	PositionS  float64
	DurationS  float64
}

func (c *Client) TransportStatus(ctx context.Context) (TransportStatus, error) {
	var transportResp getTransportInfoResponse
	if err := doSOAP(ctx, c.httpClient, c.device.AVTransportURL, avTransportURN, "GetTransportInfo",
		getTransportInfoAction{XmlnsU: avTransportURN, InstanceID: 0}, &transportResp); err != nil {
		return TransportStatus{}, err
	}

	var posResp getPositionInfoResponse
	if err := doSOAP(ctx, c.httpClient, c.device.AVTransportURL, avTransportURN, "GetPositionInfo",
		getPositionInfoAction{XmlnsU: avTransportURN, InstanceID: 0}, &posResp); err != nil {
		return TransportStatus{}, err
	}

	status := TransportStatus{
		State:     transportResp.CurrentTransportState,
		PositionS: parseUPnPTime(posResp.RelTime),
		DurationS: parseUPnPTime(posResp.TrackDuration),
	}
	var didl didlTitle
	if posResp.TrackMetaData != "" {
		if err := xml.Unmarshal([]byte(posResp.TrackMetaData), &didl); err == nil {
			status.Title = didl.Item.Title
			status.Artist = didl.Item.Artist
			status.Album = didl.Item.Album
		}
	}
	return status, nil
}

// Volume returns the current volume level (0-100) and mute state.
func (c *Client) Volume(ctx context.Context) (level int, muted bool, err error) {
	var volResp getVolumeResponse
	if err := doSOAP(ctx, c.httpClient, c.device.RenderingControlURL, renderingControlURN, "GetVolume",
		getVolumeAction{XmlnsU: renderingControlURN, InstanceID: 0, Channel: "Master"}, &volResp); err != nil {
		return 0, false, err
	}
	var muteResp getMuteResponse
	if err := doSOAP(ctx, c.httpClient, c.device.RenderingControlURL, renderingControlURN, "GetMute",
		getMuteAction{XmlnsU: renderingControlURN, InstanceID: 0, Channel: "Master"}, &muteResp); err != nil {
		return 0, false, err
	}
	return volResp.CurrentVolume, muteResp.CurrentMute != 0, nil
}

func (c *Client) SetVolume(ctx context.Context, level int) error {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return doSOAP(ctx, c.httpClient, c.device.RenderingControlURL, renderingControlURN, "SetVolume",
		setVolumeAction{XmlnsU: renderingControlURN, InstanceID: 0, Channel: "Master", DesiredVolume: level}, nil)
}

func (c *Client) SetMute(ctx context.Context, mute bool) error {
	desired := 0
	if mute {
		desired = 1
	}
	return doSOAP(ctx, c.httpClient, c.device.RenderingControlURL, renderingControlURN, "SetMute",
		setMuteAction{XmlnsU: renderingControlURN, InstanceID: 0, Channel: "Master", DesiredMute: desired}, nil)
}

// formatUPnPTime renders seconds as UPnP's "H:MM:SS" REL_TIME format.
func formatUPnPTime(s float64) string {
	total := int(s)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return padTime(h) + ":" + padTime(m) + ":" + padTime(sec)
}

func padTime(v int) string {
	s := strconv.Itoa(v)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// parseUPnPTime parses a UPnP "H:MM:SS" (or "H:MM:SS.mmm") duration
// string into seconds. Returns 0 on malformed input rather than erroring
// — display-only fields degrade gracefully.
func parseUPnPTime(v string) float64 {
	v = strings.SplitN(v, ".", 2)[0]
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	s, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return float64(h*3600 + m*60 + s)
}
