package openhomeadapter

import (
	"context"
	"net/http"
)

// Client drives one Device's Transport/Volume/Time/Product services.
type Client struct {
	device     Device
	httpClient *http.Client
}

func NewClient(device Device) *Client {
	return &Client{device: device, httpClient: &http.Client{Timeout: requestTimeout}}
}

func (c *Client) Play(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.TransportURL, transportURN, "Play", ohPlayAction{XmlnsU: transportURN}, nil)
}

func (c *Client) Pause(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.TransportURL, transportURN, "Pause", ohPauseAction{XmlnsU: transportURN}, nil)
}

func (c *Client) Stop(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.TransportURL, transportURN, "Stop", ohStopAction{XmlnsU: transportURN}, nil)
}

func (c *Client) Next(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.TransportURL, transportURN, "Next", ohNextAction{XmlnsU: transportURN}, nil)
}

func (c *Client) Previous(ctx context.Context) error {
	return doSOAP(ctx, c.httpClient, c.device.TransportURL, transportURN, "Previous", ohPreviousAction{XmlnsU: transportURN}, nil)
}

func (c *Client) Seek(ctx context.Context, positionS float64) error {
	if positionS < 0 {
		positionS = 0
	}
	return doSOAP(ctx, c.httpClient, c.device.TransportURL, transportURN, "SeekSecondAbsolute",
		ohSeekSecondAbsoluteAction{XmlnsU: transportURN, Value: uint32(positionS)}, nil)
}

func (c *Client) TransportState(ctx context.Context) (string, error) {
	var resp ohTransportStateResponse
	if err := doSOAP(ctx, c.httpClient, c.device.TransportURL, transportURN, "TransportState",
		ohTransportStateAction{XmlnsU: transportURN}, &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

// Time returns (elapsed seconds, duration seconds).
func (c *Client) Time(ctx context.Context) (elapsedS, durationS float64, err error) {
	var resp ohTimeResponse
	if err := doSOAP(ctx, c.httpClient, c.device.TimeURL, timeURN, "Time", ohTimeAction{XmlnsU: timeURN}, &resp); err != nil {
		return 0, 0, err
	}
	return float64(resp.Seconds), float64(resp.Duration), nil
}

func (c *Client) Volume(ctx context.Context) (int, error) {
	var resp ohVolumeResponse
	if err := doSOAP(ctx, c.httpClient, c.device.VolumeURL, volumeURN, "Volume", ohVolumeAction{XmlnsU: volumeURN}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (c *Client) SetVolume(ctx context.Context, level int) error {
	if level < 0 {
		level = 0
	}
	return doSOAP(ctx, c.httpClient, c.device.VolumeURL, volumeURN, "SetVolume",
		ohSetVolumeAction{XmlnsU: volumeURN, Value: level}, nil)
}

func (c *Client) Mute(ctx context.Context) (bool, error) {
	var resp ohMuteResponse
	if err := doSOAP(ctx, c.httpClient, c.device.VolumeURL, volumeURN, "Mute", ohMuteAction{XmlnsU: volumeURN}, &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}

func (c *Client) SetMute(ctx context.Context, mute bool) error {
	return doSOAP(ctx, c.httpClient, c.device.VolumeURL, volumeURN, "SetMute",
		ohSetMuteAction{XmlnsU: volumeURN, Value: mute}, nil)
}

func (c *Client) Room(ctx context.Context) (string, error) {
	var resp ohProductRoomResponse
	if err := doSOAP(ctx, c.httpClient, c.device.ProductURL, productURN, "Room", ohProductRoomAction{XmlnsU: productURN}, &resp); err != nil {
		return "", err
	}
	return resp.Room, nil
}
