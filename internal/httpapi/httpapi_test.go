package httpapi

import (
	"context"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/zone"
)

// fakeLogic is a minimal adapter.Logic test double: it records the
// calls routed to it and returns canned responses, letting these tests
// assert on wiring (prefix routing, request decoding, error mapping)
// without a real protocol on the other end.
type fakeLogic struct {
	prefix string
	caps   adapter.Capabilities

	np      zone.NowPlaying
	npErr   error
	lastControl struct {
		zoneID string
		action adapter.Action
		value  float64
	}
	controlErr error
	image      []byte
	imageType  string
	imageErr   error
}

func (f *fakeLogic) Prefix() string                    { return f.prefix }
func (f *fakeLogic) Capabilities() adapter.Capabilities { return f.caps }
func (f *fakeLogic) Start(ctx context.Context) error    { <-ctx.Done(); return nil }
func (f *fakeLogic) Stop(ctx context.Context) error     { return nil }

func (f *fakeLogic) NowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	if f.npErr != nil {
		return zone.NowPlaying{}, f.npErr
	}
	return f.np, nil
}

func (f *fakeLogic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64) error {
	f.lastControl.zoneID = zoneID
	f.lastControl.action = action
	f.lastControl.value = value
	return f.controlErr
}

func (f *fakeLogic) GetImage(ctx context.Context, imageKey, zoneID string) (string, []byte, error) {
	if f.imageErr != nil {
		return "", nil, f.imageErr
	}
	return f.imageType, f.image, nil
}

func (f *fakeLogic) GetStatus(ctx context.Context) (adapter.Status, error) {
	return adapter.Status{Connected: true}, nil
}
