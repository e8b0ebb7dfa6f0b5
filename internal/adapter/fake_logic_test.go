package adapter_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/apperr"
	"github.com/muness/unified-hifi-control/internal/zone"
)

// fakeLogic is a minimal adapter.Logic used to exercise Handle/Coordinator
// without any real network protocol.
type fakeLogic struct {
	prefix    string
	caps      adapter.Capabilities
	stopDelay time.Duration // artificial Stop() latency, for concurrent-caller tests

	mu        sync.Mutex
	stopped   bool
	startErrs []error // consumed one per Start() call, then blocks until ctx/stop

	startCalls int32
	stopCalls  int32
}

func newFakeLogic(prefix string) *fakeLogic {
	return &fakeLogic{prefix: prefix}
}

func (f *fakeLogic) Prefix() string                     { return f.prefix }
func (f *fakeLogic) Capabilities() adapter.Capabilities { return f.caps }

func (f *fakeLogic) Start(ctx context.Context) error {
	atomic.AddInt32(&f.startCalls, 1)

	f.mu.Lock()
	var next error
	immediateReturn := false
	if len(f.startErrs) > 0 {
		next = f.startErrs[0]
		f.startErrs = f.startErrs[1:]
		immediateReturn = true
	}
	f.mu.Unlock()

	if immediateReturn {
		return next
	}

	<-ctx.Done()
	return nil
}

func (f *fakeLogic) Stop(context.Context) error {
	atomic.AddInt32(&f.stopCalls, 1)
	if f.stopDelay > 0 {
		time.Sleep(f.stopDelay)
	}
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	return nil
}

func (f *fakeLogic) NowPlaying(context.Context, string) (zone.NowPlaying, error) {
	return zone.NowPlaying{}, apperr.New(apperr.Unsupported, "fake adapter")
}

func (f *fakeLogic) Control(context.Context, string, adapter.Action, float64) error {
	return apperr.New(apperr.Unsupported, "fake adapter")
}

func (f *fakeLogic) GetImage(context.Context, string, string) (string, []byte, error) {
	return "", nil, apperr.New(apperr.Unsupported, "fake adapter")
}

func (f *fakeLogic) GetStatus(context.Context) (adapter.Status, error) {
	return adapter.Status{Connected: !f.stopped}, nil
}
