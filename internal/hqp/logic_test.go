package hqp

import (
	"context"
	"testing"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/apperr"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/zone"
)

func TestLogicPrefixAndCapabilities(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("192.168.1.50", bus, agg)
	if l.Prefix() != "hqp" {
		t.Fatalf("Prefix() = %q, want hqp", l.Prefix())
	}
	if !l.Capabilities().Has(adapter.CapPipeline) {
		t.Fatal("expected CapPipeline")
	}
	if l.Capabilities().Has(adapter.CapImages) {
		t.Fatal("did not expect CapImages — the DSP protocol carries no artwork")
	}
}

func TestLogicControlRejectsUnknownZone(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("192.168.1.50", bus, agg)
	err := l.Control(context.Background(), "hqp:someone-else", adapter.ActionPlay, 0)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestLogicGetImageUnsupported(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("192.168.1.50", bus, agg)
	_, _, err := l.GetImage(context.Background(), "cover.jpg", l.zoneID)
	if !apperr.Is(err, apperr.Unsupported) {
		t.Fatalf("expected Unsupported, got %v", err)
	}
}

func TestLogicZoneIDIsHostScoped(t *testing.T) {
	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	l := NewLogic("listening-room.local", bus, agg)
	if l.zoneID != "hqp:listening-room.local" {
		t.Fatalf("zoneID = %q", l.zoneID)
	}
}
