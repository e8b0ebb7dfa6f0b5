package roonadapter

import (
	"context"
	"testing"
	"time"
)

func TestDiscoverReturnsWithinWindow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	cores, err := Discover(ctx, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cores == nil {
		t.Fatal("expected a non-nil (possibly empty) slice")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Discover took %v, want roughly the requested window", elapsed)
	}
}
