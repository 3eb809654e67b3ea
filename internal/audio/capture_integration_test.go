//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/loxone-community/lox-linein-bridge/internal/resample"
)

// These tests require actual audio hardware and are skipped by default.
// Run with: go test -tags=integration ./internal/audio

func testConfig() Config {
	return Config{TargetRate: 48000, Resampler: resample.ModeLinear}
}

func TestCapture_Init_Integration(t *testing.T) {
	capture := New(testConfig(), nil)
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if capture.ctx == nil {
		t.Error("Init() did not set context")
	}
}

func TestCapture_ListDevices_Integration(t *testing.T) {
	capture := New(testConfig(), nil)
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	devices, err := capture.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	t.Logf("Found %d capture devices:", len(devices))
	for i, d := range devices {
		t.Logf("  [%d] %s", i, d.DisplayName)
	}
}

func TestCapture_StartStop_Integration(t *testing.T) {
	capture := New(testConfig(), nil)
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !capture.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	time.Sleep(100 * time.Millisecond)

	if err := capture.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if capture.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
}

func TestCapture_ReceivesChunks_Integration(t *testing.T) {
	capture := New(testConfig(), nil)
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case chunk := <-capture.Chunks:
		t.Logf("Received %d bytes", len(chunk))
		if len(chunk) == 0 {
			t.Error("received empty PCM chunk")
		}
	case <-ctx.Done():
		t.Error("timeout waiting for a PCM chunk")
	}
}

func TestCapture_Close_Integration(t *testing.T) {
	capture := New(testConfig(), nil)

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := capture.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if capture.IsRunning() {
		t.Error("IsRunning() = true after Close()")
	}
}

func TestCapture_ContextCancellation_Integration(t *testing.T) {
	capture := New(testConfig(), nil)
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !capture.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	cancel()
	time.Sleep(100 * time.Millisecond)

	if capture.IsRunning() {
		t.Error("IsRunning() = true after context cancellation")
	}
}
