package audio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/loxone-community/lox-linein-bridge/internal/resample"
)

func TestNew(t *testing.T) {
	cfg := Config{DeviceName: "usb audio", TargetRate: 44100, Resampler: resample.ModeLinear}
	capture := New(cfg, nil)

	if capture == nil {
		t.Fatal("New() returned nil")
	}
	if capture.cfg.TargetRate != 44100 {
		t.Errorf("capture.cfg.TargetRate = %d, want 44100", capture.cfg.TargetRate)
	}
	if capture.Chunks == nil || capture.Errors == nil {
		t.Error("expected non-nil Chunks and Errors channels")
	}
}

func TestNew_QueueSizes(t *testing.T) {
	capture := New(Config{TargetRate: 48000}, nil)

	if cap(capture.Chunks) != ChunkQueueSize {
		t.Errorf("cap(Chunks) = %d, want %d", cap(capture.Chunks), ChunkQueueSize)
	}
	if cap(capture.Errors) != ErrorQueueSize {
		t.Errorf("cap(Errors) = %d, want %d", cap(capture.Errors), ErrorQueueSize)
	}
}

func TestCapture_IsRunning_InitialState(t *testing.T) {
	capture := New(Config{TargetRate: 48000}, nil)

	if capture.IsRunning() {
		t.Error("IsRunning() = true for new capture, want false")
	}
}

func TestCapture_ListDevices_NotInitialized(t *testing.T) {
	capture := New(Config{TargetRate: 48000}, nil)

	_, err := capture.ListDevices()
	if err != ErrNotInitialized {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_NotInitialized(t *testing.T) {
	capture := New(Config{TargetRate: 48000}, nil)
	ctx := context.Background()

	err := capture.Start(ctx)
	if err != ErrNotInitialized {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_AlreadyRunning(t *testing.T) {
	capture := New(Config{TargetRate: 48000}, nil)
	capture.running.Store(true)

	ctx := context.Background()
	err := capture.Start(ctx)
	if err != ErrAlreadyRunning {
		t.Errorf("Start() when running error = %v, want ErrAlreadyRunning", err)
	}
}

func TestCapture_Stop_NotRunning(t *testing.T) {
	capture := New(Config{TargetRate: 48000}, nil)

	err := capture.Stop()
	if err != ErrNotRunning {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestErrors(t *testing.T) {
	if ErrNotInitialized.Error() != "audio capture not initialized" {
		t.Errorf("ErrNotInitialized message wrong")
	}
	if ErrAlreadyRunning.Error() != "audio capture already running" {
		t.Errorf("ErrAlreadyRunning message wrong")
	}
	if ErrNotRunning.Error() != "audio capture not running" {
		t.Errorf("ErrNotRunning message wrong")
	}
}

func TestCapture_ConcurrentIsRunning(t *testing.T) {
	capture := New(Config{TargetRate: 48000}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = capture.IsRunning()
		}()
	}
	wg.Wait()
}

func TestBytesAsFloat32_ZeroCopy(t *testing.T) {
	// 1.0 = 0x3F800000, -1.0 = 0xBF800000, both little-endian
	bytes := []byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x80, 0xBF}

	result := bytesAsFloat32(bytes)

	if len(result) != 2 {
		t.Fatalf("length = %d, want 2", len(result))
	}
	if result[0] != 1.0 {
		t.Errorf("result[0] = %f, want 1.0", result[0])
	}
	if result[1] != -1.0 {
		t.Errorf("result[1] = %f, want -1.0", result[1])
	}
}

func TestBytesAsFloat32_Empty(t *testing.T) {
	if result := bytesAsFloat32([]byte{}); result != nil {
		t.Errorf("bytesAsFloat32(empty) = %v, want nil", result)
	}
}

func TestBytesAsFloat32_TooSmall(t *testing.T) {
	if result := bytesAsFloat32([]byte{0x00, 0x00, 0x80}); result != nil {
		t.Errorf("bytesAsFloat32(3 bytes) = %v, want nil", result)
	}
}

func TestMatchDevice_CaseInsensitiveSubstring(t *testing.T) {
	devices := []deviceNameOnly{{name: "USB Audio CODEC"}, {name: "Built-in Microphone"}}
	_, ok := matchDeviceNames(devices, "usb audio")
	if !ok {
		t.Fatal("expected a case-insensitive substring match")
	}
	if _, ok := matchDeviceNames(devices, "nonexistent"); ok {
		t.Fatal("expected no match for an unrelated name")
	}
}

// deviceNameOnly and matchDeviceNames let TestMatchDevice exercise the
// matching logic without depending on malgo.DeviceInfo's internal layout.
type deviceNameOnly struct{ name string }

func matchDeviceNames(devices []deviceNameOnly, want string) (string, bool) {
	for _, d := range devices {
		if containsFold(d.name, want) {
			return d.name, true
		}
	}
	return "", false
}

func TestCapture_Close_Idempotent(t *testing.T) {
	capture := New(Config{TargetRate: 48000}, nil)
	if err := capture.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = capture.Close()
		_ = capture.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}
