// Package audio opens a capture device via miniaudio (through malgo) and
// turns its realtime callback into resampled, wire-format PCM chunks on a
// bounded channel: the contract the pipeline supervisor expects from a
// capture session (a chunk queue, an error queue, negotiated stream info,
// and a handle whose Close stops the device).
package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/loxone-community/lox-linein-bridge/internal/resample"
)

const (
	// ChunkQueueSize is the capture-chunk queue's capacity.
	ChunkQueueSize = 8
	// ErrorQueueSize is the capture-error queue's capacity.
	ErrorQueueSize = 4

	bytesPerFloat32  = 4
	periodSizeFrames = 1024
)

var (
	ErrNotInitialized = errors.New("audio capture not initialized")
	ErrAlreadyRunning = errors.New("audio capture already running")
	ErrNotRunning     = errors.New("audio capture not running")
)

// Config selects the device and target format for one capture session.
type Config struct {
	// DeviceName matches against an enumerated device's display name
	// (case-insensitive substring); empty selects the platform default.
	DeviceName string
	TargetRate uint32
	Resampler  resample.Mode
}

// Info describes the negotiated capture stream, valid once Start succeeds.
type Info struct {
	Rate     uint32
	Channels uint32
	Format   string
}

// Device is a capture device descriptor returned by ListDevices.
type Device struct {
	ID          malgo.DeviceID
	DisplayName string
}

// Capture owns one malgo device and the resampler that converts its
// callback output into stereo i16 PCM chunks.
type Capture struct {
	cfg Config

	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	resampler *resample.Resampler
	observer  resample.RateObserver

	running   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once

	Chunks chan []byte
	Errors chan error
	Info   Info
}

// New creates a Capture for cfg. observer is notified of observed-rate
// changes detected by the resampler; it may be nil.
func New(cfg Config, observer resample.RateObserver) *Capture {
	return &Capture{
		cfg:      cfg,
		observer: observer,
		Chunks:   make(chan []byte, ChunkQueueSize),
		Errors:   make(chan error, ErrorQueueSize),
	}
}

// Devices enumerates capture inputs using a throwaway context, for the
// one-shot device listing the control loop attaches to a registration
// request.
func Devices() ([]Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}
	out := make([]Device, len(infos))
	for i, info := range infos {
		out[i] = Device{ID: info.ID, DisplayName: info.Name()}
	}
	return out, nil
}

// ListDevices enumerates available capture inputs.
func (c *Capture) ListDevices() ([]Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}
	out := make([]Device, len(infos))
	for i, info := range infos {
		out[i] = Device{ID: info.ID, DisplayName: info.Name()}
	}
	return out, nil
}

// Init opens the miniaudio context. Must be called once before Start.
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil {
		return errors.New("audio: already initialized")
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	c.ctx = ctx
	return nil
}

// Start opens and starts the device, wiring its callback through the
// resampler into Chunks. The device is stopped automatically when ctx is
// cancelled.
func (c *Capture) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		c.running.Store(false)
		return ErrNotInitialized
	}
	audioCtx := c.ctx.Context

	var deviceID unsafe.Pointer
	if c.cfg.DeviceName != "" {
		devices, err := c.ctx.Devices(malgo.Capture)
		if err != nil {
			c.mu.Unlock()
			c.running.Store(false)
			return fmt.Errorf("enumerate capture devices: %w", err)
		}
		if id, ok := matchDevice(devices, c.cfg.DeviceName); ok {
			deviceID = id
		}
	}
	c.mu.Unlock()

	const requestChannels = 2

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Capture,
		SampleRate:         c.cfg.TargetRate,
		PeriodSizeInFrames: periodSizeFrames,
		Capture: malgo.SubConfig{
			Format:   malgo.FormatF32,
			Channels: requestChannels,
		},
	}
	if deviceID != nil {
		deviceConfig.Capture.DeviceID = deviceID
	}

	c.resampler = resample.New(c.cfg.Resampler, c.cfg.TargetRate, c.cfg.TargetRate, c.observer)
	c.Info = Info{Rate: c.cfg.TargetRate, Channels: resample.TargetChannels, Format: "s16le"}

	var lastCallback time.Time

	onRecvFrames := func(_ []byte, inputSamples []byte, frameCount uint32) {
		if len(inputSamples) == 0 {
			return
		}
		samples := bytesAsFloat32(inputSamples)

		now := time.Now()
		var elapsed time.Duration
		if !lastCallback.IsZero() {
			elapsed = now.Sub(lastCallback)
		}
		lastCallback = now

		c.resampler.Mu.Lock()
		pcm := c.resampler.Process(samples, requestChannels)
		if elapsed > 0 {
			c.resampler.Observe(int(frameCount), elapsed)
		}
		c.resampler.Mu.Unlock()

		if len(pcm) == 0 || c.closed.Load() {
			return
		}
		c.safeSendChunk(pcm)
	}

	device, err := malgo.InitDevice(audioCtx, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		c.running.Store(false)
		return fmt.Errorf("init capture device: %w", err)
	}

	c.mu.Lock()
	c.device = device
	c.mu.Unlock()

	if err := device.Start(); err != nil {
		c.mu.Lock()
		c.device.Uninit()
		c.device = nil
		c.mu.Unlock()
		c.running.Store(false)
		return fmt.Errorf("start capture device: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := c.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
			log.Printf("audio: stop on context cancel: %v", err)
		}
	}()

	return nil
}

// Stop stops and releases the device, leaving the Capture reusable for a
// subsequent Start.
func (c *Capture) Stop() error {
	if !c.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		if err := c.device.Stop(); err != nil {
			log.Printf("audio: device stop: %v", err)
		}
		c.device.Uninit()
		c.device = nil
	}
	return nil
}

// Close releases the miniaudio context and closes the output channels. Safe
// to call more than once.
func (c *Capture) Close() error {
	c.closed.Store(true)
	if err := c.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		log.Printf("audio: stop on close: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil {
		if err := c.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit audio context: %w", err)
		}
		c.ctx.Free()
		c.ctx = nil
	}
	c.closeOnce.Do(func() {
		close(c.Chunks)
		close(c.Errors)
	})
	return nil
}

// IsRunning reports whether the device is currently started.
func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

// safeSendChunk offers pcm to Chunks without blocking, dropping it if the
// consumer is too slow, and tolerating the TOCTOU race with Close.
func (c *Capture) safeSendChunk(pcm []byte) {
	defer func() { _ = recover() }()
	select {
	case c.Chunks <- pcm:
	default:
	}
}

func matchDevice(devices []malgo.DeviceInfo, want string) (unsafe.Pointer, bool) {
	for _, d := range devices {
		if containsFold(d.Name(), want) {
			return d.ID.Pointer(), true
		}
	}
	return nil, false
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// bytesAsFloat32 performs a zero-copy reinterpretation of a byte slice as
// float32 samples. The returned slice is only valid for the duration of the
// callback that produced data.
func bytesAsFloat32(data []byte) []float32 {
	if len(data) < bytesPerFloat32 {
		return nil
	}
	n := len(data) / bytesPerFloat32
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), n)
}
