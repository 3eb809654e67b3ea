// Package resample converts arbitrary-rate, arbitrary-channel f32 PCM into
// stereo 16-bit little-endian PCM at a fixed target rate. One Resampler is
// created per capture session and shares a mutex with the capture callback —
// it is the only piece of DSP state the realtime audio thread touches
// directly, so every public method here must be safe to call from that
// thread and fast.
package resample

import (
	"sync"
	"time"
)

// Mode selects the conversion algorithm.
type Mode string

const (
	ModeLinear   Mode = "linear"
	ModeSincFast Mode = "sinc-fast"
	ModeSinc     Mode = "sinc"
)

// TargetChannels is the fixed output channel count (stereo).
const TargetChannels = 2

// observeInterval is how often the observed input rate is reported/acted on.
const observeInterval = 2 * time.Second

// confirmLogInterval throttles the "rate confirmed" log line.
const confirmLogInterval = 10 * time.Second

// RateObserver is notified when the Resampler's view of the true input rate
// changes (or is reconfirmed). It exists so internal/resample has no direct
// dependency on internal/logging; callers wire a small adapter.
type RateObserver interface {
	RateChanged(oldRate, newRate uint32)
	RateConfirmed(rate uint32)
}

type noopObserver struct{}

func (noopObserver) RateChanged(uint32, uint32) {}
func (noopObserver) RateConfirmed(uint32)       {}

// converter is the interface each mode implements. Process consumes
// interleaved f32 input at inChannels and appends little-endian stereo i16
// PCM bytes to out, returning the extended slice. A rate change is handled
// by building a fresh converter rather than resetting one in place.
type converter interface {
	process(input []float32, inChannels int, out []byte) []byte
}

// Resampler owns the mutable DSP state for one capture session. It is
// protected by Mu, which the capture callback also locks for the duration
// of each callback's Process call.
type Resampler struct {
	Mu sync.Mutex

	mode       Mode
	targetRate uint32
	inRate     uint32
	conv       converter
	observer   RateObserver

	// observed-rate accounting
	accFrames   uint64
	accElapsed  time.Duration
	lastConfirm time.Time
	lastRebuild time.Time
}

// New creates a Resampler for one capture session. inRate is the device's
// nominal advertised rate; it may later be corrected by Observe.
func New(mode Mode, inRate, targetRate uint32, observer RateObserver) *Resampler {
	if observer == nil {
		observer = noopObserver{}
	}
	r := &Resampler{
		mode:       mode,
		targetRate: targetRate,
		inRate:     inRate,
		observer:   observer,
	}
	r.conv = newConverter(mode, inRate, targetRate)
	return r
}

func newConverter(mode Mode, inRate, targetRate uint32) converter {
	if inRate == targetRate {
		return &passthrough{}
	}
	switch mode {
	case ModeSincFast:
		return newSincConverter(sincFastParams, inRate, targetRate)
	case ModeSinc:
		return newSincConverter(sincQualityParams, inRate, targetRate)
	default:
		return newLinearConverter(inRate, targetRate)
	}
}

// Process converts one callback's worth of interleaved f32 input (at
// inChannels channels) into little-endian stereo i16 PCM bytes. Must be
// called with Mu held by the caller (the capture callback already takes Mu
// for the duration of the call).
func (r *Resampler) Process(input []float32, inChannels int) []byte {
	if len(input) == 0 || inChannels <= 0 {
		return nil
	}
	out := make([]byte, 0, (len(input)/inChannels)*TargetChannels*2)
	return r.conv.process(input, inChannels, out)
}

// Observe accumulates frame count and elapsed monotonic time for one
// callback, and on crossing observeInterval, checks the observed rate
// against the current in_rate. If they differ (after rounding), it updates
// in_rate and rebuilds the DSP state; otherwise it emits a confirmation at
// most once per confirmLogInterval. Must be called with Mu held.
func (r *Resampler) Observe(frames int, elapsed time.Duration) {
	if frames <= 0 || elapsed <= 0 {
		return
	}
	r.accFrames += uint64(frames)
	r.accElapsed += elapsed

	if r.accElapsed < observeInterval {
		return
	}

	observedRate := uint32(float64(r.accFrames) / r.accElapsed.Seconds())
	r.accFrames = 0
	r.accElapsed = 0

	if observedRate != r.inRate && observedRate > 0 {
		old := r.inRate
		r.inRate = observedRate
		r.conv = newConverter(r.mode, r.inRate, r.targetRate)
		r.lastRebuild = time.Now()
		r.observer.RateChanged(old, observedRate)
		return
	}

	now := time.Now()
	if now.Sub(r.lastConfirm) >= confirmLogInterval {
		r.lastConfirm = now
		r.observer.RateConfirmed(r.inRate)
	}
}

// InRate returns the resampler's current view of the input rate.
func (r *Resampler) InRate() uint32 {
	return r.inRate
}

// mapChannels applies the spec's fixed channel map:
// 0 -> (0,0); 1 -> (s,s); >=2 -> (frame[0], frame[1]), extras discarded.
func mapChannels(frame []float32, channels int) (left, right float32) {
	switch channels {
	case 0:
		return 0, 0
	case 1:
		return frame[0], frame[0]
	default:
		return frame[0], frame[1]
	}
}

// quantize performs the saturating clamp(-1,1)*32767 truncation to i16.
func quantize(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return int16(x * 32767)
}

// appendI16LE appends one little-endian i16 sample to out.
func appendI16LE(out []byte, sample int16) []byte {
	u := uint16(sample)
	return append(out, byte(u), byte(u>>8))
}
