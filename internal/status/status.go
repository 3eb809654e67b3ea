// Package status implements the shared pipeline status register: a single
// mutex-guarded snapshot of pipeline state, capture metadata, VAD metrics,
// bytes sent, and the last error, read by both the control-plane status
// exchanger and the health snapshot writer.
package status

import (
	"sync"

	"github.com/loxone-community/lox-linein-bridge/internal/clock"
)

// State is the coarse pipeline state reported in status and health
// snapshots.
type State string

const (
	// StateIdle is the resting state: no ingest target, or the gate closed.
	StateIdle State = "IDLE"
	// StateReconnecting is entered whenever the transport is being (re)dialed.
	StateReconnecting State = "RECONNECTING"
	// StateStreaming is the state while bytes are flowing to the ingest endpoint.
	StateStreaming State = "STREAMING"
	// StateError is a terminal-for-this-session marker before the supervisor retries.
	StateError State = "ERROR"
)

// CaptureInfo describes the negotiated capture stream parameters.
type CaptureInfo struct {
	Rate     uint32
	Channels uint32
	Format   string
}

// HealthSnapshot is the subset of status serialized to the health file.
type HealthSnapshot struct {
	Timestamp      string  `json:"ts"`
	State          State   `json:"state"`
	Device         string  `json:"device"`
	Ingest         string  `json:"ingest"`
	LastError      *string `json:"last_error"`
	BytesSentTotal uint64  `json:"bytes_sent_total"`
	LastChunkTS    *string `json:"last_chunk_ts"`
}

// ControlSnapshot is posted to the server's status endpoint. Reading it
// clears the one-shot TrackChange flag, so the edge is reported exactly
// once.
type ControlSnapshot struct {
	Timestamp      string
	State          State
	Device         string
	Ingest         string
	CaptureInfo    CaptureInfo
	RMSDB          float64
	LastError      *string
	BytesSentTotal uint64
	LastChunkTS    *string
	TrackChange    bool
}

// Register is the single shared mutable snapshot of pipeline state. Setters
// never hold the lock across I/O; readers never block capture for more than
// a trivial field copy.
type Register struct {
	mu sync.Mutex

	state          State
	device         string
	ingest         string
	capture        CaptureInfo
	rmsDB          float64
	lastError      *string
	bytesSentTotal uint64
	lastChunkTS    *string
	trackChange    bool
}

// New creates an empty Register in StateIdle.
func New() *Register {
	return &Register{state: StateIdle}
}

// SetState updates the coarse pipeline state.
func (r *Register) SetState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// SetDevice records the active capture device's display name.
func (r *Register) SetDevice(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.device = name
}

// SetIngestLabel records a human-readable description of the ingest target
// (e.g. the dialed host:port or WebSocket URL).
func (r *Register) SetIngestLabel(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingest = label
}

// SetCaptureInfo records the negotiated capture stream parameters.
func (r *Register) SetCaptureInfo(info CaptureInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capture = info
}

// SetRMS records the most recently computed RMS dBFS value.
func (r *Register) SetRMS(db float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rmsDB = db
}

// SetTrackChange raises the one-shot track-change flag. It is cleared by the
// next call to ControlSnapshot.
func (r *Register) SetTrackChange() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackChange = true
}

// AddBytesSent adds n to the monotonic bytes-sent counter and stamps the
// last-chunk wall-clock time.
func (r *Register) AddBytesSent(n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytesSentTotal += n
	ts := clock.NowRFC3339()
	r.lastChunkTS = &ts
}

// SetLastError records the most recent failure of any kind, or clears it
// when err is nil.
func (r *Register) SetLastError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.lastError = nil
		return
	}
	msg := err.Error()
	r.lastError = &msg
}

// HealthSnapshot returns a read-only copy for the health file writer. It has
// no side effects.
func (r *Register) HealthSnapshot() HealthSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return HealthSnapshot{
		Timestamp:      clock.NowRFC3339(),
		State:          r.state,
		Device:         r.device,
		Ingest:         r.ingest,
		LastError:      r.lastError,
		BytesSentTotal: r.bytesSentTotal,
		LastChunkTS:    r.lastChunkTS,
	}
}

// ControlSnapshot returns a copy for the status exchanger and atomically
// clears TrackChange, so a rising edge is reported on exactly one status
// exchange.
func (r *Register) ControlSnapshot() ControlSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ControlSnapshot{
		Timestamp:      clock.NowRFC3339(),
		State:          r.state,
		Device:         r.device,
		Ingest:         r.ingest,
		CaptureInfo:    r.capture,
		RMSDB:          r.rmsDB,
		LastError:      r.lastError,
		BytesSentTotal: r.bytesSentTotal,
		LastChunkTS:    r.lastChunkTS,
		TrackChange:    r.trackChange,
	}
	r.trackChange = false
	return snap
}
