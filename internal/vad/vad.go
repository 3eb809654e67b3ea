// Package vad implements the amplitude gate used to decide whether a PCM
// chunk should reach the ingest endpoint: an RMS-dBFS envelope detector with
// a hold timer for hysteresis, plus a track-boundary detector that raises a
// one-shot flag when activity resumes after a sufficiently long silence.
package vad

import (
	"math"
	"time"
)

// TrackGap is the minimum preceding silence duration, per spec, after which
// a rising edge is considered the start of a new track rather than a brief
// dropout within the same track.
const TrackGap = 2000 * time.Millisecond

// FloorDB is the dBFS value reported for a chunk whose RMS is exactly zero.
const FloorDB = -100.0

// Envelope computes the RMS dBFS of a little-endian signed 16-bit PCM
// buffer, normalized by 32767. ok is false for an empty chunk, in which case
// the envelope is undefined and no gate transition should occur.
func Envelope(pcm []byte) (db float64, ok bool) {
	n := len(pcm) / 2
	if n == 0 {
		return 0, false
	}

	var sumSquares float64
	for i := 0; i < n; i++ {
		sample := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		normalized := float64(sample) / 32767.0
		sumSquares += normalized * normalized
	}

	rms := math.Sqrt(sumSquares / float64(n))
	if rms <= 0 {
		return FloorDB, true
	}
	return 20 * math.Log10(rms), true
}

// Params are the hot-swappable gate parameters.
type Params struct {
	ThresholdDB float64
	Hold        time.Duration
}

// Transition reports what changed, if anything, during a call to Update.
type Transition struct {
	// Changed is true if Active flipped during this call.
	Changed bool
	// Active is the gate's state after this call.
	Active bool
	// TrackChange is true when this rising edge followed a silence of at
	// least TrackGap — callers should raise the one-shot flag in the status
	// register when this is set.
	TrackChange bool
}

// Gate tracks the hysteretic open/closed state of the VAD, plus the
// track-boundary detector described in the spec: a falling edge records
// idleSince; a rising edge that follows at least TrackGap of silence raises
// TrackChange and clears idleSince.
type Gate struct {
	params Params

	active     bool
	lastActive time.Time
	idleSince  time.Time
	hasIdle    bool
}

// New creates a Gate with the given initial parameters. The gate starts
// closed and idle as of now, so the first activation after startup is
// itself eligible to be a track boundary once TrackGap has elapsed.
func New(params Params) *Gate {
	return &Gate{params: params, idleSince: time.Now(), hasIdle: true}
}

// SetParams swaps the gate parameters atomically without resetting Active or
// the hold timer — used for the hot VAD-only reconfiguration path.
func (g *Gate) SetParams(params Params) {
	g.params = params
}

// Active reports the gate's current state.
func (g *Gate) Active() bool {
	return g.active
}

// Update feeds one chunk's envelope through the hysteresis state machine and
// returns what changed. now should be a monotonic-safe time.Time (e.g.
// time.Now()); db is the chunk's RMS dBFS as returned by Envelope.
func (g *Gate) Update(db float64, now time.Time) Transition {
	wasActive := g.active

	switch {
	case db >= g.params.ThresholdDB:
		g.active = true
		g.lastActive = now
	case !g.lastActive.IsZero() && now.Sub(g.lastActive) <= g.params.Hold:
		// sustain: remain active within the hold window
	default:
		g.active = false
	}

	t := Transition{Active: g.active}

	if g.active && !wasActive {
		t.Changed = true
		if g.hasIdle && now.Sub(g.idleSince) >= TrackGap {
			t.TrackChange = true
		}
		g.hasIdle = false
	} else if !g.active && wasActive {
		t.Changed = true
		g.idleSince = now
		g.hasIdle = true
	}

	return t
}
