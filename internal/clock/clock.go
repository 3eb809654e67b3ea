// Package clock provides wall-clock stamps for external messages and
// monotonic helpers for backoff, throttling, and hold timers. Wall-clock
// values are never used for ordering.
package clock

import "time"

// NowRFC3339 returns the current wall-clock time as an RFC3339 UTC string,
// suitable for status snapshots and health files.
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Since reports the monotonic elapsed time since t. Safe to call with a
// zero-value t; callers that need "no prior event" semantics should check
// t.IsZero() themselves.
func Since(t time.Time) time.Duration {
	return time.Since(t)
}
