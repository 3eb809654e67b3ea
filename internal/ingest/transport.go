// Package ingest implements the two wire transports to the central ingest
// endpoint (framed TCP and WebSocket) behind a shared supervisory loop:
// dial-with-backoff, gate-then-send, and throughput logging.
package ingest

import (
	"context"
	"fmt"
)

// Transport is the minimal interface the supervisory session drives. Both
// implementations treat any write error as a disconnect — there is no
// framing or backchannel to distinguish partial failure from a clean close.
type Transport interface {
	// Dial establishes the connection. Dial is called again after every
	// disconnect; implementations must be safe to reuse after Close.
	Dial(ctx context.Context) error
	// Send writes one chunk of raw PCM. A non-nil error means the
	// transport is no longer usable and Close should be called.
	Send(ctx context.Context, pcm []byte) error
	// Close releases any underlying connection. Safe to call on an
	// already-closed or never-dialed transport.
	Close() error
}

// Target names the one configured transport. Exactly one of WS or (Host,
// Port) is expected to be set; the control loop decides precedence.
type Target struct {
	WSURL string
	Host  string
	Port  int
}

// Label returns a human-readable description for status/health reporting.
func (t Target) Label() string {
	if t.WSURL != "" {
		return t.WSURL
	}
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}
