package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loxone-community/lox-linein-bridge/internal/backoff"
	"github.com/loxone-community/lox-linein-bridge/internal/status"
	"github.com/loxone-community/lox-linein-bridge/internal/vad"
	"github.com/loxone-community/lox-linein-bridge/internal/watch"
)

// throughputInterval is how often observed throughput is logged while
// streaming, per the spec's 5s cadence.
const throughputInterval = 5 * time.Second

// bytesPerFrame is the stereo i16 frame size, used to estimate a frame rate
// from observed bytes/s for logging only.
const bytesPerFrame = 4

// NewTransport builds the configured Transport for a Target: WebSocket when
// a URL is present, framed TCP otherwise. Exactly one is expected to be
// set by the control loop's stream-key computation.
func NewTransport(target Target, assignedInput string) Transport {
	if target.WSURL != "" {
		return newWSTransport(target.WSURL)
	}
	return newTCPTransport(target.Host, target.Port, assignedInput)
}

// Session is the supervisory shell shared by both transports: it owns the
// live Transport, the VAD gate, and the reconnect-with-backoff state
// machine described in the ingest client's design.
type Session struct {
	transport Transport
	target    Target
	register  *status.Register
	gate      *vad.Gate
	vadWatch  *watch.Value[vad.Params]
	log       *slog.Logger

	bp *backoff.Policy

	bytesSinceLog uint64
	lastLogAt     time.Time
}

// NewSession wires a Session around an already-constructed Transport. The
// gate is owned by the session so hot VAD reconfiguration (event c) can
// swap its parameters without tearing down the transport.
func NewSession(transport Transport, target Target, register *status.Register, gate *vad.Gate, vadWatch *watch.Value[vad.Params], log *slog.Logger) *Session {
	return &Session{
		transport: transport,
		target:    target,
		register:  register,
		gate:      gate,
		vadWatch:  vadWatch,
		log:       log,
		bp:        &backoff.Policy{},
	}
}

// Run drives the session until ctx is cancelled or a capture error arrives,
// in which case it is returned so the caller can decide whether to rebuild
// the pipeline. chunks carries raw capture PCM ready for the VAD gate;
// captureErrs carries terminal capture failures.
func (s *Session) Run(ctx context.Context, chunks <-chan []byte, captureErrs <-chan error) error {
	connected := false
	s.register.SetIngestLabel(s.target.Label())
	s.lastLogAt = time.Now()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !connected {
			s.register.SetState(status.StateReconnecting)
			if err := s.transport.Dial(ctx); err != nil {
				s.register.SetLastError(err)
				s.log.Warn("ingest dial failed", "target", s.target.Label(), "error", err)
				wait := s.bp.Next()
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
				continue
			}
			connected = true
			s.bp.Reset()
			s.register.SetLastError(nil)
			s.register.SetState(status.StateIdle)
			s.log.Info("ingest connected", "target", s.target.Label())
		}

		select {
		case <-ctx.Done():
			s.transport.Close()
			return ctx.Err()

		case err, ok := <-captureErrs:
			s.transport.Close()
			if !ok {
				return fmt.Errorf("capture error channel closed")
			}
			return fmt.Errorf("capture failed: %w", err)

		case <-s.vadChanged():
			s.gate.SetParams(s.vadWatch.Get())

		case chunk, ok := <-chunks:
			if !ok {
				s.transport.Close()
				return nil
			}
			if err := s.handleChunk(ctx, chunk); err != nil {
				connected = false
				s.register.SetLastError(err)
				s.log.Warn("ingest send failed", "error", err)
				s.transport.Close()
			}
		}
	}
}

// vadChanged returns the watch's change signal, or nil (blocks forever in a
// select) when no watch is wired.
func (s *Session) vadChanged() <-chan struct{} {
	if s.vadWatch == nil {
		return nil
	}
	return s.vadWatch.Changed()
}

func (s *Session) handleChunk(ctx context.Context, chunk []byte) error {
	db, ok := vad.Envelope(chunk)
	if !ok {
		return nil
	}
	s.register.SetRMS(db)

	trans := s.gate.Update(db, time.Now())
	if trans.Changed {
		if trans.Active {
			s.log.Info("audio detected")
		} else {
			s.log.Info("silence detected")
		}
	}
	if trans.TrackChange {
		s.register.SetTrackChange()
	}

	if !s.gate.Active() {
		s.register.SetState(status.StateIdle)
		return nil
	}

	s.register.SetState(status.StateStreaming)
	if err := s.transport.Send(ctx, chunk); err != nil {
		return err
	}

	s.register.AddBytesSent(uint64(len(chunk)))
	s.bytesSinceLog += uint64(len(chunk))

	now := time.Now()
	if elapsed := now.Sub(s.lastLogAt); elapsed >= throughputInterval {
		bps := float64(s.bytesSinceLog) / elapsed.Seconds()
		s.log.Info("ingest throughput", "bytes_per_sec", bps, "frames_per_sec", bps/bytesPerFrame)
		s.bytesSinceLog = 0
		s.lastLogAt = now
	}

	return nil
}
