package control

import (
	"context"
	"log/slog"
	"time"

	"github.com/loxone-community/lox-linein-bridge/internal/audio"
	"github.com/loxone-community/lox-linein-bridge/internal/backoff"
	"github.com/loxone-community/lox-linein-bridge/internal/ingest"
	"github.com/loxone-community/lox-linein-bridge/internal/resample"
	"github.com/loxone-community/lox-linein-bridge/internal/status"
	"github.com/loxone-community/lox-linein-bridge/internal/vad"
)

const (
	defaultTargetRate     = 48000
	defaultResamplerMode  = resample.ModeSinc
	defaultVADThresholdDB = -45.0
	defaultVADHoldMS      = 2000
)

// pipelineSupervisor implements the spec's restart-on-stream-key-change
// loop: it never returns except when ctx is cancelled, matching the
// "process never exits on its own" restart policy.
func (l *Loop) pipelineSupervisor(ctx context.Context) {
	var bp backoff.Policy

	for ctx.Err() == nil {
		cfg := l.cfgWatch.Get()
		if !Ready(cfg) {
			l.register.SetState(status.StateIdle)
			select {
			case <-ctx.Done():
				return
			case <-l.cfgWatch.Changed():
				continue
			}
		}

		key := NewStreamKey(cfg)
		target := ingestTarget(key)

		targetRate := uint32(key.IngestSampleRate)
		if targetRate == 0 {
			targetRate = defaultTargetRate
		}
		mode := resample.Mode(key.IngestResampler)
		if mode == "" {
			mode = defaultResamplerMode
		}

		capture := audio.New(audio.Config{
			DeviceName: key.CaptureDevice,
			TargetRate: targetRate,
			Resampler:  mode,
		}, &rateObserver{log: l.log})

		if err := capture.Init(); err != nil {
			l.failAndBackoff(ctx, &bp, err)
			continue
		}
		if err := l.startSession(ctx, capture, key, target); err != nil && ctx.Err() == nil {
			l.failAndBackoff(ctx, &bp, err)
			continue
		}
		bp.Reset()
	}
}

// startSession runs one capture+ingest session until either it ends on its
// own (capture error, or ctx cancellation) or the stream key changes under
// it. It returns nil when ctx is cancelled, when the stream key changed, or
// when the session ended cleanly; any other return is treated as a session
// failure by the caller.
func (l *Loop) startSession(ctx context.Context, capture *audio.Capture, key StreamKey, target ingest.Target) error {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := capture.Start(sessionCtx); err != nil {
		capture.Close()
		return err
	}
	defer capture.Close()

	l.register.SetDevice(key.CaptureDevice)
	l.register.SetCaptureInfo(status.CaptureInfo{
		Rate:     capture.Info.Rate,
		Channels: capture.Info.Channels,
		Format:   capture.Info.Format,
	})
	l.register.SetLastError(nil)

	vadNow := l.vadWatch.Get()
	gate := vad.New(vadNow)
	transport := ingest.NewTransport(target, key.AssignedInputID)
	session := ingest.NewSession(transport, target, l.register, gate, l.vadWatch, l.log)

	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- session.Run(sessionCtx, capture.Chunks, capture.Errors)
	}()

	for {
		select {
		case <-ctx.Done():
			cancel()
			<-sessionDone
			return nil

		case err := <-sessionDone:
			return err

		case <-l.cfgWatch.Changed():
			newCfg := l.cfgWatch.Get()
			if !Ready(newCfg) || NewStreamKey(newCfg) != key {
				cancel()
				<-sessionDone
				return nil
			}
			// VAD-only change: the session's own watch select already
			// picked up the new parameters hot, nothing to do here.
		}
	}
}

func (l *Loop) failAndBackoff(ctx context.Context, bp *backoff.Policy, err error) {
	l.register.SetLastError(err)
	l.register.SetState(status.StateError)
	wait := bp.Next()
	l.log.Warn("pipeline start failed, retrying", "error", err, "retry_in", wait)

	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

// ingestTarget picks WebSocket when both are configured, per spec.md's
// control-loop step 2.
func ingestTarget(key StreamKey) ingest.Target {
	if key.IngestWSURL != "" {
		return ingest.Target{WSURL: key.IngestWSURL}
	}
	return ingest.Target{Host: key.IngestTCPHost, Port: key.IngestTCPPort}
}

// rateObserver logs observed-rate changes and confirmations, adapting
// resample.RateObserver onto the agent's structured logger.
type rateObserver struct {
	log *slog.Logger
}

func (o *rateObserver) RateChanged(oldRate, newRate uint32) {
	o.log.Warn("observed capture rate changed, rebuilding resampler", "old_rate", oldRate, "new_rate", newRate)
}

func (o *rateObserver) RateConfirmed(rate uint32) {
	o.log.Debug("observed capture rate confirmed", "rate", rate)
}
