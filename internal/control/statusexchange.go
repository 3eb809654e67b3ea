package control

import (
	"context"
	"time"

	"github.com/loxone-community/lox-linein-bridge/internal/apiclient"
	"github.com/loxone-community/lox-linein-bridge/internal/vad"
)

// statusInterval is the fixed status-exchange cadence.
const statusInterval = 5 * time.Second

// statusExchanger posts a status snapshot every statusInterval, merges the
// reply into the runtime configuration, and republishes whichever watch
// channels actually changed.
func (l *Loop) statusExchanger(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.exchangeOnce(ctx)
		}
	}
}

func (l *Loop) exchangeOnce(ctx context.Context) {
	snap := l.register.ControlSnapshot()

	l.mu.Lock()
	previous := l.lastCfg
	previousVAD := l.lastVAD
	previousHash := l.lastDeviceHash
	l.mu.Unlock()

	devices, err := enumerateDeviceDescriptors()
	attachDevices := false
	hash := previousHash
	if err == nil {
		if h := deviceListHash(devices); h != previousHash {
			attachDevices = true
			hash = h
		}
	} else {
		l.log.Debug("device re-enumeration for status post failed", "error", err)
		devices = nil
	}

	req := apiclient.StatusRequest{
		Timestamp:      snap.Timestamp,
		State:          string(snap.State),
		Device:         snap.Device,
		Ingest:         snap.Ingest,
		CaptureRate:    snap.CaptureInfo.Rate,
		Channels:       snap.CaptureInfo.Channels,
		Format:         snap.CaptureInfo.Format,
		RMSDB:          snap.RMSDB,
		LastError:      snap.LastError,
		BytesSentTotal: snap.BytesSentTotal,
		LastChunkTS:    snap.LastChunkTS,
		TrackChange:    snap.TrackChange,
	}
	if attachDevices {
		req.CaptureDevices = devices
	}

	reply, err := l.client.PostStatus(ctx, l.bridgeID, req)
	if err != nil {
		// Server control-plane failures are locally recovered: log at debug,
		// keep the last known configuration, and keep going.
		l.log.Debug("status post failed, keeping last configuration", "error", err)
		l.register.SetLastError(err)
		return
	}
	l.register.SetLastError(nil)

	merged := mergeRuntimeConfig(previous, reply)

	l.mu.Lock()
	l.lastCfg = merged
	if attachDevices {
		l.lastDeviceHash = hash
	}
	l.mu.Unlock()

	if !runtimeConfigEqual(merged, previous) {
		l.cfgWatch.Set(merged)
	}

	mergedVAD := vadParams(reply, previousVAD)
	if mergedVAD != previousVAD {
		l.mu.Lock()
		l.lastVAD = mergedVAD
		l.mu.Unlock()
		l.vadWatch.Set(vad.Params{
			ThresholdDB: mergedVAD.ThresholdDB,
			Hold:        time.Duration(mergedVAD.HoldMS) * time.Millisecond,
		})
	}
}

// mergeRuntimeConfig applies a partial reply onto a prior configuration: a
// nil field in next means "unchanged", matching RuntimeConfig's
// partial-update contract.
func mergeRuntimeConfig(prev, next apiclient.RuntimeConfig) apiclient.RuntimeConfig {
	merged := prev
	if next.AssignedInputID != nil {
		merged.AssignedInputID = next.AssignedInputID
	}
	if next.IngestWSURL != nil {
		merged.IngestWSURL = next.IngestWSURL
	}
	if next.IngestTCPHost != nil {
		merged.IngestTCPHost = next.IngestTCPHost
	}
	if next.IngestTCPPort != nil {
		merged.IngestTCPPort = next.IngestTCPPort
	}
	if next.CaptureDevice != nil {
		merged.CaptureDevice = next.CaptureDevice
	}
	if next.VADThresholdDB != nil {
		merged.VADThresholdDB = next.VADThresholdDB
	}
	if next.VADHoldMS != nil {
		merged.VADHoldMS = next.VADHoldMS
	}
	if next.IngestSampleRate != nil {
		merged.IngestSampleRate = next.IngestSampleRate
	}
	if next.IngestResampler != nil {
		merged.IngestResampler = next.IngestResampler
	}
	return merged
}

// runtimeConfigEqual compares two RuntimeConfigs by dereferenced value:
// a fresh JSON decode allocates new pointers for identical values, so
// comparing the structs directly would report a change on every exchange.
func runtimeConfigEqual(a, b apiclient.RuntimeConfig) bool {
	return equalStringPtr(a.AssignedInputID, b.AssignedInputID) &&
		equalStringPtr(a.IngestWSURL, b.IngestWSURL) &&
		equalStringPtr(a.IngestTCPHost, b.IngestTCPHost) &&
		equalIntPtr(a.IngestTCPPort, b.IngestTCPPort) &&
		equalStringPtr(a.CaptureDevice, b.CaptureDevice) &&
		equalFloatPtr(a.VADThresholdDB, b.VADThresholdDB) &&
		equalIntPtr(a.VADHoldMS, b.VADHoldMS) &&
		equalIntPtr(a.IngestSampleRate, b.IngestSampleRate) &&
		equalStringPtr(a.IngestResampler, b.IngestResampler)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
