package control

import "github.com/loxone-community/lox-linein-bridge/internal/apiclient"

// StreamKey is the subset of RuntimeConfig whose change forces a pipeline
// restart. A change to VADThresholdDB or VADHoldMS alone never appears here
// and is instead delivered hot through the VAD watch channel.
type StreamKey struct {
	AssignedInputID  string
	IngestWSURL      string
	IngestTCPHost    string
	IngestTCPPort    int
	CaptureDevice    string
	IngestSampleRate int
	IngestResampler  string
}

// Ready mirrors the spec's readiness invariant: an assigned input and
// capture device are set, and at least one ingest transport is fully
// specified.
func Ready(cfg apiclient.RuntimeConfig) bool {
	if cfg.AssignedInputID == nil || *cfg.AssignedInputID == "" {
		return false
	}
	if cfg.CaptureDevice == nil || *cfg.CaptureDevice == "" {
		return false
	}
	hasWS := cfg.IngestWSURL != nil && *cfg.IngestWSURL != ""
	hasTCP := cfg.IngestTCPHost != nil && *cfg.IngestTCPHost != "" && cfg.IngestTCPPort != nil
	return hasWS || hasTCP
}

// NewStreamKey builds the stream key from a ready RuntimeConfig. Callers
// must check Ready first; fields are read permissively (nil treated as
// zero value) so a partially-ready config still compares equal-or-not
// sensibly.
func NewStreamKey(cfg apiclient.RuntimeConfig) StreamKey {
	var key StreamKey
	if cfg.AssignedInputID != nil {
		key.AssignedInputID = *cfg.AssignedInputID
	}
	if cfg.IngestWSURL != nil {
		key.IngestWSURL = *cfg.IngestWSURL
	}
	if cfg.IngestTCPHost != nil {
		key.IngestTCPHost = *cfg.IngestTCPHost
	}
	if cfg.IngestTCPPort != nil {
		key.IngestTCPPort = *cfg.IngestTCPPort
	}
	if cfg.CaptureDevice != nil {
		key.CaptureDevice = *cfg.CaptureDevice
	}
	if cfg.IngestSampleRate != nil {
		key.IngestSampleRate = *cfg.IngestSampleRate
	}
	if cfg.IngestResampler != nil {
		key.IngestResampler = *cfg.IngestResampler
	}
	return key
}

// vadParams extracts the hot-swappable VAD pair from a RuntimeConfig,
// falling back to fallback's fields for whichever half is unset.
func vadParams(cfg apiclient.RuntimeConfig, fallback vadParamsMS) vadParamsMS {
	p := fallback
	if cfg.VADThresholdDB != nil {
		p.ThresholdDB = *cfg.VADThresholdDB
	}
	if cfg.VADHoldMS != nil {
		p.HoldMS = *cfg.VADHoldMS
	}
	return p
}

// vadParamsMS mirrors vad.Params with an integer millisecond hold, matching
// the wire representation in RuntimeConfig.
type vadParamsMS struct {
	ThresholdDB float64
	HoldMS      int
}
