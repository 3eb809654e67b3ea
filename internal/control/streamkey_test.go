package control

import (
	"testing"

	"github.com/loxone-community/lox-linein-bridge/internal/apiclient"
)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func testConfigWithTCP() apiclient.RuntimeConfig {
	return apiclient.RuntimeConfig{
		AssignedInputID:  strPtr("input-1"),
		IngestTCPHost:    strPtr("ingest.local"),
		IngestTCPPort:    intPtr(7090),
		CaptureDevice:    strPtr("USB Audio CODEC"),
		IngestSampleRate: intPtr(48000),
		IngestResampler:  strPtr("linear"),
	}
}

func TestReady_AllFieldsSetWithTCP(t *testing.T) {
	cfg := testConfigWithTCP()
	if !Ready(cfg) {
		t.Fatal("expected Ready with assigned input, device, and TCP target")
	}
}

func TestReady_MissingAssignedInput(t *testing.T) {
	cfg := testConfigWithTCP()
	cfg.AssignedInputID = nil
	if Ready(cfg) {
		t.Fatal("expected not Ready without an assigned input id")
	}
}

func TestReady_WSAloneIsSufficient(t *testing.T) {
	cfg := testConfigWithTCP()
	cfg.IngestTCPHost = nil
	cfg.IngestTCPPort = nil
	cfg.IngestWSURL = strPtr("ws://ingest.local:7090/audio")
	if !Ready(cfg) {
		t.Fatal("expected Ready with a WS URL and no TCP fields")
	}
}

func TestReady_PartialTCPIsNotReady(t *testing.T) {
	cfg := testConfigWithTCP()
	cfg.IngestTCPPort = nil
	if Ready(cfg) {
		t.Fatal("expected not Ready with host but no port")
	}
}

func TestNewStreamKey_Equality(t *testing.T) {
	a := NewStreamKey(testConfigWithTCP())
	b := NewStreamKey(testConfigWithTCP())
	if a != b {
		t.Fatalf("expected identical stream keys, got %+v vs %+v", a, b)
	}
}

func TestNewStreamKey_ChangesOnDeviceChange(t *testing.T) {
	a := NewStreamKey(testConfigWithTCP())
	cfg := testConfigWithTCP()
	cfg.CaptureDevice = strPtr("different device")
	b := NewStreamKey(cfg)
	if a == b {
		t.Fatal("expected different stream keys after a capture_device change")
	}
}

func TestNewStreamKey_UnchangedByVADFields(t *testing.T) {
	a := NewStreamKey(testConfigWithTCP())
	cfg := testConfigWithTCP()
	cfg.VADThresholdDB = floatPtr(-30)
	cfg.VADHoldMS = intPtr(500)
	b := NewStreamKey(cfg)
	if a != b {
		t.Fatal("expected identical stream keys when only VAD fields change")
	}
}
