package control

import (
	"testing"

	"github.com/loxone-community/lox-linein-bridge/internal/apiclient"
)

func TestMergeRuntimeConfig_PartialReplyKeepsUnsetFields(t *testing.T) {
	prev := testConfigWithTCP()
	reply := apiclient.RuntimeConfig{VADThresholdDB: floatPtr(-30)}

	merged := mergeRuntimeConfig(prev, reply)

	if !equalFloatPtr(merged.VADThresholdDB, floatPtr(-30)) {
		t.Fatalf("expected VADThresholdDB to be updated, got %v", merged.VADThresholdDB)
	}
	if !equalStringPtr(merged.CaptureDevice, prev.CaptureDevice) {
		t.Fatalf("expected CaptureDevice to be preserved, got %v", merged.CaptureDevice)
	}
}

func TestRuntimeConfigEqual_TrueForFreshPointersWithSameValues(t *testing.T) {
	a := testConfigWithTCP()
	b := testConfigWithTCP() // distinct pointers, identical values

	if !runtimeConfigEqual(a, b) {
		t.Fatal("expected equal configs with distinct pointers to compare equal")
	}
}

func TestRuntimeConfigEqual_FalseOnValueDifference(t *testing.T) {
	a := testConfigWithTCP()
	b := testConfigWithTCP()
	b.CaptureDevice = strPtr("a different device")

	if runtimeConfigEqual(a, b) {
		t.Fatal("expected configs with different devices to compare unequal")
	}
}

func TestDeviceListHash_StableForSameInput(t *testing.T) {
	devices := []apiclient.CaptureDeviceInfo{
		{ID: "dev-1", DisplayName: "USB Audio", MaxChannels: 2, SampleRates: []uint32{44100, 48000}},
	}
	a := deviceListHash(devices)
	b := deviceListHash(devices)
	if a != b {
		t.Fatal("expected deviceListHash to be stable for identical input")
	}
}

func TestDeviceListHash_ChangesWithDeviceList(t *testing.T) {
	a := deviceListHash([]apiclient.CaptureDeviceInfo{{ID: "dev-1", DisplayName: "USB Audio"}})
	b := deviceListHash([]apiclient.CaptureDeviceInfo{{ID: "dev-2", DisplayName: "Built-in Mic"}})
	if a == b {
		t.Fatal("expected different device lists to hash differently")
	}
}

func TestIngestTarget_PrefersWebSocket(t *testing.T) {
	key := StreamKey{IngestWSURL: "ws://ingest.local/audio", IngestTCPHost: "ingest.local", IngestTCPPort: 7090}
	target := ingestTarget(key)
	if target.WSURL != key.IngestWSURL {
		t.Fatalf("expected WS target preferred, got %+v", target)
	}
}

func TestIngestTarget_FallsBackToTCP(t *testing.T) {
	key := StreamKey{IngestTCPHost: "ingest.local", IngestTCPPort: 7090}
	target := ingestTarget(key)
	if target.Host != "ingest.local" || target.Port != 7090 {
		t.Fatalf("expected TCP target, got %+v", target)
	}
}
