package control

import (
	"hash/fnv"
	"strconv"

	"github.com/loxone-community/lox-linein-bridge/internal/apiclient"
)

// deviceListHash hashes the identity of a capture-device list (not its
// order-independent content in full, since the enumeration order from
// audio.Devices is already stable run-to-run). Used so the status
// exchanger only attaches the device list to a status post when it has
// actually changed since the last one.
func deviceListHash(devices []apiclient.CaptureDeviceInfo) uint64 {
	h := fnv.New64a()
	for _, d := range devices {
		_, _ = h.Write([]byte(d.ID))
		_, _ = h.Write([]byte(d.DisplayName))
		_, _ = h.Write([]byte(strconv.Itoa(d.MaxChannels)))
		for _, rate := range d.SampleRates {
			_, _ = h.Write([]byte(strconv.FormatUint(uint64(rate), 10)))
		}
	}
	return h.Sum64()
}
