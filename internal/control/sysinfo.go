package control

import (
	"fmt"
	"net"
	"os"

	"github.com/loxone-community/lox-linein-bridge/internal/apiclient"
	"github.com/loxone-community/lox-linein-bridge/internal/audio"
)

// defaultProbedRates is reported for every enumerated device: malgo's plain
// enumeration (ctx.Devices) gives a name and ID only, not a per-device
// capability range, and the teacher never probes further than that either.
// These are the two rates this agent actually negotiates against.
var defaultProbedRates = []uint32{44100, 48000}

// hostname returns the local hostname, or "unknown" if it cannot be
// determined.
func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// localIPv4 returns the first non-loopback IPv4 address found on an
// up interface, or "" if none is found.
func localIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

// primaryMAC returns the hardware address of the first up, non-loopback
// interface that has one, or "" if none is found.
func primaryMAC() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String()
	}
	return ""
}

// enumerateDeviceDescriptors lists capture devices in the registration
// request's wire shape.
func enumerateDeviceDescriptors() ([]apiclient.CaptureDeviceInfo, error) {
	devices, err := audio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}
	out := make([]apiclient.CaptureDeviceInfo, len(devices))
	for i, d := range devices {
		out[i] = apiclient.CaptureDeviceInfo{
			ID:          fmt.Sprintf("%v", d.ID),
			DisplayName: d.DisplayName,
			MaxChannels: 2,
			SampleRates: defaultProbedRates,
		}
	}
	return out, nil
}
