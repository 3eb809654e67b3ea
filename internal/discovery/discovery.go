// Package discovery browses for the central server via mDNS/DNS-SD and
// resolves its registration/status endpoints from TXT records.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type advertised by the central server.
const ServiceType = "_loxaudio._tcp"

// Domain is the mDNS domain browsed for ServiceType.
const Domain = "local."

// BrowseWindow is how long one browse attempt listens for responses before
// giving up, per the control loop's discovery step.
const BrowseWindow = 8 * time.Second

// Server is a discovered central server endpoint.
type Server struct {
	BaseURL      string
	RegisterPath string
	StatusPath   string
	TXT          map[string]string
}

// candidate pairs a resolved entry with the TXT-derived tie-break keys.
type candidate struct {
	server Server
	mac    string
	name   string
}

// Browse runs one BrowseWindow-long mDNS lookup and returns the
// highest-priority server found, preferring an entry whose TXT `mac` or
// `name` matches preferredMAC/preferredName (in that order) when both are
// present; otherwise the first entry seen.
func Browse(ctx context.Context, preferredMAC, preferredName *string) (Server, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return Server{}, fmt.Errorf("create mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 8)
	var candidates []candidate

	browseCtx, cancel := context.WithTimeout(ctx, BrowseWindow)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			candidates = append(candidates, toCandidate(entry))
		}
	}()

	if err := resolver.Browse(browseCtx, ServiceType, Domain, entries); err != nil {
		return Server{}, fmt.Errorf("browse %s: %w", ServiceType, err)
	}

	<-browseCtx.Done()
	<-done

	if len(candidates) == 0 {
		return Server{}, fmt.Errorf("no %s service found within %s", ServiceType, BrowseWindow)
	}

	return pickBest(candidates, preferredMAC, preferredName), nil
}

func toCandidate(entry *zeroconf.ServiceEntry) candidate {
	txt := parseTXT(entry.Text)

	host := entry.HostName
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	}
	baseURL := fmt.Sprintf("http://%s:%d", strings.TrimSuffix(host, "."), entry.Port)

	api := txt["api"]
	if api == "" {
		api = "/api"
	}

	registerPath := txt["linein_register"]
	if registerPath == "" {
		registerPath = api + "/linein/bridges/register"
	}

	// statusPath keeps Go's fmt-style "%s" placeholder for the bridge ID; the
	// TXT record (and our own default) spell it "{bridge_id}" instead.
	statusPath := txt["linein_status"]
	if statusPath == "" {
		statusPath = api + "/linein/bridges/{bridge_id}/status"
	}
	statusPath = strings.ReplaceAll(statusPath, "{bridge_id}", "%s")

	return candidate{
		server: Server{
			BaseURL:      baseURL,
			RegisterPath: registerPath,
			StatusPath:   statusPath,
			TXT:          txt,
		},
		mac:  txt["mac"],
		name: txt["name"],
	}
}

func parseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		key, value, found := strings.Cut(r, "=")
		if !found {
			continue
		}
		out[key] = value
	}
	return out
}

// pickBest applies the preference tie-break: an exact MAC match wins over an
// exact name match, which wins over discovery order.
func pickBest(candidates []candidate, preferredMAC, preferredName *string) Server {
	if preferredMAC != nil {
		for _, c := range candidates {
			if c.mac != "" && c.mac == *preferredMAC {
				return c.server
			}
		}
	}
	if preferredName != nil {
		for _, c := range candidates {
			if c.name != "" && c.name == *preferredName {
				return c.server
			}
		}
	}

	return candidates[0].server
}
