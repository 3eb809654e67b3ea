// Package apiclient talks to the discovered central server's registration
// and status endpoints over plain JSON-over-HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CaptureDeviceInfo mirrors one entry in a registration request's device
// list.
type CaptureDeviceInfo struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	MaxChannels int      `json:"max_channels"`
	SampleRates []uint32 `json:"sample_rates"`
}

// RegistrationRequest is posted once at startup.
type RegistrationRequest struct {
	BridgeID        string              `json:"bridge_id"`
	Hostname        string              `json:"hostname"`
	SoftwareVersion string              `json:"software_version"`
	LocalIPv4       string              `json:"local_ipv4"`
	MAC             string              `json:"mac"`
	CaptureDevices  []CaptureDeviceInfo `json:"capture_devices"`
}

// StatusRequest is posted every 5s by the status exchanger. CaptureDevices is
// omitted unless the device list hash has changed since the last post.
type StatusRequest struct {
	Timestamp      string              `json:"ts"`
	State          string              `json:"state"`
	Device         string              `json:"device"`
	Ingest         string              `json:"ingest"`
	CaptureRate    uint32              `json:"capture_rate,omitempty"`
	Channels       uint32              `json:"channels,omitempty"`
	Format         string              `json:"format,omitempty"`
	RMSDB          float64             `json:"rms_db"`
	LastError      *string             `json:"last_error"`
	BytesSentTotal uint64              `json:"bytes_sent_total"`
	LastChunkTS    *string             `json:"last_chunk_ts"`
	TrackChange    bool                `json:"track_change"`
	CaptureDevices []CaptureDeviceInfo `json:"capture_devices,omitempty"`
}

// RuntimeConfig is the server's authoritative reply to both registration and
// status posts. Every field is optional so a partial update is natural.
type RuntimeConfig struct {
	AssignedInputID  *string  `json:"assigned_input_id"`
	IngestWSURL      *string  `json:"ingest_ws_url"`
	IngestTCPHost    *string  `json:"ingest_tcp_host"`
	IngestTCPPort    *int     `json:"ingest_tcp_port"`
	CaptureDevice    *string  `json:"capture_device"`
	VADThresholdDB   *float64 `json:"vad_threshold_db"`
	VADHoldMS        *int     `json:"vad_hold_ms"`
	IngestSampleRate *int     `json:"ingest_sample_rate"`
	IngestResampler  *string  `json:"ingest_resampler"`
}

// Client is a thin JSON-over-HTTP client for one discovered server.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	registerPath string
	statusPath   string
}

// New builds a Client for the given discovered endpoints.
func New(baseURL, registerPath, statusPath string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		registerPath: registerPath,
		statusPath:   statusPath,
	}
}

// Register posts the agent's registration and returns the seeded runtime
// configuration.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := c.postJSON(ctx, c.registerPath, req, &cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("register: %w", err)
	}
	return cfg, nil
}

// PostStatus posts one status snapshot for bridgeID and returns the server's
// (possibly partial) runtime-configuration reply as decoded; it does not
// merge it with any earlier configuration.
func (c *Client) PostStatus(ctx context.Context, bridgeID string, status StatusRequest) (RuntimeConfig, error) {
	path := fmt.Sprintf(c.statusPath, bridgeID)
	var cfg RuntimeConfig
	if err := c.postJSON(ctx, path, status, &cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("post status: %w", err)
	}
	return cfg, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
