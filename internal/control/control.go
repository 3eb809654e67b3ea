// Package control implements the agent's control plane: the startup
// sequence (identity, discovery, registration) and the two steady-state
// goroutines — the status exchanger and the pipeline supervisor — that
// keep the audio pipeline running and reconfigurable without a process
// restart.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loxone-community/lox-linein-bridge/internal/apiclient"
	"github.com/loxone-community/lox-linein-bridge/internal/backoff"
	"github.com/loxone-community/lox-linein-bridge/internal/discovery"
	"github.com/loxone-community/lox-linein-bridge/internal/identity"
	"github.com/loxone-community/lox-linein-bridge/internal/status"
	"github.com/loxone-community/lox-linein-bridge/internal/vad"
	"github.com/loxone-community/lox-linein-bridge/internal/watch"
)

// Version is reported in the registration request.
const Version = "0.1.0"

// discoveryRetry is the fixed retry interval for discovery failures, per
// the control loop's startup step 2.
const discoveryRetry = 5 * time.Second

// Loop owns the agent's control-plane state for one process lifetime.
type Loop struct {
	register *status.Register
	log      *slog.Logger

	client   *apiclient.Client
	bridgeID string

	cfgWatch *watch.Value[apiclient.RuntimeConfig]
	vadWatch *watch.Value[vad.Params]

	mu             sync.Mutex
	lastCfg        apiclient.RuntimeConfig
	lastVAD        vadParamsMS
	lastDeviceHash uint64
}

// NewLoop creates a Loop reporting into register and logging via log.
func NewLoop(register *status.Register, log *slog.Logger) *Loop {
	return &Loop{register: register, log: log}
}

// Run executes the startup sequence, then blocks running the status
// exchanger and pipeline supervisor until ctx is cancelled. Per the
// restart policy, Run only returns on a fatal startup error or ctx
// cancellation — no steady-state failure makes it exit.
func (l *Loop) Run(ctx context.Context) error {
	id, idPath, err := identity.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("load or create identity: %w", err)
	}
	l.bridgeID = id.BridgeID
	l.log.Info("identity loaded", "bridge_id", id.BridgeID, "path", idPath)

	server, err := l.discoverWithRetry(ctx, id.PreferredServerMAC, id.PreferredServerName)
	if err != nil {
		return err
	}
	l.log.Info("server discovered", "base_url", server.BaseURL)

	l.client = apiclient.New(server.BaseURL, server.RegisterPath, server.StatusPath)

	devices, err := enumerateDeviceDescriptors()
	if err != nil {
		l.log.Warn("capture device enumeration failed, registering with an empty list", "error", err)
		devices = nil
	}

	cfg, err := l.registerWithRetry(ctx, devices)
	if err != nil {
		return err
	}
	l.log.Info("registered", "assigned_input_id", derefOrEmpty(cfg.AssignedInputID))

	l.mu.Lock()
	l.lastCfg = cfg
	l.lastVAD = vadParams(cfg, vadParamsMS{ThresholdDB: defaultVADThresholdDB, HoldMS: defaultVADHoldMS})
	l.lastDeviceHash = deviceListHash(devices)
	l.mu.Unlock()

	l.cfgWatch = watch.New(cfg)
	l.vadWatch = watch.New(vad.Params{ThresholdDB: l.lastVAD.ThresholdDB, Hold: time.Duration(l.lastVAD.HoldMS) * time.Millisecond})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		l.statusExchanger(ctx)
	}()
	go func() {
		defer wg.Done()
		l.pipelineSupervisor(ctx)
	}()
	wg.Wait()

	return ctx.Err()
}

// discoverWithRetry browses for the server, retrying every discoveryRetry
// until one is found or ctx is cancelled.
func (l *Loop) discoverWithRetry(ctx context.Context, preferredMAC, preferredName *string) (discovery.Server, error) {
	for {
		server, err := discovery.Browse(ctx, preferredMAC, preferredName)
		if err == nil {
			return server, nil
		}
		l.register.SetLastError(err)
		l.log.Warn("discovery failed, retrying", "error", err, "retry_in", discoveryRetry)

		select {
		case <-ctx.Done():
			return discovery.Server{}, ctx.Err()
		case <-time.After(discoveryRetry):
		}
	}
}

// registerWithRetry posts the registration request with capped exponential
// backoff until it succeeds or ctx is cancelled.
func (l *Loop) registerWithRetry(ctx context.Context, devices []apiclient.CaptureDeviceInfo) (apiclient.RuntimeConfig, error) {
	var bp backoff.Policy
	req := apiclient.RegistrationRequest{
		BridgeID:        l.bridgeID,
		Hostname:        hostname(),
		SoftwareVersion: Version,
		LocalIPv4:       localIPv4(),
		MAC:             primaryMAC(),
		CaptureDevices:  devices,
	}
	for {
		cfg, err := l.client.Register(ctx, req)
		if err == nil {
			return cfg, nil
		}
		l.register.SetLastError(err)
		wait := bp.Next()
		l.log.Warn("registration failed, retrying", "error", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			return apiclient.RuntimeConfig{}, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
