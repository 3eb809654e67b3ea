// Package install writes the systemd unit for the agent and enables it,
// for the "agent install" subcommand.
package install

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/loxone-community/lox-linein-bridge/internal/identity"
)

// UnitPath is where the systemd unit is written.
const UnitPath = "/etc/systemd/system/lox-linein-bridge.service"

// serviceName is the systemd unit name passed to systemctl enable/start.
const serviceName = "lox-linein-bridge"

// execPath is the binary path baked into the unit's ExecStart.
const execPath = "/usr/local/bin/lox-linein-bridge"

// Run loads or creates the identity (so a first install also seeds it),
// writes the systemd unit, reloads the daemon, and enables+starts the
// service.
func Run(log *slog.Logger) error {
	_, path, err := identity.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("load or create identity: %w", err)
	}
	log.Info("identity ready", "path", path)

	if err := os.WriteFile(UnitPath, []byte(systemdUnit()), 0o644); err != nil {
		return fmt.Errorf("write systemd unit %s: %w", UnitPath, err)
	}
	log.Info("wrote systemd unit", "path", UnitPath)

	if err := runSystemctl("daemon-reload"); err != nil {
		return err
	}
	if err := runSystemctl("enable", "--now", serviceName); err != nil {
		return err
	}
	return nil
}

func systemdUnit() string {
	lines := []string{
		"[Unit]",
		"Description=Lox Line-in Bridge",
		"After=network-online.target",
		"",
		"[Service]",
		"Type=simple",
		"ExecStart=" + execPath + " run",
		"Restart=always",
		"RestartSec=2",
		"",
		"[Install]",
		"WantedBy=multi-user.target",
		"",
	}
	return strings.Join(lines, "\n")
}

func runSystemctl(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
