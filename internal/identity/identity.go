// Package identity loads or creates the persisted bridge identity: a small
// TOML document carrying the bridge's stable ID and, optionally, a
// previously preferred server to re-bind to across restarts.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

const (
	systemConfigDir   = "/etc/lox-linein-bridge"
	fallbackConfigDir = ".config/lox-linein-bridge"
	configFile        = "config.toml"
)

// Identity is the persisted bridge identity document.
type Identity struct {
	BridgeID            string  `toml:"bridge_id"`
	PreferredServerName *string `toml:"preferred_server_name,omitempty"`
	PreferredServerMAC  *string `toml:"preferred_server_mac,omitempty"`
}

// PreferredPath is the system-wide identity location, tried first.
func PreferredPath() string {
	return filepath.Join(systemConfigDir, configFile)
}

// FallbackPath is the per-user identity location used when the system path
// is not writable.
func FallbackPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, fallbackConfigDir, configFile), nil
}

// LoadOrCreate loads the identity from the preferred path, falling back to
// the per-user path, and generates a fresh identity with a new UUID if
// neither exists or both are unreadable. A corrupt file found along the way
// is renamed to a ".invalid.<unix>" sibling rather than overwritten in
// place, so a human can inspect what went wrong.
func LoadOrCreate() (Identity, string, error) {
	preferred := PreferredPath()
	if _, err := os.Stat(preferred); err == nil {
		if id, err := loadFile(preferred); err == nil {
			return id, preferred, nil
		} else if backupErr := backupInvalid(preferred); backupErr != nil {
			return Identity{}, "", fmt.Errorf("backup invalid identity %s: %w", preferred, backupErr)
		}
	}

	fallback, err := FallbackPath()
	if err != nil {
		return Identity{}, "", err
	}
	if _, err := os.Stat(fallback); err == nil {
		if id, err := loadFile(fallback); err == nil {
			return id, fallback, nil
		} else if backupErr := backupInvalid(fallback); backupErr != nil {
			return Identity{}, "", fmt.Errorf("backup invalid identity %s: %w", fallback, backupErr)
		}
	}

	id := Identity{BridgeID: uuid.NewString()}
	path, err := Write(id)
	if err != nil {
		return Identity{}, "", fmt.Errorf("create identity: %w", err)
	}
	return id, path, nil
}

// Write serializes id as TOML to the preferred path, falling back to the
// per-user path if the preferred location cannot be written (e.g. no root).
func Write(id Identity) (string, error) {
	data, err := toml.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}

	preferred := PreferredPath()
	if err := tryWrite(preferred, data); err == nil {
		return preferred, nil
	}

	fallback, err := FallbackPath()
	if err != nil {
		return "", err
	}
	if err := tryWrite(fallback, data); err != nil {
		return "", fmt.Errorf("write fallback identity %s: %w", fallback, err)
	}
	return fallback, nil
}

func loadFile(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, fmt.Errorf("read %s: %w", path, err)
	}
	var id Identity
	if err := toml.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if id.BridgeID == "" {
		return Identity{}, fmt.Errorf("%s: missing bridge_id", path)
	}
	return id, nil
}

func backupInvalid(path string) error {
	backup := fmt.Sprintf("%s.invalid.%d", path, time.Now().Unix())
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("rename %s to %s: %w", path, backup, err)
	}
	return nil
}

func tryWrite(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
