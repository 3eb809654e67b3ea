// Package config binds the agent's small CLI surface (log level and
// format) through viper, so every setting can come from a flag or its
// matching environment variable.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppName, with its hyphens replaced by underscores, is the viper
// environment-variable prefix (e.g. LOX_LINEIN_BRIDGE_LOG_LEVEL).
const AppName = "lox-linein-bridge"

// Settings holds the agent's process-wide settings.
type Settings struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Init sets defaults and wires environment-variable binding. Flags are
// bound to viper keys by cmd's init(), before Init runs.
func Init() error {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	viper.SetEnvPrefix(strings.ReplaceAll(AppName, "-", "_"))
	viper.AutomaticEnv()

	return nil
}

// Get returns the current settings and validates them.
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that settings hold recognized values.
func (s *Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", s.LogFormat)
	}
	return nil
}
