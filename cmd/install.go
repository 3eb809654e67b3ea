package cmd

import (
	"fmt"

	"github.com/loxone-community/lox-linein-bridge/internal/config"
	"github.com/loxone-community/lox-linein-bridge/internal/install"
	"github.com/loxone-community/lox-linein-bridge/internal/logging"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and enable the systemd service for this agent",
	RunE:  runInstall,
}

func runInstall(_ *cobra.Command, _ []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(settings.LogFormat, settings.LogLevel, nil)

	return install.Run(logging.L("install"))
}
