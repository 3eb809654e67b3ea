// Package cmd wires the agent's CLI surface: cobra for command parsing,
// viper for flag/env binding, run as the default subcommand.
package cmd

import (
	"fmt"
	"os"

	"github.com/loxone-community/lox-linein-bridge/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the agent's software version, reported at registration and by
// --version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "lox-linein-bridge",
	Short:   "Edge audio-capture bridge for Loxone line-in ingest",
	Long:    `lox-linein-bridge captures a local audio input, gates it with a voice-activity detector, and streams PCM to a discovered ingest server.`,
	Version: Version,
	RunE:    runRun,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "execution error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	cobra.CheckErr(viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format")))

	// Declared here so cobra uses -V, not its default -v, as the shorthand.
	rootCmd.Flags().BoolP("version", "V", false, "version for lox-linein-bridge")
	rootCmd.SetVersionTemplate("lox-linein-bridge {{.Version}}\n")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(installCmd)
}

func initConfig() {
	if err := config.Init(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
