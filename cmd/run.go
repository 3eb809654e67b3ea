package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/loxone-community/lox-linein-bridge/internal/config"
	"github.com/loxone-community/lox-linein-bridge/internal/control"
	"github.com/loxone-community/lox-linein-bridge/internal/health"
	"github.com/loxone-community/lox-linein-bridge/internal/logging"
	"github.com/loxone-community/lox-linein-bridge/internal/status"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the capture-to-ingest agent (default)",
	RunE:  runRun,
}

// runRun is the main entry point: it wires the status register, the health
// snapshot writer, and the control loop together and blocks until the
// process receives SIGINT/SIGTERM.
func runRun(_ *cobra.Command, _ []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(settings.LogFormat, settings.LogLevel, nil)
	log := logging.L("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	register := status.New()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		health.New(register, logging.L("health")).Run(ctx)
	}()

	go func() {
		defer wg.Done()
		if err := control.NewLoop(register, logging.L("control")).Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("control loop exited", "error", err)
		}
	}()

	wg.Wait()
	return nil
}
