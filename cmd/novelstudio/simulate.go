package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a fake NovelAI image API for local testing",
	Long: `Run a fake NovelAI image API that answers with solid colour images.

Point the proxy at it with upstream.base_url, for example:
  novelstudio simulate
  NOVELSTUDIO_UPSTREAM_BASE_URL=http://127.0.0.1:8091 novelstudio serve`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := simulator.New(cfg.Simulator)

	errCh := make(chan error, 1)

	go func() {
		errCh <- sim.Run()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Simulator listening on %s:%d\n", cfg.Simulator.Host, cfg.Simulator.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info(shutdownCtx, "stopping simulator")

	return sim.Shutdown(shutdownCtx)
}
