package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"marquee/internal/connectivity"
	"marquee/internal/daemon"
	"marquee/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the catalog enriched and refresh when the network returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg := ctx.config

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger := ctx.ensureLogger()
			logging.PruneLogs(logger, cfg.Paths.LogDir, "*.log", filepath.Join(cfg.Paths.LogDir, logging.LogFileName), cfg.Logging.RetentionDays)

			st := ctx.openCache()
			monitor := connectivity.NewFromConfig(cfg, logger)
			client, err := ctx.newClient(monitor, false)
			if err != nil {
				return err
			}
			orch := ctx.newOrchestrator(st, client)

			d, err := daemon.New(cfg, st, orch, monitor, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.Start(signalCtx); err != nil {
				return err
			}
			defer d.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching catalog (lock %s); press Ctrl+C to stop\n", cfg.LockPath())
			<-signalCtx.Done()

			status := d.Status()
			logger.Info("marquee watch shutting down",
				logging.String(logging.FieldEventType, "watch_stopped"),
				logging.Int("entities", status.Entities),
				logging.Bool("online", status.Online),
			)
			return nil
		},
	}
}
