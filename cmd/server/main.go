package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/microom-server/internal/app"
	"github.com/vovakirdan/microom-server/internal/config"
	"github.com/vovakirdan/microom-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "microom-server",
		Short:         "Room, mic and chat coordinator over WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLog := log.New("info")
			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)
			if cmd.Flags().Changed("report-errors") {
				cfg.ReportErrors = overrides.ReportErrors
			}
			if cmd.Flags().Changed("announce-rooms") {
				cfg.AnnounceRooms = overrides.AnnounceRooms
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting microom server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.New(&cfg, logger).Run(ctx); err != nil {
				return fmt.Errorf("server exited with error: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config file")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error, off)")
	flags.StringVar(&overrides.AllowedOrigin, "allowed-origin", "", "browser origin allowed to connect")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.BoolVar(&overrides.ReportErrors, "report-errors", true, "send typed error events to the requesting client")
	flags.BoolVar(&overrides.AnnounceRooms, "announce-rooms", false, "broadcast the room list to everyone when a room is created")

	cmd.SetContext(context.Background())
	return cmd
}
