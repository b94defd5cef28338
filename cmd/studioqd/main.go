package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"studioq/internal/api"
	"studioq/internal/archive"
	"studioq/internal/config"
	"studioq/internal/daemon"
	"studioq/internal/logging"
	"studioq/internal/notifications"
	"studioq/internal/queue"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:           "studioqd",
		Short:         "studioq content-generation queue daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFlag)
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	return cmd
}

func run(configPath string) error {
	// Local .env files override nothing; they only seed missing variables.
	_ = godotenv.Load()
	if configPath == "" {
		configPath = os.Getenv("STUDIOQ_CONFIG")
	}

	cfg, cfgPath, cfgExists, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	if cfgExists {
		logger.Info("configuration loaded", slog.String("path", cfgPath))
	} else {
		logger.Info("no configuration file found, using defaults", slog.String("path", cfgPath))
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	archiveStore, err := archive.Open(cfg)
	if err != nil {
		return fmt.Errorf("open archive store: %w", err)
	}
	defer archiveStore.Close()

	registry := notifications.NewRegistry()
	detach := notifications.AttachTerminal(registry, notifications.NewService(cfg))
	defer detach()

	svc := api.NewService(store, archiveStore, registry, logger)

	d, err := daemon.New(cfg, svc, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}
