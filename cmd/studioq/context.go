package main

import (
	"context"

	"studioq/internal/api"
	"studioq/internal/archive"
	"studioq/internal/config"
	"studioq/internal/logging"
	"studioq/internal/notifications"
	"studioq/internal/queue"
)

// commandContext carries lazily loaded configuration shared by subcommands.
type commandContext struct {
	configFlag *string

	cfg     *config.Config
	cfgPath string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolvedPath, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = resolvedPath
	return cfg, nil
}

// withService opens the configured stores for one command invocation. The
// store files carry their own locks, so a CLI run while the daemon is up
// cannot interleave a write mid-rewrite.
func (c *commandContext) withService(ctx context.Context, fn func(context.Context, *api.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	archiveStore, err := archive.Open(cfg)
	if err != nil {
		return err
	}
	defer archiveStore.Close()

	svc := api.NewService(store, archiveStore, notifications.NewRegistry(), logging.NewNop())
	return fn(ctx, svc)
}
