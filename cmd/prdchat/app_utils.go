package main

import (
	"context"
	"log/slog"

	"github.com/prdforai/prdchat/src/app"
	"github.com/prdforai/prdchat/src/config"
	"github.com/prdforai/prdchat/src/orchestrator"
)

// loadConfig reads the config file and layers the CLI flags on top.
func loadConfig(cli *CLI) (*config.Config, error) {
	path := cli.Config
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cli.BaseURL != "" {
		cfg.BaseURL = cli.BaseURL
	}
	if cli.AuthToken != "" {
		cfg.AuthToken = cli.AuthToken
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	return cfg, nil
}

// openApp initializes the full application for a command.
func openApp(ctx context.Context, cli *CLI, notifier orchestrator.Notifier, logger *slog.Logger) (*app.App, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, app.AppConfig{
		Config:   cfg,
		Notifier: notifier,
		Logger:   logger,
	})
}
