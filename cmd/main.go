package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/desertthunder/wishx/internal/shared"
	"github.com/desertthunder/wishx/internal/store"
	"github.com/urfave/cli/v3"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring invalid config", "path", configPath, "error", err)
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	// Without a profile the credential only lives for this process.
	var tokens *store.TokenStore
	if path, err := shared.ExpandHome(config.Profile.Path); err != nil {
		logger.Warn("profile unavailable", "error", err)
	} else if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		logger.Warn("profile unavailable", "error", err)
	} else if storage, db, err := store.OpenProfile(path); err != nil {
		logger.Warn("profile unavailable", "path", path, "error", err)
	} else {
		defer db.Close()
		tokens = store.NewTokenStore(storage, logger)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Tokens:     tokens,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "wishx",
		Usage:    "Share wishlists, reserve gifts and chip in from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
