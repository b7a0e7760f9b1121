package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"pinbank/internal/cli"
	"pinbank/internal/config"
	"pinbank/internal/repository"
	"pinbank/internal/service"
)

func main() {
	cfg, err := config.Load(os.Getenv("PINBANK_CONFIG"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o700); err != nil {
		logger.Error("Failed to create data directory", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.Store.BackupDir, 0o700); err != nil {
		logger.Error("Failed to create backup directory", "error", err)
		os.Exit(1)
	}

	store := repository.NewJSONStore(cfg.Store.Path, cfg.Store.BackupDir, logger)
	ledger, err := service.NewLedger(store, logger)
	if err != nil {
		logger.Error("Failed to load registry", "error", err)
		os.Exit(1)
	}
	admin := service.NewAdmin(cfg.Admin.Secret, ledger, store, logger)

	app := cli.New(ledger, admin, os.Stdin, os.Stdout)
	if err := app.Run(); err != nil {
		logger.Error("CLI failed", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
