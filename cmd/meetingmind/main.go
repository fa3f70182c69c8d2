package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/meetingmind/meetingmind/config"
	"github.com/meetingmind/meetingmind/internal/cli"
	"github.com/meetingmind/meetingmind/internal/db"
	"github.com/meetingmind/meetingmind/internal/gemini"
	"github.com/meetingmind/meetingmind/internal/meetings"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	var summarizer meetings.Summarizer
	if cfg.GeminiAPIKey != "" {
		summarizer = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	}

	svc := meetings.NewService(store, summarizer, logger)

	deps := &cli.Dependencies{
		Service: svc,
		Config:  cfg,
		Logger:  logger,
	}
	return cli.NewRootCmd(deps).Execute()
}

// newLogger writes structured logs to the configured file. Without one,
// logs are dropped so they never bleed into the TUI.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}
