package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"yt_notify_bot/internal/bot"
	"yt_notify_bot/internal/config"
	"yt_notify_bot/internal/dispatcher"
	"yt_notify_bot/internal/poller"
	"yt_notify_bot/internal/queue"
	"yt_notify_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		log.Error("create data directory", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	store, err := storage.NewFiles(cfg.DataDir, log)
	if err != nil {
		log.Error("open store", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	q := queue.New(cfg.QueueCapacity)

	p := poller.New(store, q, log)
	p.SetTickInterval(cfg.PollInterval)

	d := dispatcher.New(store, q, b, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "poll_interval", cfg.PollInterval, "queue_capacity", cfg.QueueCapacity)

	go p.Run(ctx)
	go d.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
