package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qfwfq/corespot/config"
	"github.com/qfwfq/corespot/internal/debugapi"
	"github.com/qfwfq/corespot/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	slog.Info("starting corespot session",
		"addr", cfg.Addr,
		"cache_dir", cfg.CacheDir,
		"music_dir", cfg.MusicDir,
	)

	sess, err := session.Init(cfg, session.Callbacks{
		ContainerLoaded: func() {
			slog.Info("container loaded")
		},
		LoggedIn: func() {
			slog.Info("logged in")
		},
		LoggedOut: func() {
			slog.Info("logged out")
		},
		MessageToUser: func(message string) {
			slog.Info("message to user", "message", message)
		},
		PlayTokenLost: func() {
			slog.Warn("play token lost")
		},
	})
	if err != nil {
		slog.Error("session init failed", "error", err)
		os.Exit(1)
	}
	defer sess.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutdown signal received")
		cancel()
	}()

	if cfg.DebugAddr != "" {
		dbg := debugapi.NewServer(sess, cfg.DebugAddr)
		go func() {
			if err := dbg.Start(ctx); err != nil {
				slog.Error("debug api server error", "error", err)
			}
		}()
	}

	if username := os.Getenv("COREPOT_USERNAME"); username != "" {
		if err := sess.Login(username, os.Getenv("COREPOT_PASSWORD")); err != nil {
			slog.Error("login failed", "error", err)
			os.Exit(1)
		}
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down gracefully")
			return
		case <-ticker.C:
			sess.ProcessEvents()
		}
	}
}
