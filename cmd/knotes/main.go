package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"knotes/internal/config"
	"knotes/internal/notes"
	"knotes/internal/store"
	"knotes/internal/web"
)

func main() {
	level := parseLogLevel(os.Getenv("KNOTES_DEBUG_LEVEL"))
	pretty := strings.EqualFold(os.Getenv("KNOTES_LOG_PRETTY"), "1") || strings.EqualFold(os.Getenv("KNOTES_LOG_PRETTY"), "true")
	if strings.TrimSpace(os.Getenv("DEV")) != "" {
		file, err := os.Create("dev.log")
		if err != nil {
			slog.Error("open log file", "path", "dev.log", "err", err)
		} else {
			defer file.Close()
			_, _ = fmt.Fprintf(file, "=== knotes dev log start %s ===\n", time.Now().Format(time.RFC3339))
			fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
			consoleHandler := newPrettyHandler(os.Stdout, level)
			if !pretty {
				consoleHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
			}
			slog.SetDefault(slog.New(&teeHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}))
		}
	} else {
		var handler slog.Handler
		if pretty {
			handler = newPrettyHandler(os.Stdout, level)
		} else {
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		slog.SetDefault(slog.New(handler))
	}

	cfg := config.Load()

	st, err := store.OpenWithOptions(cfg.DBPath, store.OpenOptions{
		BusyTimeout: cfg.DBBusyTimeout,
	})
	if err != nil {
		slog.Error("open database", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer st.Close()
	st.SetLockTimeout(cfg.DBLockTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := st.Init(ctx); err != nil {
		slog.Error("init database", "err", err)
		os.Exit(1)
	}

	cache := notes.NewCache(cfg.CacheTTL, cfg.CacheMax)
	svc := notes.NewService(st, cache)

	srv, err := web.NewServer(cfg, svc)
	if err != nil {
		slog.Error("server init", "err", err)
		os.Exit(1)
	}
	slog.Info("listening", "addr", cfg.ListenAddr, "db", cfg.DBPath)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Handler()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func parseLogLevel(raw string) slog.Leveler {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
	return level
}
