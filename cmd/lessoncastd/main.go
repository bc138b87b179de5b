package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lessoncast/lessoncast/pkg/lessoncast"
	"github.com/lessoncast/lessoncast/pkg/runner"
)

func main() {
	configPath := flag.String("config", "lessoncast.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := lessoncast.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := lessoncast.NewEngine(ctx, cfg)
	if err != nil {
		slog.Error("engine init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	lifecycle := runner.NewLifecycleRunner(engine, runner.Hooks{
		OnStart: func() {
			go func() {
				if err := engine.Serve(); err != nil {
					slog.Error("http server failed", slog.String("error", err.Error()))
					stop()
				}
			}()
		},
		OnStop: func() {
			slog.Info("shutdown complete")
		},
	}, 15*time.Second)

	if err := lifecycle.Run(ctx); err != nil {
		slog.Error("runner stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
