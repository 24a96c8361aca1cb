package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"smarthire/resume-matcher/internal/app"
	"smarthire/resume-matcher/internal/config"
	"smarthire/resume-matcher/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Level)
	if err != nil {
		stdlog.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("config loaded", zap.String("env", cfg.Server.Env), zap.String("port", cfg.Server.Port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	a.Worker.Start(ctx)
	log.Info("worker started", zap.Int("concurrency", cfg.Worker.Concurrency))

	router := app.BuildRouter(a)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stop := make(chan struct{})
	go func() {
		<-quit
		close(stop)
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", addr), zap.Error(err))
	}
	log.Info("server starting", zap.String("addr", addr))

	if err := app.Serve(a, router, ln, stop); err != nil {
		log.Error("server failed", zap.Error(err))
	}
}
