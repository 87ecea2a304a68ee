package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ga4export/internal/config"
	"ga4export/internal/etl"
	"ga4export/internal/funcapp"
	"ga4export/internal/logger"
)

func main() {
	// local.settings values are exported by the host; .env is for func-less runs
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.ServiceEnvironment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	exp := etl.NewGA4Export(cfg, nil, log)
	srv := &http.Server{
		Addr:              ":" + cfg.HandlerPort,
		Handler:           funcapp.NewServer(exp, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Custom handler listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Custom handler server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down custom handler gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Custom handler shutdown error", zap.Error(err))
	}
}
