package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/smartcache/smartcache/pkg/config"
	"github.com/smartcache/smartcache/pkg/dependency_container"
	infraLogger "github.com/smartcache/smartcache/pkg/infra/logger"
	"github.com/smartcache/smartcache/pkg/infra/prometheus"
	"github.com/smartcache/smartcache/pkg/server"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger, logCloser, err := infraLogger.NewLogger("gateway")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logCloser.Close()

	if err := config.Load("../../config"); err != nil {
		if !errors.Is(err, config.ErrConfigFileNotFound) {
			logger.Fatalf("failed to load config: %v", err)
		}
		logger.WithError(err).Warn("config file not found")
	}
	cfg := config.GetConfig()

	prometheus.Initialize(prometheus.MetricsConfig{
		EnableLatency: cfg.Metrics.EnableLatency,
	})

	container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger,
	})
	if err != nil {
		logger.Fatalf("failed to initialize dependencies: %v", err)
	}

	srv := server.NewGatewayServer(server.GatewayServerDI{
		Config:           cfg,
		Logger:           logger,
		HandlerTransport: container.HandlerTransport,
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gateway")
	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("error shutting down server")
	}
	if err := container.Close(cfg.Cache.FlushTimeout); err != nil {
		logger.WithError(err).Error("error releasing dependencies")
	}
	logger.Info("gateway gracefully stopped")
}
