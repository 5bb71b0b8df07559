package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/smartcache/smartcache/pkg/config"
	"github.com/smartcache/smartcache/pkg/dependency_container"
	"github.com/smartcache/smartcache/pkg/infra/database"
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

	logger, logCloser, err := infraLogger.NewLogger("consumer")
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

	db, err := database.NewDB(logger, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}

	container, err := dependency_container.NewConsumerContainer(dependency_container.ConsumerContainerDI{
		Cfg:    cfg,
		Logger: logger,
		DB:     db,
	})
	if err != nil {
		_ = db.Close()
		logger.Fatalf("failed to initialize dependencies: %v", err)
	}

	metrics := server.NewMetricsServer(cfg, logger)
	metrics.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := container.Updater.Run(ctx)
	if runErr != nil {
		logger.WithError(runErr).Error("database updater stopped")
	}

	if err := metrics.Shutdown(); err != nil {
		logger.WithError(err).Warn("error stopping metrics server")
	}
	if err := container.Close(); err != nil {
		logger.WithError(err).Error("error releasing dependencies")
	}
	logger.Info("database updater gracefully stopped")
	if runErr != nil {
		os.Exit(1)
	}
}
