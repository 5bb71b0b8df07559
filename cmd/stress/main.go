package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/smartcache/smartcache/pkg/app/stress"
	"github.com/smartcache/smartcache/pkg/config"
	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	infraLogger "github.com/smartcache/smartcache/pkg/infra/logger"
	"github.com/smartcache/smartcache/pkg/smartcache"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewConsoleLogger()

	if err := config.Load("../../config"); err != nil {
		if !errors.Is(err, config.ErrConfigFileNotFound) {
			logger.Fatalf("failed to load config: %v", err)
		}
		logger.WithError(err).Warn("config file not found")
	}
	cfg := config.GetConfig()

	client, err := smartcache.New(smartcache.Config{
		RedisHost:     cfg.Redis.Host,
		RedisPort:     cfg.Redis.Port,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		RedisTLS:      cfg.Redis.TLS,
		KafkaBroker:   cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		DefaultTTL:    cfg.Cache.DefaultTTL,
		FlushTimeout:  cfg.Cache.FlushTimeout,
	},
		smartcache.WithLogger(logger),
		smartcache.WithDropHandler(func(evt accessevent.AccessEvent, err error) {
			logger.WithError(err).WithField("resource_id", evt.ResourceID).Debug("access event dropped")
		}),
	)
	if err != nil {
		logger.Fatalf("failed to create smartcache client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := stress.NewRunner(client, stress.Config{
		Requests: cfg.Stress.Requests,
		Keys:     cfg.Stress.Keys,
		Delay:    cfg.Stress.Delay,
	}, nil, logger)

	if _, err := runner.Run(ctx); err != nil {
		logger.WithError(err).Warn("stress test interrupted")
	}

	if err := client.Close(); err != nil {
		logger.WithError(err).Error("failed to close smartcache client")
	}
	stats := client.Stats()
	logger.WithField("published", stats.Published).WithField("dropped", stats.Dropped).Info("access events summary")
}
