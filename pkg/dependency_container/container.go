package dependency_container

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/app/accesslog"
	"github.com/smartcache/smartcache/pkg/app/consumer"
	"github.com/smartcache/smartcache/pkg/app/credentials"
	"github.com/smartcache/smartcache/pkg/config"
	handlers "github.com/smartcache/smartcache/pkg/handlers/http"
	"github.com/smartcache/smartcache/pkg/infra/breaker"
	"github.com/smartcache/smartcache/pkg/infra/cache"
	"github.com/smartcache/smartcache/pkg/infra/database"
	"github.com/smartcache/smartcache/pkg/infra/kafka"
	"github.com/smartcache/smartcache/pkg/infra/repository"
)

const (
	breakerTimeout     = 30 * time.Second
	breakerMaxFailures = 5
)

type Container struct {
	Cache            cache.Client
	Producer         kafka.Publisher
	CredentialsStore credentials.Store
	LogForwarder     accesslog.Forwarder
	HandlerTransport handlers.HandlerTransport
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
}

// NewContainer wires the gateway: internal redis, the kafka producer and the handlers.
func NewContainer(di ContainerDI) (*Container, error) {
	cacheInstance, err := cache.NewClient(cache.Config{
		Host:     di.Cfg.Redis.Host,
		Port:     di.Cfg.Redis.Port,
		Password: di.Cfg.Redis.Password,
		DB:       di.Cfg.Redis.DB,
		TLS:      di.Cfg.Redis.TLS,
	}, di.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	producer, err := kafka.NewProducer(kafka.Config{
		Brokers:  di.Cfg.Kafka.Brokers,
		ClientID: di.Cfg.Kafka.ClientID,
		Acks:     di.Cfg.Kafka.Acks,
	}, di.Logger, nil)
	if err != nil {
		_ = cacheInstance.Close()
		return nil, fmt.Errorf("failed to initialize kafka producer: %w", err)
	}

	cb := breaker.New(breaker.Settings{
		Name:        "gateway-log",
		Timeout:     breakerTimeout,
		MaxFailures: breakerMaxFailures,
	}, di.Logger)

	store := credentials.NewStore(cacheInstance, di.Logger)
	forwarder := accesslog.NewForwarder(producer, cb, di.Cfg.Kafka.Topic, di.Logger)

	return &Container{
		Cache:            cacheInstance,
		Producer:         producer,
		CredentialsStore: store,
		LogForwarder:     forwarder,
		HandlerTransport: handlers.HandlerTransport{
			InitHandler:       handlers.NewInitHandler(di.Logger, store),
			LogHandler:        handlers.NewLogHandler(di.Logger, forwarder),
			GetVersionHandler: handlers.NewGetVersionHandler(di.Logger),
		},
	}, nil
}

// Close flushes the producer before releasing redis.
func (c *Container) Close(flushTimeout time.Duration) error {
	c.Producer.Flush(flushTimeout)
	c.Producer.Close()
	return c.Cache.Close()
}

type ConsumerContainer struct {
	DB       *database.DB
	Consumer *kafka.Consumer
	Updater  *consumer.Updater
}

type ConsumerContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	DB     *database.DB
}

// NewConsumerContainer wires the database updater around an open database.
func NewConsumerContainer(di ConsumerContainerDI) (*ConsumerContainer, error) {
	kafkaConsumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: di.Cfg.Kafka.Brokers,
		GroupID: di.Cfg.Kafka.GroupID,
		Topic:   di.Cfg.Kafka.Topic,
	}, di.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kafka consumer: %w", err)
	}

	updater := consumer.NewUpdater(
		kafkaConsumer,
		repository.NewCacheLogRepository(di.DB.DB),
		consumer.Config{
			Workers:    di.Cfg.Consumer.Workers,
			BufferSize: di.Cfg.Consumer.BufferSize,
		},
		di.Logger,
	)

	return &ConsumerContainer{
		DB:       di.DB,
		Consumer: kafkaConsumer,
		Updater:  updater,
	}, nil
}

func (c *ConsumerContainer) Close() error {
	if err := c.Consumer.Close(); err != nil {
		return err
	}
	return c.DB.Close()
}
