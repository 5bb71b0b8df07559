package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/domain"
)

const (
	CredentialsKeyPattern = "user:%s"

	pingTimeout = 5 * time.Second
)

type Client interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	HSet(ctx context.Context, key string, values ...interface{}) error
	Ping(ctx context.Context) error
	Addr() string
	RedisClient() *redis.Client
	Close() error
}

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type client struct {
	redisClient *redis.Client
	addr        string
}

// NewClient connects to redis and verifies the connection with a ping.
func NewClient(config Config, logger *logrus.Logger) (Client, error) {
	options := &redis.Options{
		Addr:     config.Addr(),
		Password: config.Password,
		DB:       config.DB,
	}
	if config.TLS {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, // #nosec G402
		}
	}
	c := NewClientFromRedis(redis.NewClient(options))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		logger.WithFields(logrus.Fields{
			"host":  config.Host,
			"port":  config.Port,
			"error": err.Error(),
		}).Error("failed to connect to redis")
		_ = c.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"host": config.Host,
		"port": config.Port,
	}).Info("redis connected successfully")

	return c, nil
}

// NewClientFromRedis wraps an existing handle without pinging it.
func NewClientFromRedis(redisClient *redis.Client) Client {
	return &client{
		redisClient: redisClient,
		addr:        redisClient.Options().Addr,
	}
}

func (c *client) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if err := c.redisClient.Set(ctx, key, value, expiration).Err(); err != nil {
		return c.classify("set", key, err)
	}
	return nil
}

// Get reports found=false on a missing or expired key.
func (c *client) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, c.classify("get", key, err)
	}
	return value, true, nil
}

func (c *client) HSet(ctx context.Context, key string, values ...interface{}) error {
	if err := c.redisClient.HSet(ctx, key, values...).Err(); err != nil {
		return c.classify("hset", key, err)
	}
	return nil
}

func (c *client) Ping(ctx context.Context) error {
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		return domain.NewConnectionError("redis ping", c.addr, err)
	}
	return nil
}

func (c *client) Addr() string {
	return c.addr
}

func (c *client) RedisClient() *redis.Client {
	return c.redisClient
}

func (c *client) Close() error {
	err := c.redisClient.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

func (c *client) classify(op, key string, err error) error {
	if IsConnectionFailure(err) {
		return domain.NewConnectionError("redis "+op, c.addr, err)
	}
	return domain.NewBackendError(op, key, err)
}
