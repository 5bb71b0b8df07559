// Package smartcache wraps a redis backend and records every SET and GET as an
// access event published to kafka for later analytics.
//
// Backend failures are returned to the caller. Publishing is best effort: a
// failed publish never fails the cache call, it is counted, logged and handed
// to the optional DropHandler instead.
package smartcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/domain"
	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	"github.com/smartcache/smartcache/pkg/infra/cache"
	"github.com/smartcache/smartcache/pkg/infra/kafka"
	infraLogger "github.com/smartcache/smartcache/pkg/infra/logger"
	"github.com/smartcache/smartcache/pkg/infra/prometheus"
)

const (
	resultStored = "stored"
	resultHit    = "hit"
	resultMiss   = "miss"
	resultError  = "error"
)

// Stats counts access events. Published counts events handed to the producer,
// Dropped counts events lost at any stage, including after a successful hand-off.
type Stats struct {
	Published uint64
	Dropped   uint64
}

// Client is a redis-backed cache that publishes an access event per call.
type Client struct {
	cfg     Config
	backend cache.Client
	emitter *emitter
	logger  *logrus.Logger
	now     func() time.Time

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New connects to redis, verifying the connection with a ping, and creates the
// kafka producer. Failures are returned as *domain.ConnectionError.
func New(cfg Config, opts ...Option) (*Client, error) {
	o := &clientOptions{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = infraLogger.NewConsoleLogger()
	}

	cfg = cfg.withDefaults()
	if err := cfg.validate(o.redisClient != nil); err != nil {
		return nil, err
	}

	var backend cache.Client
	if o.redisClient != nil {
		backend = cache.NewClientFromRedis(o.redisClient)
	} else {
		var err error
		backend, err = cache.NewClient(cache.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		}, o.logger)
		if err != nil {
			return nil, err
		}
	}

	em := newEmitter(cfg.Topic, o.logger, o.onDrop)
	if o.publisher != nil {
		em.publisher = o.publisher
	} else {
		producer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.KafkaBroker}, o.logger, em.onDeliveryError)
		if err != nil {
			_ = backend.Close()
			return nil, domain.NewConnectionError("kafka producer", cfg.KafkaBroker, err)
		}
		em.publisher = producer
	}

	return &Client{
		cfg:     cfg,
		backend: backend,
		emitter: em,
		logger:  o.logger,
		now:     o.now,
	}, nil
}

// Set stores value under key with the configured TTL, then publishes a SET event.
func (c *Client) Set(ctx context.Context, key, value string) error {
	if c.closed.Load() {
		return domain.ErrClientClosed
	}

	start := time.Now()
	err := c.backend.Set(ctx, key, value, c.cfg.TTL())
	c.observeLatency(accessevent.ActionSet, start)
	if err != nil {
		c.recordFailure(accessevent.ActionSet, key, err)
		return err
	}

	c.emitter.emit(accessevent.New(key, accessevent.ActionSet, false, c.now()))
	prometheus.CacheOperationsTotal.WithLabelValues(string(accessevent.ActionSet), resultStored).Inc()
	c.logger.WithFields(logrus.Fields{
		"key": key,
		"ttl": c.cfg.DefaultTTL,
	}).Info("cache set")
	return nil
}

// Get returns the stored value. found is false when the key is missing or expired,
// which is not an error.
func (c *Client) Get(ctx context.Context, key string) (value string, found bool, err error) {
	if c.closed.Load() {
		return "", false, domain.ErrClientClosed
	}

	start := time.Now()
	value, found, err = c.backend.Get(ctx, key)
	c.observeLatency(accessevent.ActionGet, start)
	if err != nil {
		c.recordFailure(accessevent.ActionGet, key, err)
		return "", false, err
	}

	c.emitter.emit(accessevent.New(key, accessevent.ActionGet, found, c.now()))

	result, msg := resultMiss, "cache miss"
	if found {
		result, msg = resultHit, "cache hit"
	}
	prometheus.CacheOperationsTotal.WithLabelValues(string(accessevent.ActionGet), result).Inc()
	c.logger.WithField("key", key).Info(msg)
	return value, found, nil
}

// Close flushes pending events, then releases the producer and the redis connection.
// It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.emitter.flush(c.cfg.FlushTimeout)
		c.emitter.publisher.Close()
		c.closeErr = c.backend.Close()
		c.logger.WithField("stats", c.Stats()).Debug("smartcache client closed")
	})
	return c.closeErr
}

// Stats returns the published and dropped event counts so far.
func (c *Client) Stats() Stats {
	return Stats{
		Published: c.emitter.published.Load(),
		Dropped:   c.emitter.dropped.Load(),
	}
}

// Config returns the effective configuration after defaults were applied.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) observeLatency(action accessevent.Action, start time.Time) {
	if !prometheus.Config.EnableLatency {
		return
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	prometheus.CacheBackendLatency.WithLabelValues(string(action)).Observe(elapsed)
}

func (c *Client) recordFailure(action accessevent.Action, key string, err error) {
	prometheus.CacheOperationsTotal.WithLabelValues(string(action), resultError).Inc()
	c.logger.WithFields(logrus.Fields{
		"key":        key,
		"action":     action,
		"connection": domain.IsConnectionError(err),
	}).WithError(err).Error("cache operation failed")
}
