package stress

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultRequests = 200
	DefaultKeys     = 20
	DefaultDelay    = 50 * time.Millisecond
)

// Cache is the part of the SDK client the driver exercises.
type Cache interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
}

type Config struct {
	Requests int
	Keys     int
	Delay    time.Duration
}

type Result struct {
	Sets   int
	Hits   int
	Misses int
	Errors int
}

type Runner struct {
	cache  Cache
	cfg    Config
	rnd    *rand.Rand
	logger *logrus.Logger
}

func NewRunner(cache Cache, cfg Config, rnd *rand.Rand, logger *logrus.Logger) *Runner {
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultRequests
	}
	if cfg.Keys <= 0 {
		cfg.Keys = DefaultKeys
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404
	}
	return &Runner{
		cache:  cache,
		cfg:    cfg,
		rnd:    rnd,
		logger: logger,
	}
}

// Run issues random SETs and GETs over resource:1..Keys until done or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var res Result
	r.logger.WithField("requests", r.cfg.Requests).Info("starting stress test")

	for i := 0; i < r.cfg.Requests; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		key := fmt.Sprintf("resource:%d", r.rnd.Intn(r.cfg.Keys)+1)
		if r.rnd.Intn(2) == 0 {
			value := fmt.Sprintf("data-%d", 1000+r.rnd.Intn(9000))
			if err := r.cache.Set(ctx, key, value); err != nil {
				res.Errors++
				r.logger.WithError(err).WithField("key", key).Warn("set failed")
			} else {
				res.Sets++
			}
		} else {
			_, found, err := r.cache.Get(ctx, key)
			switch {
			case err != nil:
				res.Errors++
				r.logger.WithError(err).WithField("key", key).Warn("get failed")
			case found:
				res.Hits++
			default:
				res.Misses++
			}
		}

		if r.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(r.cfg.Delay):
			}
		}
	}

	r.logger.WithFields(logrus.Fields{
		"sets":   res.Sets,
		"hits":   res.Hits,
		"misses": res.Misses,
		"errors": res.Errors,
	}).Info("stress test completed")
	return res, nil
}
