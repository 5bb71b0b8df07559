package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	"github.com/smartcache/smartcache/pkg/infra/kafka"
	"github.com/smartcache/smartcache/pkg/infra/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers    = 5
	DefaultBufferSize = 100

	saveTimeout = 10 * time.Second

	resultStored  = "stored"
	resultInvalid = "invalid"
	resultFailed  = "failed"
)

type MessageReader interface {
	Read(ctx context.Context) (*kafka.Message, error)
	Commit(msg *kafka.Message) error
}

type Config struct {
	Workers    int
	BufferSize int
}

// Updater copies access events from the broker into the cache_logs table.
type Updater struct {
	reader MessageReader
	repo   accessevent.Repository
	cfg    Config
	logger *logrus.Logger
}

func NewUpdater(reader MessageReader, repo accessevent.Repository, cfg Config, logger *logrus.Logger) *Updater {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	return &Updater{
		reader: reader,
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// Run reads until ctx is cancelled, then waits for the workers to drain the
// buffered messages. It returns an error only when reading fails for a reason
// other than cancellation.
func (u *Updater) Run(ctx context.Context) error {
	jobs := make(chan *kafka.Message, u.cfg.BufferSize)

	var workers errgroup.Group
	for i := 1; i <= u.cfg.Workers; i++ {
		id := i
		workers.Go(func() error {
			u.work(id, jobs)
			return nil
		})
	}
	u.logger.WithFields(logrus.Fields{
		"workers": u.cfg.Workers,
		"buffer":  u.cfg.BufferSize,
	}).Info("database updater started")

	err := u.consume(ctx, jobs)
	close(jobs)
	_ = workers.Wait()

	u.logger.Info("all workers stopped")
	return err
}

func (u *Updater) consume(ctx context.Context, jobs chan<- *kafka.Message) error {
	for {
		msg, err := u.reader.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			u.logger.WithError(err).Error("kafka read failed")
			return err
		}
		select {
		case jobs <- msg:
		case <-ctx.Done():
			// not committed, redelivered on the next start
			return nil
		}
	}
}

func (u *Updater) work(id int, jobs <-chan *kafka.Message) {
	for msg := range jobs {
		result := u.process(id, msg)
		prometheus.ConsumerEventsTotal.WithLabelValues(result).Inc()
		if err := u.reader.Commit(msg); err != nil {
			u.logger.WithError(err).WithField("worker", id).Warn("failed to commit offset")
		}
	}
}

func (u *Updater) process(id int, msg *kafka.Message) string {
	fields := logrus.Fields{
		"worker":    id,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	}

	event, err := accessevent.Decode(msg.Value)
	if err != nil {
		u.logger.WithError(err).WithFields(fields).Warn("skipping invalid access event")
		return resultInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := u.repo.Save(ctx, event); err != nil {
		u.logger.WithError(err).WithFields(fields).Error("failed to store access event")
		return resultFailed
	}

	u.logger.WithFields(fields).WithFields(logrus.Fields{
		"resource_id": event.ResourceID,
		"action":      event.Action,
		"hit":         event.Hit,
	}).Debug("access event stored")
	return resultStored
}
