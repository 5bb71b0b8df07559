package accesslog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	"github.com/smartcache/smartcache/pkg/infra/breaker"
	"github.com/smartcache/smartcache/pkg/infra/kafka"
)

const DefaultPublishTimeout = 10 * time.Second

// Entry is an access event reported through the gateway on behalf of a user.
type Entry struct {
	UserID string
	Event  accessevent.AccessEvent
}

// record is the published payload: the access event plus the reporting user.
type record struct {
	UserID     string             `json:"user_id"`
	ResourceID string             `json:"resource_id"`
	Action     accessevent.Action `json:"action"`
	Hit        bool               `json:"hit"`
	Timestamp  string             `json:"timestamp"`
}

func newRecord(entry Entry) record {
	return record{
		UserID:     entry.UserID,
		ResourceID: entry.Event.ResourceID,
		Action:     entry.Event.Action,
		Hit:        entry.Event.Hit,
		Timestamp:  accessevent.FormatTimestamp(entry.Event.Timestamp),
	}
}

// Forwarder delivers entries to the access log topic and waits for the broker ack.
type Forwarder interface {
	Forward(ctx context.Context, entry Entry) error
}

type forwarder struct {
	publisher kafka.Publisher
	breaker   breaker.CircuitBreaker
	topic     string
	timeout   time.Duration
	logger    *logrus.Logger
}

func NewForwarder(
	publisher kafka.Publisher,
	cb breaker.CircuitBreaker,
	topic string,
	logger *logrus.Logger,
) Forwarder {
	return &forwarder{
		publisher: publisher,
		breaker:   cb,
		topic:     topic,
		timeout:   DefaultPublishTimeout,
		logger:    logger,
	}
}

// Forward partitions by user id. Entries without one get a random key.
func (f *forwarder) Forward(ctx context.Context, entry Entry) error {
	key := entry.UserID
	if key == "" {
		key = uuid.NewString()
	}

	payload, err := json.Marshal(newRecord(entry))
	if err != nil {
		return fmt.Errorf("failed to encode access event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err = f.breaker.Execute(func() error {
		return f.publisher.PublishSync(ctx, f.topic, []byte(key), payload)
	})
	if err != nil {
		f.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":     entry.UserID,
			"resource_id": entry.Event.ResourceID,
			"topic":       f.topic,
		}).Error("failed to forward access event")
		return err
	}

	f.logger.WithFields(logrus.Fields{
		"user_id":     entry.UserID,
		"resource_id": entry.Event.ResourceID,
		"action":      entry.Event.Action,
	}).Debug("access event forwarded")
	return nil
}
