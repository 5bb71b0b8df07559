package smartcache

import (
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	"github.com/smartcache/smartcache/pkg/infra/kafka"
)

// DropHandler is called for every access event that could not be handed to the broker.
type DropHandler func(event accessevent.AccessEvent, err error)

type clientOptions struct {
	logger      *logrus.Logger
	now         func() time.Time
	onDrop      DropHandler
	redisClient *redis.Client
	publisher   kafka.Publisher
}

type Option func(*clientOptions)

func WithLogger(logger *logrus.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithClock overrides the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		o.now = now
	}
}

func WithDropHandler(fn DropHandler) Option {
	return func(o *clientOptions) {
		o.onDrop = fn
	}
}

// WithBackend uses an existing redis handle instead of dialing one.
// The client takes ownership and closes it on Close.
func WithBackend(redisClient *redis.Client) Option {
	return func(o *clientOptions) {
		o.redisClient = redisClient
	}
}

// WithPublisher uses an existing publisher instead of creating a kafka producer.
// The client takes ownership and flushes and closes it on Close.
func WithPublisher(publisher kafka.Publisher) Option {
	return func(o *clientOptions) {
		o.publisher = publisher
	}
}
