package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

const (
	DefaultGroupID     = "db-updater-group"
	defaultPollTimeout = 500 * time.Millisecond
)

type ConsumerConfig struct {
	Brokers         string        `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	Topic           string        `mapstructure:"topic"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
}

// Message is a record read from the broker.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte

	raw *kafka.Message
}

type Consumer struct {
	consumer    *kafka.Consumer
	logger      *logrus.Logger
	pollTimeout time.Duration
}

func NewConsumer(cfg ConsumerConfig, logger *logrus.Logger) (*Consumer, error) {
	if cfg.Brokers == "" {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = DefaultGroupID
	}
	if cfg.AutoOffsetReset == "" {
		cfg.AutoOffsetReset = "earliest"
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  cfg.AutoOffsetReset,
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	if err := consumer.SubscribeTopics([]string{cfg.Topic}, nil); err != nil {
		_ = consumer.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", cfg.Topic, err)
	}

	logger.WithFields(logrus.Fields{
		"brokers":  cfg.Brokers,
		"group_id": cfg.GroupID,
		"topic":    cfg.Topic,
	}).Info("kafka consumer subscribed")

	return &Consumer{
		consumer:    consumer,
		logger:      logger,
		pollTimeout: cfg.PollTimeout,
	}, nil
}

// Read blocks until a message arrives or ctx is cancelled.
func (c *Consumer) Read(ctx context.Context) (*Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := c.consumer.ReadMessage(c.pollTimeout)
		if err != nil {
			var kafkaErr kafka.Error
			if errors.As(err, &kafkaErr) {
				if kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				// librdkafka recovers from non-fatal errors on its own
				if !kafkaErr.IsFatal() {
					c.logger.WithField("code", kafkaErr.Code().String()).WithError(err).Warn("kafka consumer error")
					continue
				}
			}
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
		topic := ""
		if msg.TopicPartition.Topic != nil {
			topic = *msg.TopicPartition.Topic
		}
		return &Message{
			Topic:     topic,
			Partition: msg.TopicPartition.Partition,
			Offset:    int64(msg.TopicPartition.Offset),
			Key:       msg.Key,
			Value:     msg.Value,
			raw:       msg,
		}, nil
	}
}

func (c *Consumer) Commit(msg *Message) error {
	if msg == nil || msg.raw == nil {
		return errors.New("cannot commit a message that was not read from this consumer")
	}
	if _, err := c.consumer.CommitMessage(msg.raw); err != nil {
		return fmt.Errorf("failed to commit offset %d: %w", msg.Offset, err)
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}
