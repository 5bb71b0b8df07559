package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

var ErrProducerClosed = errors.New("kafka producer is closed")

type Publisher interface {
	// Publish enqueues the message and returns without waiting for the broker.
	Publish(topic string, key, value []byte) error
	// PublishSync blocks until the broker acknowledges the message or ctx is done.
	PublishSync(ctx context.Context, topic string, key, value []byte) error
	// Flush waits for outstanding messages and returns how many are still queued.
	Flush(timeout time.Duration) int
	Close()
}

// DeliveryErrorHandler receives asynchronous delivery failures of Publish.
type DeliveryErrorHandler func(topic string, value []byte, err error)

type Config struct {
	Brokers  string `mapstructure:"brokers"`
	ClientID string `mapstructure:"client_id"`
	Acks     string `mapstructure:"acks"`
}

type Producer struct {
	producer        *kafka.Producer
	logger          *logrus.Logger
	onDeliveryError DeliveryErrorHandler

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewProducer(cfg Config, logger *logrus.Logger, onDeliveryError DeliveryErrorHandler) (*Producer, error) {
	if cfg.Brokers == "" {
		return nil, errors.New("kafka brokers are required")
	}
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}
	if cfg.Acks != "" {
		_ = configMap.SetKey("acks", cfg.Acks)
	}

	producer, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := &Producer{
		producer:        producer,
		logger:          logger,
		onDeliveryError: onDeliveryError,
		done:            make(chan struct{}),
	}
	go p.handleEvents()

	logger.WithField("brokers", cfg.Brokers).Info("kafka producer created")
	return p, nil
}

func (p *Producer) Publish(topic string, key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	err := p.producer.Produce(newMessage(topic, key, value), nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (p *Producer) PublishSync(ctx context.Context, topic string, key, value []byte) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrProducerClosed
	}
	// buffered so a late report never blocks the librdkafka poller
	deliveryChan := make(chan kafka.Event, 1)
	err := p.producer.Produce(newMessage(topic, key, value), deliveryChan)
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for delivery report: %w", ctx.Err())
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		return nil
	}
}

func (p *Producer) Flush(timeout time.Duration) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return 0
	}
	return p.producer.Flush(int(timeout.Milliseconds()))
}

// Close releases the producer. Messages still queued are discarded, call Flush first.
func (p *Producer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.Close()
	<-p.done
}

func (p *Producer) handleEvents() {
	defer close(p.done)
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error == nil {
				continue
			}
			topic := ""
			if ev.TopicPartition.Topic != nil {
				topic = *ev.TopicPartition.Topic
			}
			p.logger.WithFields(logrus.Fields{
				"topic": topic,
				"error": ev.TopicPartition.Error.Error(),
			}).Warn("kafka delivery failed")
			if p.onDeliveryError != nil {
				p.onDeliveryError(topic, ev.Value, ev.TopicPartition.Error)
			}
		case kafka.Error:
			p.logger.WithField("code", ev.Code().String()).WithError(ev).Warn("kafka producer error")
		}
	}
}

func newMessage(topic string, key, value []byte) *kafka.Message {
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
	}
}
