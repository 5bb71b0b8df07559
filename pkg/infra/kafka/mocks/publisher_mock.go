package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(topic string, key, value []byte) error {
	args := m.Called(topic, key, value)
	return args.Error(0)
}

func (m *Publisher) PublishSync(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func (m *Publisher) Flush(timeout time.Duration) int {
	args := m.Called(timeout)
	return args.Int(0)
}

func (m *Publisher) Close() {
	m.Called()
}
