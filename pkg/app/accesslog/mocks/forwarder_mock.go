package mocks

import (
	"context"

	"github.com/smartcache/smartcache/pkg/app/accesslog"
	"github.com/stretchr/testify/mock"
)

type Forwarder struct {
	mock.Mock
}

func (m *Forwarder) Forward(ctx context.Context, entry accesslog.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
