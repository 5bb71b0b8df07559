package mocks

import (
	"context"

	"github.com/smartcache/smartcache/pkg/app/credentials"
	"github.com/stretchr/testify/mock"
)

type Store struct {
	mock.Mock
}

func (m *Store) Save(ctx context.Context, creds credentials.Credentials) error {
	args := m.Called(ctx, creds)
	return args.Error(0)
}
