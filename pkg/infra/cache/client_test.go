package cache_test

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/domain"
	"github.com/smartcache/smartcache/pkg/infra/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SetWithTTL(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	c := cache.NewClientFromRedis(redisMock)

	mock.ExpectSet("resource:1", "data-42", 60*time.Second).SetVal("OK")

	err := c.Set(context.Background(), "resource:1", "data-42", 60*time.Second)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_GetHit(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	c := cache.NewClientFromRedis(redisMock)

	mock.ExpectGet("resource:1").SetVal("data-42")

	value, found, err := c.Get(context.Background(), "resource:1")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "data-42", value)
}

func TestClient_GetMissIsNotAnError(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	c := cache.NewClientFromRedis(redisMock)

	mock.ExpectGet("resource:unknown").RedisNil()

	value, found, err := c.Get(context.Background(), "resource:unknown")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectConn   bool
		expectBacked bool
	}{
		{
			name:       "connection refused",
			err:        &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			expectConn: true,
		},
		{
			name:       "client closed",
			err:        redis.ErrClosed,
			expectConn: true,
		},
		{
			name:         "server error",
			err:          errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"),
			expectBacked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redisMock, mock := redismock.NewClientMock()
			c := cache.NewClientFromRedis(redisMock)
			mock.ExpectGet("k").SetErr(tt.err)
			mock.ExpectSet("k", "v", time.Minute).SetErr(tt.err)

			_, _, getErr := c.Get(context.Background(), "k")
			setErr := c.Set(context.Background(), "k", "v", time.Minute)

			for _, err := range []error{getErr, setErr} {
				require.Error(t, err)
				assert.Equal(t, tt.expectConn, domain.IsConnectionError(err))
				assert.Equal(t, tt.expectBacked, domain.IsBackendError(err))
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestClient_HSet(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	c := cache.NewClientFromRedis(redisMock)

	mock.ExpectHSet("user:u1", "host", "redis.local", "port", 6379).SetVal(2)
	mock.ExpectHSet("user:u2", "host", "redis.local").SetErr(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"))

	require.NoError(t, c.HSet(context.Background(), "user:u1", "host", "redis.local", "port", 6379))
	err := c.HSet(context.Background(), "user:u2", "host", "redis.local")

	assert.True(t, domain.IsBackendError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_PingFailureIsConnectionError(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	c := cache.NewClientFromRedis(redisMock)

	mock.ExpectPing().SetErr(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED})

	err := c.Ping(context.Background())

	assert.True(t, domain.IsConnectionError(err))
}

func TestNewClient_UnreachableServer(t *testing.T) {
	logger := logrus.New()

	_, err := cache.NewClient(cache.Config{Host: "127.0.0.1", Port: 1}, logger)

	require.Error(t, err)
	assert.True(t, domain.IsConnectionError(err))
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	redisMock, _ := redismock.NewClientMock()
	c := cache.NewClientFromRedis(redisMock)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestIsConnectionFailure(t *testing.T) {
	assert.False(t, cache.IsConnectionFailure(nil))
	assert.False(t, cache.IsConnectionFailure(redis.Nil))
	assert.True(t, cache.IsConnectionFailure(context.DeadlineExceeded))
	assert.False(t, cache.IsConnectionFailure(errors.New("ERR syntax error")))
}
