package smartcache_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/domain"
	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	"github.com/smartcache/smartcache/pkg/smartcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	topic string
	key   []byte
	value []byte
}

type fakePublisher struct {
	mu             sync.Mutex
	messages       []publishedMessage
	publishErr     error
	flushRemaining int
	flushed        bool
	closed         bool
}

func (f *fakePublisher) Publish(topic string, key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.messages = append(f.messages, publishedMessage{topic: topic, key: key, value: value})
	return nil
}

func (f *fakePublisher) PublishSync(_ context.Context, topic string, key, value []byte) error {
	return f.Publish(topic, key, value)
}

func (f *fakePublisher) Flush(time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed = true
	return f.flushRemaining
}

func (f *fakePublisher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakePublisher) events(t *testing.T) []accessevent.AccessEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]accessevent.AccessEvent, 0, len(f.messages))
	for _, m := range f.messages {
		evt, err := accessevent.Decode(m.value)
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events
}

// steppingClock advances by one millisecond on every call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Millisecond)
		return current
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, opts ...smartcache.Option) (*smartcache.Client, redismock.ClientMock, *fakePublisher) {
	t.Helper()
	redisMock, mock := redismock.NewClientMock()
	publisher := &fakePublisher{}
	base := []smartcache.Option{
		smartcache.WithBackend(redisMock),
		smartcache.WithPublisher(publisher),
		smartcache.WithLogger(quietLogger()),
		smartcache.WithClock(steppingClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))),
	}
	client, err := smartcache.New(smartcache.Config{}, append(base, opts...)...)
	require.NoError(t, err)
	return client, mock, publisher
}

func TestClient_SetPublishesSetEvent(t *testing.T) {
	client, mock, publisher := newTestClient(t)
	mock.ExpectSet("resource:1", "data-42", 60*time.Second).SetVal("OK")

	err := client.Set(context.Background(), "resource:1", "data-42")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	events := publisher.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, "resource:1", events[0].ResourceID)
	assert.Equal(t, accessevent.ActionSet, events[0].Action)
	assert.False(t, events[0].Hit)
	assert.Equal(t, "cache_access_logs", publisher.messages[0].topic)
	assert.Nil(t, publisher.messages[0].key)
}

func TestClient_RoundTripWithinTTL(t *testing.T) {
	client, mock, publisher := newTestClient(t)
	mock.ExpectSet("resource:1", "data-42", 60*time.Second).SetVal("OK")
	mock.ExpectGet("resource:1").SetVal("data-42")

	require.NoError(t, client.Set(context.Background(), "resource:1", "data-42"))
	value, found, err := client.Get(context.Background(), "resource:1")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "data-42", value)

	events := publisher.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, accessevent.ActionGet, events[1].Action)
	assert.True(t, events[1].Hit)
	assert.False(t, events[1].Timestamp.Before(events[0].Timestamp))
}

func TestClient_GetMissPublishesMiss(t *testing.T) {
	client, mock, publisher := newTestClient(t)
	mock.ExpectGet("resource:unknown").RedisNil()

	value, found, err := client.Get(context.Background(), "resource:unknown")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)

	events := publisher.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, "resource:unknown", events[0].ResourceID)
	assert.Equal(t, accessevent.ActionGet, events[0].Action)
	assert.False(t, events[0].Hit)
}

func TestClient_BackendFailurePublishesNothing(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		isConnError bool
	}{
		{name: "connection down", err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, isConnError: true},
		{name: "server error", err: errors.New("READONLY You can't write against a read only replica")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock, publisher := newTestClient(t)
			mock.ExpectSet("resource:1", "v", 60*time.Second).SetErr(tt.err)
			mock.ExpectGet("resource:1").SetErr(tt.err)

			setErr := client.Set(context.Background(), "resource:1", "v")
			_, found, getErr := client.Get(context.Background(), "resource:1")

			assert.False(t, found)
			for _, err := range []error{setErr, getErr} {
				require.Error(t, err)
				assert.Equal(t, tt.isConnError, domain.IsConnectionError(err))
				assert.Equal(t, !tt.isConnError, domain.IsBackendError(err))
			}
			assert.Empty(t, publisher.events(t))
			assert.Equal(t, smartcache.Stats{}, client.Stats())
		})
	}
}

func TestClient_PublishFailureIsNotSurfaced(t *testing.T) {
	var (
		dropped []accessevent.AccessEvent
		dropErr error
	)
	client, mock, publisher := newTestClient(t, smartcache.WithDropHandler(func(evt accessevent.AccessEvent, err error) {
		dropped = append(dropped, evt)
		dropErr = err
	}))
	publisher.publishErr = errors.New("Local: Queue full")
	mock.ExpectSet("resource:2", "data", 60*time.Second).SetVal("OK")

	err := client.Set(context.Background(), "resource:2", "data")

	require.NoError(t, err)
	require.Len(t, dropped, 1)
	assert.Equal(t, "resource:2", dropped[0].ResourceID)
	assert.Equal(t, accessevent.ActionSet, dropped[0].Action)
	assert.EqualError(t, dropErr, "Local: Queue full")
	assert.Equal(t, smartcache.Stats{Published: 0, Dropped: 1}, client.Stats())
}

func TestClient_TimestampsAreNonDecreasing(t *testing.T) {
	client, mock, publisher := newTestClient(t)
	for i := 0; i < 5; i++ {
		mock.ExpectSet("k", "v", 60*time.Second).SetVal("OK")
		mock.ExpectGet("k").SetVal("v")
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, client.Set(context.Background(), "k", "v"))
		_, _, err := client.Get(context.Background(), "k")
		require.NoError(t, err)
	}

	events := publisher.events(t)
	require.Len(t, events, 10)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}
	assert.Equal(t, smartcache.Stats{Published: 10}, client.Stats())
}

func TestClient_TimestampCapturedAfterBackendCall(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, "clock")
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	client, mock, _ := newTestClient(t, smartcache.WithClock(clock))
	mock.ExpectSet("k", "v", 60*time.Second).SetErr(errors.New("boom"))

	_ = client.Set(context.Background(), "k", "v")

	assert.Empty(t, calls)
}

func TestClient_CustomTTLAndTopic(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	publisher := &fakePublisher{}
	client, err := smartcache.New(smartcache.Config{DefaultTTL: 5, Topic: "custom"},
		smartcache.WithBackend(redisMock),
		smartcache.WithPublisher(publisher),
		smartcache.WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	mock.ExpectSet("k", "v", 5*time.Second).SetVal("OK")

	require.NoError(t, client.Set(context.Background(), "k", "v"))

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "custom", publisher.messages[0].topic)
}

func TestClient_EventPayloadShape(t *testing.T) {
	client, mock, publisher := newTestClient(t)
	mock.ExpectGet("resource:1").SetVal("x")

	_, _, err := client.Get(context.Background(), "resource:1")
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(publisher.messages[0].value, &payload))
	assert.Len(t, payload, 4)
	assert.Equal(t, "resource:1", payload["resource_id"])
	assert.Equal(t, "GET", payload["action"])
	assert.Equal(t, true, payload["hit"])
	assert.Equal(t, "2025-06-01T12:00:00.001Z", payload["timestamp"])
}

func TestClient_EmptyKeyRoundTrip(t *testing.T) {
	client, mock, publisher := newTestClient(t)
	mock.ExpectSet("", "v", 60*time.Second).SetVal("OK")
	mock.ExpectGet("").SetVal("v")

	require.NoError(t, client.Set(context.Background(), "", "v"))
	value, found, err := client.Get(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
	require.NoError(t, mock.ExpectationsWereMet())

	events := publisher.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, accessevent.ActionSet, events[0].Action)
	assert.Equal(t, accessevent.ActionGet, events[1].Action)
	assert.True(t, events[1].Hit)
	for _, evt := range events {
		assert.Equal(t, "", evt.ResourceID)
	}
}

func TestClient_CloseFlushesAndReleases(t *testing.T) {
	client, _, publisher := newTestClient(t)
	publisher.flushRemaining = 2

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	assert.True(t, publisher.flushed)
	assert.True(t, publisher.closed)
	assert.Equal(t, uint64(2), client.Stats().Dropped)

	assert.ErrorIs(t, client.Set(context.Background(), "k", "v"), domain.ErrClientClosed)
	_, _, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrClientClosed)
}

func TestNew_Defaults(t *testing.T) {
	client, _, _ := newTestClient(t)

	cfg := client.Config()
	assert.Equal(t, "localhost:9092", cfg.KafkaBroker)
	assert.Equal(t, "cache_access_logs", cfg.Topic)
	assert.Equal(t, 60, cfg.DefaultTTL)
	assert.Equal(t, 60*time.Second, cfg.TTL())
	assert.Equal(t, 5*time.Second, cfg.FlushTimeout)
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := smartcache.New(smartcache.Config{RedisPort: 6379}, smartcache.WithLogger(quietLogger()))
	assert.Error(t, err)

	_, err = smartcache.New(smartcache.Config{RedisHost: "localhost", RedisPort: 70000}, smartcache.WithLogger(quietLogger()))
	assert.Error(t, err)

	_, err = smartcache.New(smartcache.Config{RedisHost: "localhost", RedisPort: 6379, DefaultTTL: -1}, smartcache.WithLogger(quietLogger()))
	assert.Error(t, err)
}

func TestNew_UnreachableBackendIsConnectionError(t *testing.T) {
	publisher := &fakePublisher{}
	_, err := smartcache.New(smartcache.Config{RedisHost: "127.0.0.1", RedisPort: 1},
		smartcache.WithPublisher(publisher),
		smartcache.WithLogger(quietLogger()),
	)

	require.Error(t, err)
	assert.True(t, domain.IsConnectionError(err))
}

func TestConfigFromMap(t *testing.T) {
	cfg, err := smartcache.ConfigFromMap(map[string]interface{}{
		"redis_host":     "localhost",
		"redis_port":     "6379",
		"redis_password": nil,
		"kafka_broker":   "broker:9092",
		"topic":          "cache_access_logs",
		"default_ttl":    30,
		"flush_timeout":  "2s",
	})

	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Empty(t, cfg.RedisPassword)
	assert.Equal(t, "broker:9092", cfg.KafkaBroker)
	assert.Equal(t, 30, cfg.DefaultTTL)
	assert.Equal(t, 2*time.Second, cfg.FlushTimeout)
}

func TestConfigFromMap_RejectsUnknownOptions(t *testing.T) {
	_, err := smartcache.ConfigFromMap(map[string]interface{}{
		"redis_host": "localhost",
		"retries":    3,
	})
	assert.Error(t, err)
}
