package accessevent_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/smartcache/smartcache/pkg/domain"
	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SetIsNeverAHit(t *testing.T) {
	evt := accessevent.New("resource:1", accessevent.ActionSet, true, time.Now())
	assert.False(t, evt.Hit)
	assert.Equal(t, accessevent.ActionSet, evt.Action)
}

func TestNew_NormalizesTimestamp(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	at := time.Date(2025, 3, 4, 12, 30, 15, 123456789, loc)

	evt := accessevent.New("resource:1", accessevent.ActionGet, true, at)

	assert.Equal(t, time.UTC, evt.Timestamp.Location())
	assert.Equal(t, 123000000, evt.Timestamp.Nanosecond())
	assert.Equal(t, 10, evt.Timestamp.Hour())
}

func TestMarshalJSON_WireFormat(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 6000000, time.UTC)
	evt := accessevent.New("resource:1", accessevent.ActionSet, false, at)

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	assert.Equal(t,
		`{"resource_id":"resource:1","action":"SET","hit":false,"timestamp":"2025-01-02T03:04:05.006Z"}`,
		string(data),
	)
}

func TestDecode_RoundTrip(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 999000000, time.UTC)
	evt := accessevent.New("resource:7", accessevent.ActionGet, true, at)

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	decoded, err := accessevent.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, evt, decoded)
}

func TestDecode_IgnoresExtraFields(t *testing.T) {
	decoded, err := accessevent.Decode([]byte(
		`{"user_id":"u-1","resource_id":"resource:2","action":"GET","hit":false,"timestamp":"2025-01-02T03:04:05.000Z"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, "resource:2", decoded.ResourceID)
	assert.False(t, decoded.Hit)
}

func TestDecode_AcceptsEmptyResourceID(t *testing.T) {
	decoded, err := accessevent.Decode([]byte(
		`{"resource_id":"","action":"SET","hit":false,"timestamp":"2025-01-02T03:04:05.000Z"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, "", decoded.ResourceID)
	assert.Equal(t, accessevent.ActionSet, decoded.Action)
}

func TestDecode_AcceptsRFC3339Offsets(t *testing.T) {
	decoded, err := accessevent.Decode([]byte(
		`{"resource_id":"resource:2","action":"GET","hit":true,"timestamp":"2025-01-02T05:04:05.5+02:00"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 500000000, time.UTC), decoded.Timestamp)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `not-json`},
		{name: "array", payload: `[]`},
		{name: "missing resource", payload: `{"action":"GET","hit":true,"timestamp":"2025-01-02T03:04:05.000Z"}`},
		{name: "empty action", payload: `{"resource_id":"r","action":"","hit":true,"timestamp":"2025-01-02T03:04:05.000Z"}`},
		{name: "empty timestamp", payload: `{"resource_id":"r","action":"GET","hit":true,"timestamp":""}`},
		{name: "unknown action", payload: `{"resource_id":"r","action":"DEL","hit":true,"timestamp":"2025-01-02T03:04:05.000Z"}`},
		{name: "hit as string", payload: `{"resource_id":"r","action":"GET","hit":"true","timestamp":"2025-01-02T03:04:05.000Z"}`},
		{name: "missing hit", payload: `{"resource_id":"r","action":"GET","timestamp":"2025-01-02T03:04:05.000Z"}`},
		{name: "bad timestamp", payload: `{"resource_id":"r","action":"GET","hit":true,"timestamp":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accessevent.Decode([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := accessevent.ParseAction("GET")
	require.NoError(t, err)
	assert.Equal(t, accessevent.ActionGet, a)

	_, err = accessevent.ParseAction("get")
	assert.True(t, errors.Is(err, domain.ErrInvalidAction))
}

func TestUnmarshalJSON(t *testing.T) {
	var evt accessevent.AccessEvent
	err := json.Unmarshal([]byte(`{"resource_id":"r","action":"SET","hit":false,"timestamp":"2025-01-02T03:04:05.000Z"}`), &evt)
	require.NoError(t, err)
	assert.Equal(t, accessevent.ActionSet, evt.Action)
	assert.Equal(t, "cache_logs", evt.TableName())
}
