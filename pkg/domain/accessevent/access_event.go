package accessevent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smartcache/smartcache/pkg/domain"
	"github.com/valyala/fastjson"
)

// TimestampLayout is ISO-8601 with millisecond precision, always rendered in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type Action string

const (
	ActionSet Action = "SET"
	ActionGet Action = "GET"
)

func (a Action) Valid() bool {
	return a == ActionSet || a == ActionGet
}

func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAction, s)
	}
	return a, nil
}

// AccessEvent describes the outcome of one cache operation.
type AccessEvent struct {
	ResourceID string    `json:"resource_id" gorm:"column:resource_id;primaryKey"`
	Action     Action    `json:"action" gorm:"column:action"`
	Hit        bool      `json:"hit" gorm:"column:hit"`
	Timestamp  time.Time `json:"timestamp" gorm:"column:timestamp;primaryKey"`
}

func (AccessEvent) TableName() string {
	return "cache_logs"
}

// New builds an event for a completed operation. SET events never count as hits.
func New(resourceID string, action Action, hit bool, at time.Time) AccessEvent {
	if action == ActionSet {
		hit = false
	}
	return AccessEvent{
		ResourceID: resourceID,
		Action:     action,
		Hit:        hit,
		Timestamp:  at.UTC().Truncate(time.Millisecond),
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type wireEvent struct {
	ResourceID string `json:"resource_id"`
	Action     Action `json:"action"`
	Hit        bool   `json:"hit"`
	Timestamp  string `json:"timestamp"`
}

func (e AccessEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		ResourceID: e.ResourceID,
		Action:     e.Action,
		Hit:        e.Hit,
		Timestamp:  FormatTimestamp(e.Timestamp),
	})
}

func (e *AccessEvent) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

// Decode strictly parses a wire event. Unknown fields are ignored.
func Decode(data []byte) (AccessEvent, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return AccessEvent{}, fmt.Errorf("invalid access event json: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return AccessEvent{}, fmt.Errorf("access event must be a json object, got %s", v.Type())
	}

	resourceID, err := stringField(v, "resource_id")
	if err != nil {
		return AccessEvent{}, err
	}
	rawAction, err := stringField(v, "action")
	if err != nil {
		return AccessEvent{}, err
	}
	action, err := ParseAction(rawAction)
	if err != nil {
		return AccessEvent{}, err
	}

	hitValue := v.Get("hit")
	if hitValue == nil {
		return AccessEvent{}, fmt.Errorf("access event field %q is required", "hit")
	}
	hit, err := hitValue.Bool()
	if err != nil {
		return AccessEvent{}, fmt.Errorf("access event field %q: %w", "hit", err)
	}

	rawTimestamp, err := stringField(v, "timestamp")
	if err != nil {
		return AccessEvent{}, err
	}
	ts, err := ParseTimestamp(rawTimestamp)
	if err != nil {
		return AccessEvent{}, err
	}

	return AccessEvent{
		ResourceID: resourceID,
		Action:     action,
		Hit:        hit,
		Timestamp:  ts,
	}, nil
}

func stringField(v *fastjson.Value, name string) (string, error) {
	field := v.Get(name)
	if field == nil {
		return "", fmt.Errorf("access event field %q is required", name)
	}
	b, err := field.StringBytes()
	if err != nil {
		return "", fmt.Errorf("access event field %q: %w", name, err)
	}
	return string(b), nil
}

// ParseTimestamp accepts the wire layout and falls back to RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return ts.UTC(), nil
	}
	// producers outside the SDK may send offsets or other sub-second precisions
	ts, rfcErr := time.Parse(time.RFC3339Nano, s)
	if rfcErr != nil {
		return time.Time{}, fmt.Errorf("access event timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}
