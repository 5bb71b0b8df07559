package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/smartcache/smartcache/pkg/domain/accessevent"
)

type LogRequest struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Action     string `json:"action"`
	Hit        bool   `json:"hit"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ToEvent validates the request. A missing timestamp defaults to now.
func (r *LogRequest) ToEvent(now time.Time) (accessevent.AccessEvent, error) {
	if strings.TrimSpace(r.ResourceID) == "" {
		return accessevent.AccessEvent{}, fmt.Errorf("resource_id is required")
	}
	action, err := accessevent.ParseAction(r.Action)
	if err != nil {
		return accessevent.AccessEvent{}, err
	}
	at := now
	if r.Timestamp != "" {
		at, err = accessevent.ParseTimestamp(r.Timestamp)
		if err != nil {
			return accessevent.AccessEvent{}, err
		}
	}
	return accessevent.New(r.ResourceID, action, r.Hit, at), nil
}
