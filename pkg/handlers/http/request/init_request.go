package request

import (
	"fmt"
	"strings"
)

type InitRequest struct {
	UserID        string `json:"user_id"`
	RedisHost     string `json:"redis_host"`
	RedisPort     int    `json:"redis_port"`
	RedisPassword string `json:"redis_password"`
}

func (r *InitRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if r.RedisPort < 0 || r.RedisPort > 65535 {
		return fmt.Errorf("redis_port must be between 0 and 65535")
	}
	return nil
}
