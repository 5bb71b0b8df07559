package smartcache

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	DefaultKafkaBroker  = "localhost:9092"
	DefaultTopic        = "cache_access_logs"
	DefaultTTLSeconds   = 60
	DefaultFlushTimeout = 5 * time.Second
)

// Config carries the constructor options. Zero values fall back to the defaults above.
type Config struct {
	RedisHost     string        `mapstructure:"redis_host"`
	RedisPort     int           `mapstructure:"redis_port"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisTLS      bool          `mapstructure:"redis_tls"`
	KafkaBroker   string        `mapstructure:"kafka_broker"`
	Topic         string        `mapstructure:"topic"`
	DefaultTTL    int           `mapstructure:"default_ttl"`
	FlushTimeout  time.Duration `mapstructure:"flush_timeout"`
}

// ConfigFromMap decodes options keyed by their snake_case names, e.g.
// {"redis_host": "localhost", "redis_port": 6379, "default_ttl": 60}.
// Unknown keys are rejected.
func ConfigFromMap(options map[string]interface{}) (Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(options); err != nil {
		return Config{}, fmt.Errorf("invalid smartcache options: %w", err)
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.KafkaBroker == "" {
		c.KafkaBroker = DefaultKafkaBroker
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = DefaultTTLSeconds
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = DefaultFlushTimeout
	}
	return c
}

func (c Config) validate(injectedBackend bool) error {
	if !injectedBackend {
		if c.RedisHost == "" {
			return errors.New("redis_host is required")
		}
		if c.RedisPort <= 0 || c.RedisPort > 65535 {
			return fmt.Errorf("redis_port %d is out of range", c.RedisPort)
		}
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("default_ttl must be positive, got %d", c.DefaultTTL)
	}
	return nil
}

// TTL is the expiry applied to every write.
func (c Config) TTL() time.Duration {
	return time.Duration(c.DefaultTTL) * time.Second
}
