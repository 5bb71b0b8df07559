package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Stress   StressConfig   `mapstructure:"stress"`
}

type ServerConfig struct {
	Port        int           `mapstructure:"port"`
	MetricsPort int           `mapstructure:"metrics_port"`
	BodyLimit   int           `mapstructure:"body_limit"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type MetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	EnableLatency bool `mapstructure:"enable_latency"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type KafkaConfig struct {
	Brokers  string `mapstructure:"brokers"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Acks     string `mapstructure:"acks"`
	GroupID  string `mapstructure:"group_id"`
}

// CacheConfig holds the SDK defaults.
type CacheConfig struct {
	DefaultTTL   int           `mapstructure:"default_ttl"`
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type ConsumerConfig struct {
	Workers    int `mapstructure:"workers"`
	BufferSize int `mapstructure:"buffer_size"`
}

type StressConfig struct {
	Requests int           `mapstructure:"requests"`
	Keys     int           `mapstructure:"keys"`
	Delay    time.Duration `mapstructure:"delay"`
}

var globalConfig Config

var ErrConfigFileNotFound = errors.New("config file not found")

// Load reads config.yaml from configPath (then ./config and .), applies
// environment overrides such as KAFKA_BROKERS and fills defaults.
// A missing file is reported with ErrConfigFileNotFound but the
// environment/default configuration is still loaded.
func Load(configPath string) error {
	v := viper.New()
	setDefaultValues(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file config.yaml: %w", err)
		}
		readErr = fmt.Errorf("%w: using only environment variables", ErrConfigFileNotFound)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	globalConfig = cfg

	return readErr
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.body_limit", 1024*1024)
	v.SetDefault("server.read_timeout", 30*time.Second)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.enable_latency", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tls", false)

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "cache_access_logs")
	v.SetDefault("kafka.client_id", "smartcache")
	v.SetDefault("kafka.acks", "")
	v.SetDefault("kafka.group_id", "db-updater-group")

	v.SetDefault("cache.default_ttl", 60)
	v.SetDefault("cache.flush_timeout", 5*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "smartcache")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "smartcache")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("consumer.workers", 5)
	v.SetDefault("consumer.buffer_size", 100)

	v.SetDefault("stress.requests", 200)
	v.SetDefault("stress.keys", 20)
	v.SetDefault("stress.delay", 50*time.Millisecond)
}

func GetConfig() *Config {
	return &globalConfig
}
