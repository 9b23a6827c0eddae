// Package config loads the host settings of the tick binaries from the
// environment. A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable, e.g. TICK_LOG_LEVEL or TICK_REDIS_ADDR.
const Prefix = "TICK"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Stories is the directory (or single file) the configurations are loaded from.
	Stories string `envconfig:"STORIES" default:"stories"`
	Story   string `envconfig:"STORY"`

	HTTP    HTTPConfig    `envconfig:"HTTP"`
	Store   StoreConfig   `envconfig:"STORE"`
	Redis   RedisConfig   `envconfig:"REDIS"`
	Kafka   KafkaConfig   `envconfig:"KAFKA"`
	Webhook WebhookConfig `envconfig:"WEBHOOK"`

	// Tools names a tools file declaring handlers run as local commands.
	Tools string `envconfig:"TOOLS"`

	EndingRule bool `envconfig:"ENDING_RULE" default:"false"`
	Trace      bool `envconfig:"TRACE" default:"false"`
}

type HTTPConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type StoreConfig struct {
	Backend string `envconfig:"BACKEND" default:"memory"`
	// DSN is the directory of the file store or the database of the sqlite store.
	DSN string `envconfig:"DSN"`

	// EncryptionKey is a base64 AES-256 key sealing every stored session.
	EncryptionKey string   `envconfig:"ENCRYPTION_KEY"`
	FallbackKeys  []string `envconfig:"ENCRYPTION_FALLBACK_KEYS"`
	// PIIPatterns mask the matching contexts before they are stored.
	PIIPatterns []string `envconfig:"PII_PATTERNS"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"ADDR" default:"localhost:6379"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	TTL      time.Duration `envconfig:"SESSION_TTL" default:"0"`
	Lock     bool          `envconfig:"LOCK" default:"false"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"BROKERS"`
	Topic   string   `envconfig:"TOPIC" default:"tick.output"`
}

type WebhookConfig struct {
	URL       string  `envconfig:"URL"`
	Token     string  `envconfig:"TOKEN"`
	RateLimit float64 `envconfig:"RATE_LIMIT" default:"0"`
	Burst     int     `envconfig:"BURST" default:"1"`
}

// Load reads .env, if any, then the environment.
func Load() (*Config, error) {
	// Missing .env is fine, the environment alone is enough.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Webhook.RateLimit < 0 {
		return fmt.Errorf("webhook rate limit must not be negative")
	}
	return nil
}
