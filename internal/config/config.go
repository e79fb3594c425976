// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis address for the challenge store (e.g. localhost:6379).
	// Empty falls back to the in-memory store (single instance only).
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// SMSAPIKey is the API key for the SMS gateway. Required for the sms
	// channel and the settlement code challenge.
	SMSAPIKey string `mapstructure:"SMS_API_KEY"`
	// SMSSender is the optional sender ID for the SMS gateway.
	SMSSender string `mapstructure:"SMS_SENDER"`
	// SMSBaseURL is the SMS gateway API base URL.
	SMSBaseURL string `mapstructure:"SMS_BASE_URL"`
	// MailAPIKey is the API key for the mail relay. Required for the mail channel.
	MailAPIKey string `mapstructure:"MAIL_API_KEY"`
	// MailBaseURL is the mail relay API base URL.
	MailBaseURL string `mapstructure:"MAIL_BASE_URL"`
	// MailFrom is the sender address for outbound mail.
	MailFrom string `mapstructure:"MAIL_FROM"`

	// CodeTTL is the settlement code lifetime (e.g. "5m").
	CodeTTL string `mapstructure:"CODE_TTL"`
	// CodeReturnToClient when true enables dev code mode: plain codes kept in
	// memory for local retrieval instead of relying on SMS delivery. Must not
	// be true when Env is production.
	CodeReturnToClient bool `mapstructure:"CODE_RETURN_TO_CLIENT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// AuditKafkaBrokers is a comma-separated list of Kafka broker addresses
	// (e.g. "localhost:9092"). When set, audit records are streamed to Kafka.
	AuditKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the Kafka topic for audit records.
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics/logs
	// (e.g. http://localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Worker-only: Loki URL for the audit worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the audit worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SMS_BASE_URL", "https://app.smslocal.in/api/smsapi")
	v.SetDefault("MAIL_BASE_URL", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("CODE_TTL", "5m")
	v.SetDefault("CODE_RETURN_TO_CLIENT", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "expenditure-audit")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "expenditure-audit-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.CodeReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: CODE_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}

	return &cfg, nil
}

// ChallengeTTL parses CodeTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) ChallengeTTL() time.Duration {
	d, err := time.ParseDuration(c.CodeTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// AuditKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if audit streaming is enabled (non-empty list) and to create the producer.
func (c *Config) AuditKafkaBrokersList() []string {
	if c == nil || c.AuditKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AuditKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
