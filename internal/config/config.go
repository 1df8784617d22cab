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
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HMAC key used to sign session tokens. Required when APP_ENV=production.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim (e.g. "connectme").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SMSAPIKey is the API key for the SMS provider. Required when APP_ENV=production.
	SMSAPIKey string `mapstructure:"SMS_API_KEY"`
	// SMSSender is the optional sender ID for outgoing verification SMS.
	SMSSender string `mapstructure:"SMS_SENDER"`
	// SMSBaseURL is the SMS provider API base URL.
	SMSBaseURL string `mapstructure:"SMS_BASE_URL"`
	// SessionTTL is the idle lifetime of a registration/login session (e.g. "30m").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Telemetry (optional). When the endpoint is set, traces and metrics are exported via OTLP.
	TelemetryEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// TelemetryInsecure disables TLS for the OTLP exporter (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	TelemetryInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Events (optional). When Kafka brokers are set, auth events are published for downstream consumers.
	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuthEventsTopic is the Kafka topic auth events are published to.
	AuthEventsTopic string `mapstructure:"AUTH_EVENTS_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "connectme")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SMS_API_KEY", "")
	v.SetDefault("SMS_SENDER", "")
	v.SetDefault("SMS_BASE_URL", "https://www.smslocal.com/dev/bulkV2")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUTH_EVENTS_TOPIC", "connectme-auth-events")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.Env == "production" {
		if cfg.JWTSecret == "" {
			return nil, errors.New("config: JWT_SECRET must be set when APP_ENV=production")
		}
		if cfg.SMSAPIKey == "" {
			return nil, errors.New("config: SMS_API_KEY must be set when APP_ENV=production")
		}
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// SessionTTLDuration parses SessionTTL as a time.Duration. Returns 30m if unset or invalid.
func (c *Config) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if event publishing is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
