package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Sale     SaleConfig     `mapstructure:"sale" validate:"required"`
	Events   EventsConfig   `mapstructure:"events" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds" validate:"gt=0"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds" validate:"gt=0"`
	IdleTimeoutSeconds     int `mapstructure:"idle_timeout_seconds" validate:"gt=0"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ReadTimeout returns the HTTP read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the HTTP idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown deadline as a duration.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// Database drivers understood by the server.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig contains all database-related configuration settings.
// URL is only required for the postgres driver.
type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL                    string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
}

// SaleConfig tunes the purchase workflow.
type SaleConfig struct {
	// MaxRetries is the number of times a purchase is retried after a write
	// conflict before the conflict is reported to the caller.
	MaxRetries       int `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" validate:"gt=0"`
	// LowStockThreshold triggers a low-stock alert when a sale leaves a
	// product at or below this many units.
	LowStockThreshold int `mapstructure:"low_stock_threshold" validate:"gte=0"`
}

// RetryBaseDelay returns the first backoff interval as a duration.
func (s SaleConfig) RetryBaseDelay() time.Duration {
	return time.Duration(s.RetryBaseDelayMs) * time.Millisecond
}

// EventsConfig controls the outbox relay and its publisher.
// With no Kafka brokers configured, events are delivered in-process.
type EventsConfig struct {
	KafkaBrokers    []string `mapstructure:"kafka_brokers" validate:"dive,hostname_port"`
	Topic           string   `mapstructure:"topic" validate:"required"`
	RelayIntervalMs int      `mapstructure:"relay_interval_ms" validate:"gt=0"`
	BatchSize       int      `mapstructure:"batch_size" validate:"gt=0,lte=1000"`
}

// RelayInterval returns the outbox polling interval as a duration.
func (e EventsConfig) RelayInterval() time.Duration {
	return time.Duration(e.RelayIntervalMs) * time.Millisecond
}
