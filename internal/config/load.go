package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. SHOP_DATABASE_URL for database.url.
const EnvPrefix = "SHOP"

// keys lists every configuration key so that environment variables are
// honoured even when no config file or default mentions them.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.read_timeout_seconds",
	"server.write_timeout_seconds",
	"server.idle_timeout_seconds",
	"server.shutdown_timeout_seconds",
	"database.driver",
	"database.url",
	"database.max_open_conns",
	"database.max_idle_conns",
	"database.conn_max_lifetime_minutes",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"sale.max_retries",
	"sale.retry_base_delay_ms",
	"sale.low_stock_threshold",
	"events.kafka_brokers",
	"events.topic",
	"events.relay_interval_ms",
	"events.batch_size",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 30)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("sale.max_retries", 3)
	v.SetDefault("sale.retry_base_delay_ms", 20)
	v.SetDefault("sale.low_stock_threshold", 5)

	v.SetDefault("events.kafka_brokers", []string{})
	v.SetDefault("events.topic", "shop.sales")
	v.SetDefault("events.relay_interval_ms", 1000)
	v.SetDefault("events.batch_size", 100)
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom behaves like Load but looks for config.yaml in dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
