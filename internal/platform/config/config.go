// Package config loads the service configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Directory modes select where application records live.
const (
	ModeMemory   = "memory"   // in-process store, dev and tests
	ModePostgres = "postgres" // self-hosted records
	ModeRemote   = "remote"   // upstream housing service over HTTP
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Housing  HousingConfig  `mapstructure:"housing"`
	Identity IdentityConfig `mapstructure:"identity"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
}

type HousingConfig struct {
	Mode          string        `mapstructure:"mode"`
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	FallbackHalls []string      `mapstructure:"fallback_halls"`
	HallsCacheTTL time.Duration `mapstructure:"halls_cache_ttl"`
}

type IdentityConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml from the working directory or ./configs, applying
// RESPORTAL_* environment overrides (e.g. RESPORTAL_SERVER_ADDR).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("resportal")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("housing.mode", ModeMemory)
	v.SetDefault("housing.halls_cache_ttl", 5*time.Minute)
	v.SetDefault("kafka.topic", "resportal.housing.audit")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Housing.Mode {
	case ModeMemory:
	case ModePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("housing mode %q requires postgres.dsn", c.Housing.Mode)
		}
	case ModeRemote:
		if c.Housing.BaseURL == "" {
			return fmt.Errorf("housing mode %q requires housing.base_url", c.Housing.Mode)
		}
		if c.Identity.BaseURL == "" {
			return fmt.Errorf("housing mode %q requires identity.base_url", c.Housing.Mode)
		}
	default:
		return fmt.Errorf("unknown housing mode %q", c.Housing.Mode)
	}
	return nil
}
