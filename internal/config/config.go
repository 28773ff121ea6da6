// Package config loads service settings from an optional app.env file and the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Ledger drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application settings
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	LedgerDriver   string        `mapstructure:"LEDGER_DRIVER"`
	SQLitePath     string        `mapstructure:"SQLITE_PATH"`
	PostgresConn   string        `mapstructure:"POSTGRES_CONN"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`
	RedisChannel   string        `mapstructure:"REDIS_CHANNEL"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	SeedDemo       bool          `mapstructure:"SEED_DEMO"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":  ":8080",
	"LEDGER_DRIVER":   DriverMemory,
	"SQLITE_PATH":     "auction-engine.db",
	"POSTGRES_CONN":   "",
	"REDIS_ADDR":      "",
	"REDIS_PASSWORD":  "",
	"REDIS_DB":        0,
	"REDIS_CHANNEL":   "auction-engine",
	"LOG_LEVEL":       "info",
	"REQUEST_TIMEOUT": "5s",
	"SEED_DEMO":       false,
}

// LoadConfig reads app.env from path if present, then applies environment overrides.
// Every key has a default so a bare environment starts an in-memory server.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	switch c.LedgerDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: SQLITE_PATH is required for the sqlite ledger")
		}
	case DriverPostgres:
		if c.PostgresConn == "" {
			return fmt.Errorf("config: POSTGRES_CONN is required for the postgres ledger")
		}
	default:
		return fmt.Errorf("config: unknown LEDGER_DRIVER %q", c.LedgerDriver)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: REQUEST_TIMEOUT must be positive")
	}
	if c.ServerAddress == "" {
		return fmt.Errorf("config: SERVER_ADDRESS is required")
	}
	return nil
}
