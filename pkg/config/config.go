// Package config loads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
}

// AppConfig holds application identity settings.
type AppConfig struct {
	Name string
	Env  string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL settings.
// An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Development bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in when present.
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Missing .env is fine; the environment is the source of truth.
	_ = viper.ReadInConfig()

	viper.SetDefault("APP_NAME", "khata")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("HTTP_READ_TIMEOUT_SEC", 15)
	viper.SetDefault("HTTP_WRITE_TIMEOUT_SEC", 15)
	viper.SetDefault("HTTP_SHUTDOWN_TIMEOUT_SEC", 10)
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_MAX_CONNS", 25)
	viper.SetDefault("DB_MIN_CONNS", 5)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_DEVELOPMENT", false)

	return &Config{
		App: AppConfig{
			Name: viper.GetString("APP_NAME"),
			Env:  viper.GetString("APP_ENV"),
		},
		Server: ServerConfig{
			Port:            viper.GetString("HTTP_PORT"),
			ReadTimeout:     time.Duration(viper.GetInt("HTTP_READ_TIMEOUT_SEC")) * time.Second,
			WriteTimeout:    time.Duration(viper.GetInt("HTTP_WRITE_TIMEOUT_SEC")) * time.Second,
			ShutdownTimeout: time.Duration(viper.GetInt("HTTP_SHUTDOWN_TIMEOUT_SEC")) * time.Second,
		},
		Database: DatabaseConfig{
			URL:      viper.GetString("DATABASE_URL"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
			MinConns: viper.GetInt32("DB_MIN_CONNS"),
		},
		Log: LogConfig{
			Level:       viper.GetString("LOG_LEVEL"),
			Development: viper.GetBool("LOG_DEVELOPMENT"),
		},
	}
}
