// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Caixa      CaixaConfig      `mapstructure:"caixa"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Conference ConferenceConfig `mapstructure:"conference"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// CaixaConfig holds the lottery results API configuration.
type CaixaConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GeneratorConfig holds the combination generator configuration. With no API
// key the service falls back to the local frequency generator.
type GeneratorConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	HistoryWindow int    `mapstructure:"history_window"`
	MaxCount      int    `mapstructure:"max_count"`
}

// ConferenceConfig holds the auto-check scheduling configuration.
type ConferenceConfig struct {
	CronSpec   string `mapstructure:"cron_spec"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. SERVER_ADDR, DATABASE_HOST, GENERATOR_API_KEY.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK, env vars can provide all config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "palpiteiro")
	v.SetDefault("database.name", "palpiteiro")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Caixa results API defaults
	v.SetDefault("caixa.base_url", "https://servicebus2.caixa.gov.br/portaldeloterias/api")
	v.SetDefault("caixa.timeout", "10s")

	// Generator defaults
	v.SetDefault("generator.model", "gemini-2.0-flash")
	v.SetDefault("generator.history_window", 10)
	v.SetDefault("generator.max_count", 20)

	// Conference defaults: check on an interval and on demand; a failed
	// lookup is simply retried on whichever trigger fires next.
	v.SetDefault("conference.cron_spec", "@every 30m")
	v.SetDefault("conference.run_on_start", true)
}
