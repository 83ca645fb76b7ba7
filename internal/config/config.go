package config

import (
	"strings"
	"time"
)

// Config holds server and client configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`

	DatabaseURL    string `mapstructure:"database_url" yaml:"database_url"`
	DatabaseDriver string `mapstructure:"database_driver" yaml:"database_driver"`

	Redis      RedisConfig      `mapstructure:"redis" yaml:"redis"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Wall       WallConfig       `mapstructure:"wall" yaml:"wall"`
}

// RedisConfig enables the recent-blessings cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// GenerationConfig points at an OpenAI-compatible chat completions API.
type GenerationConfig struct {
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// WallConfig drives the terminal wall client.
type WallConfig struct {
	APIURL   string        `mapstructure:"api_url" yaml:"api_url"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MetricsEnabled:    true,
		Redis: RedisConfig{
			TTL: 30 * time.Second,
		},
		Generation: GenerationConfig{
			Temperature: 0.7,
			Timeout:     20 * time.Second,
		},
		Wall: WallConfig{
			APIURL:   "http://localhost:8080",
			Interval: 1800 * time.Millisecond,
		},
	}
}

// GenerationEnabled returns the generation settings, or nil unless the API
// key, base URL and model are all present.
func (c Config) GenerationEnabled() *GenerationConfig {
	g := c.Generation
	if strings.TrimSpace(g.APIKey) == "" || strings.TrimSpace(g.BaseURL) == "" || strings.TrimSpace(g.Model) == "" {
		return nil
	}
	return &g
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabaseURL != "" {
		c.DatabaseURL = other.DatabaseURL
	}
	if other.DatabaseDriver != "" {
		c.DatabaseDriver = other.DatabaseDriver
	}
	if other.Redis.Addr != "" {
		c.Redis.Addr = other.Redis.Addr
	}
	if other.Wall.APIURL != "" {
		c.Wall.APIURL = other.Wall.APIURL
	}
	if other.Wall.Interval != 0 {
		c.Wall.Interval = other.Wall.Interval
	}
}
