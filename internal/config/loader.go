package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "KAOYAN"
	envConfigDefaultPath = "KAOYAN_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// unprefixedEnv maps keys to the deployment variables read without the KAOYAN_ prefix.
var unprefixedEnv = map[string][]string{
	"database_url":           {"DATABASE_URL"},
	"database_driver":        {"DATABASE_DRIVER"},
	"redis.addr":             {"REDIS_ADDR"},
	"redis.password":         {"REDIS_PASSWORD"},
	"generation.api_key":     {"OPENAI_API_KEY"},
	"generation.base_url":    {"OPENAI_BASE_URL"},
	"generation.model":       {"OPENAI_MODEL"},
	"generation.timeout":     {"OPENAI_TIMEOUT"},
	"generation.temperature": {"OPENAI_TEMPERATURE"},
}

// Load builds configuration from defaults, optional config file and env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
// A missing config file is not an error.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range unprefixedEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, prefixed}, names...)
		if err := v.BindEnv(args...); err != nil {
			return cfg, "", fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if logger != nil {
				logger.Debug().Str("path", configPath).Msg("no config file, using defaults and environment")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	// Serverless hosts hand out the listen port as PORT.
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_ADDR") == "" {
		cfg.Addr = ":" + port
	}

	return cfg, configPath, nil
}

// WriteDefault writes the default configuration as YAML. Existing files are
// only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) (string, error) {
	path = resolveConfigPath(path)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("config %s already exists", path)
		}
	}
	return path, writeDefaultConfig(path, Default())
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("metrics_enabled", cfg.MetricsEnabled)
	v.SetDefault("database_url", cfg.DatabaseURL)
	v.SetDefault("database_driver", cfg.DatabaseDriver)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.ttl", cfg.Redis.TTL)
	v.SetDefault("generation.api_key", cfg.Generation.APIKey)
	v.SetDefault("generation.base_url", cfg.Generation.BaseURL)
	v.SetDefault("generation.model", cfg.Generation.Model)
	v.SetDefault("generation.temperature", cfg.Generation.Temperature)
	v.SetDefault("generation.timeout", cfg.Generation.Timeout)
	v.SetDefault("wall.api_url", cfg.Wall.APIURL)
	v.SetDefault("wall.interval", cfg.Wall.Interval)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
