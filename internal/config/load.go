package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables, e.g.
// FORGE_SERVER_PORT or FORGE_DATABASE_URL.
const envPrefix = "FORGE"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory, applies defaults, and validates
// the result. Environment variables take precedence over file values.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from the
		// environment. Any other read error is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// each key explicitly to make env-only configuration work.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %q: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Secrets (database URL, JWT secret, API key) deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("queue.submission_delay_seconds", 60)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.backoff_base_seconds", 1)
	v.SetDefault("queue.lease_seconds", 120)
	v.SetDefault("queue.processing_allowance_seconds", 30)

	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("worker.rate_limit", 10)
	v.SetDefault("worker.rate_window_seconds", 60)
	v.SetDefault("worker.poll_interval_seconds", 1)
	v.SetDefault("worker.drain_timeout_seconds", 30)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
}
