package config

import "time"

// Config holds all application configuration, organized into logical groups.
// Both binaries load the same structure; the worker simply ignores the
// server-only parts it does not need.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
}

// ServerConfig contains the front-facing process settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the PostgreSQL settings shared by both processes.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains bearer-credential verification settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// QueueConfig shapes the delayed task queue: how long a submitted job waits
// before becoming eligible, how many attempts a task gets, the exponential
// backoff base between attempts, and how long a delivery lease lasts before
// a crashed consumer's task is redelivered.
type QueueConfig struct {
	SubmissionDelaySeconds int `mapstructure:"submission_delay_seconds" validate:"required,gt=0"`
	MaxAttempts            int `mapstructure:"max_attempts"             validate:"required,gt=0"`
	BackoffBaseSeconds     int `mapstructure:"backoff_base_seconds"     validate:"required,gt=0"`
	LeaseSeconds           int `mapstructure:"lease_seconds"            validate:"required,gt=0"`

	// ProcessingAllowanceSeconds is added to a job's scheduled time to
	// produce the estimated completion time returned by intake.
	ProcessingAllowanceSeconds int `mapstructure:"processing_allowance_seconds" validate:"required,gt=0"`
}

// WorkerConfig caps the worker process's load on the generation
// collaborator: at most Concurrency in-flight tasks, and at most RateLimit
// completions per RateWindowSeconds window.
type WorkerConfig struct {
	Concurrency         int `mapstructure:"concurrency"           validate:"required,gt=0"`
	RateLimit           int `mapstructure:"rate_limit"            validate:"required,gt=0"`
	RateWindowSeconds   int `mapstructure:"rate_window_seconds"   validate:"required,gt=0"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`
	DrainTimeoutSeconds int `mapstructure:"drain_timeout_seconds" validate:"required,gt=0"`
}

// LLMConfig contains the generation collaborator settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}

// SubmissionDelay returns the configured intake delay as a duration.
func (c QueueConfig) SubmissionDelay() time.Duration {
	return time.Duration(c.SubmissionDelaySeconds) * time.Second
}

// BackoffBase returns the configured backoff base as a duration.
func (c QueueConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseSeconds) * time.Second
}

// Lease returns the configured delivery lease as a duration.
func (c QueueConfig) Lease() time.Duration {
	return time.Duration(c.LeaseSeconds) * time.Second
}

// ProcessingAllowance returns the configured completion-estimate padding.
func (c QueueConfig) ProcessingAllowance() time.Duration {
	return time.Duration(c.ProcessingAllowanceSeconds) * time.Second
}

// RateWindow returns the worker's rate-cap window as a duration.
func (c WorkerConfig) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSeconds) * time.Second
}

// PollInterval returns the worker's queue polling interval as a duration.
func (c WorkerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// DrainTimeout returns how long shutdown waits for in-flight tasks before
// canceling them.
func (c WorkerConfig) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutSeconds) * time.Second
}
