// Package config provides configuration loading for actiond.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then ACTIOND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/actiond/internal/assignment"
	"github.com/fyrsmithlabs/actiond/internal/extraction"
)

// Config holds the complete actiond configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
	Extraction    extraction.Config   `koanf:"extraction"`
	Assignment    assignment.Config   `koanf:"assignment"`
	Events        EventsConfig        `koanf:"events"`
	Watch         WatchConfig         `koanf:"watch"`
	Redaction     RedactionConfig     `koanf:"redaction"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	RateLimitRPS    float64  `koanf:"rate_limit_rps"`
	RateLimitBurst  int      `koanf:"rate_limit_burst"`
	MaxBodyBytes    int64    `koanf:"max_body_bytes"`
}

// LoggingConfig holds log settings. internal/logging expands these.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// ObservabilityConfig holds OpenTelemetry settings. internal/telemetry
// expands these.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"`
	Insecure        bool    `koanf:"insecure"`
	ServiceName     string  `koanf:"service_name"`
	SamplingRate    float64 `koanf:"sampling_rate"`
}

// EventsConfig holds NATS publishing settings.
type EventsConfig struct {
	Enabled       bool     `koanf:"enabled"`
	URL           string   `koanf:"url"`
	SubjectPrefix string   `koanf:"subject_prefix"`
	Token         Secret   `koanf:"token"`
	Timeout       Duration `koanf:"timeout"`
}

// WatchConfig holds transcript directory watcher settings.
type WatchConfig struct {
	Dir      string   `koanf:"dir"`
	Roster   string   `koanf:"roster"`
	Debounce Duration `koanf:"debounce"`
}

// RedactionConfig controls secret redaction before extraction.
type RedactionConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Allowlist string `koanf:"allowlist"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.RateLimitRPS == 0 {
		cfg.Server.RateLimitRPS = 5
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 10 << 20
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Observability defaults
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "actiond"
	}
	if cfg.Observability.SamplingRate == 0 {
		cfg.Observability.SamplingRate = 1.0
	}

	// Extraction defaults, per table so a file can override one table only
	ext := extraction.DefaultConfig()
	if len(cfg.Extraction.ActionKeywords) == 0 {
		cfg.Extraction.ActionKeywords = ext.ActionKeywords
	}
	if len(cfg.Extraction.PriorityRules) == 0 {
		cfg.Extraction.PriorityRules = ext.PriorityRules
	}
	if cfg.Extraction.DefaultPriority == "" {
		cfg.Extraction.DefaultPriority = ext.DefaultPriority
	}
	if len(cfg.Extraction.DeadlinePatterns) == 0 {
		cfg.Extraction.DeadlinePatterns = ext.DeadlinePatterns
	}
	if len(cfg.Extraction.ReasonPatterns) == 0 {
		cfg.Extraction.ReasonPatterns = ext.ReasonPatterns
	}
	if cfg.Extraction.ReasonFallbackLength == 0 {
		cfg.Extraction.ReasonFallbackLength = ext.ReasonFallbackLength
	}
	if cfg.Extraction.ReasonEllipsis == "" {
		cfg.Extraction.ReasonEllipsis = ext.ReasonEllipsis
	}

	// Assignment defaults
	asg := assignment.DefaultConfig()
	if cfg.Assignment.SkillWeight == 0 {
		cfg.Assignment.SkillWeight = asg.SkillWeight
	}
	if cfg.Assignment.RoleTokenWeight == 0 {
		cfg.Assignment.RoleTokenWeight = asg.RoleTokenWeight
	}
	if cfg.Assignment.BucketBonus == 0 {
		cfg.Assignment.BucketBonus = asg.BucketBonus
	}
	if cfg.Assignment.MaxScore == 0 {
		cfg.Assignment.MaxScore = asg.MaxScore
	}
	if len(cfg.Assignment.RoleBuckets) == 0 {
		cfg.Assignment.RoleBuckets = asg.RoleBuckets
	}

	// Events defaults
	if cfg.Events.URL == "" {
		cfg.Events.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "actiond"
	}
	if cfg.Events.Timeout == 0 {
		cfg.Events.Timeout = Duration(5 * time.Second)
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(500 * time.Millisecond)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		errs = append(errs, errors.New("server rate limits must not be negative"))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format))
	}
	if p := c.Observability.Protocol; p != "grpc" && p != "http" {
		errs = append(errs, fmt.Errorf("observability.protocol must be 'grpc' or 'http', got %q", p))
	}
	if r := c.Observability.SamplingRate; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("observability.sampling_rate must be between 0 and 1, got %f", r))
	}
	if err := c.Extraction.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("extraction: %w", err))
	}
	if err := c.Assignment.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("assignment: %w", err))
	}
	if c.Events.Enabled && c.Events.URL == "" {
		errs = append(errs, errors.New("events.url is required when events are enabled"))
	}
	if c.Watch.Dir != "" && c.Watch.Roster == "" {
		errs = append(errs, errors.New("watch.roster is required when watch.dir is set"))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
