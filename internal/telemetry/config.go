// Package telemetry wires OpenTelemetry tracing and metrics for actiond.
//
// Spans cover each pipeline run and HTTP request; metrics are exported over
// OTLP alongside the Prometheus registry in internal/metrics.
package telemetry

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fyrsmithlabs/actiond/internal/config"
)

// Config describes the OTLP export.
type Config struct {
	Enabled        bool           `koanf:"enabled"`
	Endpoint       string         `koanf:"endpoint"`
	Protocol       string         `koanf:"protocol"` // grpc | http
	ServiceName    string         `koanf:"service_name"`
	ServiceVersion string         `koanf:"service_version"`
	Insecure       bool           `koanf:"insecure"`
	TLSSkipVerify  bool           `koanf:"tls_skip_verify"`
	SamplingRate   float64        `koanf:"sampling_rate"`
	Metrics        MetricsConfig  `koanf:"metrics"`
	Shutdown       ShutdownConfig `koanf:"shutdown"`
}

// MetricsConfig controls OTLP metric export.
type MetricsConfig struct {
	Enabled        bool            `koanf:"enabled"`
	ExportInterval config.Duration `koanf:"export_interval"`
}

// ShutdownConfig bounds Telemetry.Shutdown.
type ShutdownConfig struct {
	Timeout config.Duration `koanf:"timeout"`
}

// NewDefaultConfig returns a disabled config pointing at a local collector.
func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:       "localhost:4317",
		Protocol:       "grpc",
		ServiceName:    "actiond",
		ServiceVersion: "dev",
		Insecure:       true,
		SamplingRate:   1,
		Metrics:        MetricsConfig{Enabled: true, ExportInterval: config.Duration(15 * time.Second)},
		Shutdown:       ShutdownConfig{Timeout: config.Duration(5 * time.Second)},
	}
}

// FromSettings maps the observability section of the app config onto a
// telemetry Config. Loopback endpoints are always plaintext.
func FromSettings(s config.ObservabilityConfig, version string) *Config {
	cfg := NewDefaultConfig()
	cfg.Enabled = s.EnableTelemetry
	cfg.SamplingRate = s.SamplingRate
	for dst, src := range map[*string]string{
		&cfg.Endpoint:       s.Endpoint,
		&cfg.Protocol:       s.Protocol,
		&cfg.ServiceName:    s.ServiceName,
		&cfg.ServiceVersion: version,
	} {
		if src != "" {
			*dst = src
		}
	}
	cfg.Insecure = s.Insecure || isLocal(cfg.Endpoint)
	return cfg
}

// Validate reports the first problem with an enabled config. A disabled
// config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case c.Endpoint == "":
		return errors.New("endpoint is required when telemetry is enabled")
	case c.ServiceName == "":
		return errors.New("service_name is required when telemetry is enabled")
	case c.Protocol != "grpc" && c.Protocol != protocolHTTP:
		return fmt.Errorf("protocol must be grpc or http, got %q", c.Protocol)
	case c.Insecure && !isLocal(c.Endpoint):
		return fmt.Errorf("insecure export to %s refused; use TLS for non-loopback collectors", c.Endpoint)
	case c.SamplingRate < 0 || c.SamplingRate > 1:
		return fmt.Errorf("sampling_rate must be within [0, 1], got %g", c.SamplingRate)
	case c.Metrics.Enabled && c.Metrics.ExportInterval <= 0:
		return errors.New("metrics.export_interval must be positive")
	case c.Shutdown.Timeout <= 0:
		return errors.New("shutdown.timeout must be positive")
	}
	return nil
}

// isLocal reports whether endpoint resolves to loopback without a lookup.
func isLocal(endpoint string) bool {
	host := stripScheme(endpoint)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func stripScheme(endpoint string) string {
	for _, scheme := range []string{"https://", "http://"} {
		endpoint = strings.TrimPrefix(endpoint, scheme)
	}
	return endpoint
}
