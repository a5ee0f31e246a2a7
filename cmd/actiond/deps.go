package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/config"
	"github.com/fyrsmithlabs/actiond/internal/events"
	"github.com/fyrsmithlabs/actiond/internal/logging"
	"github.com/fyrsmithlabs/actiond/internal/metrics"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/secrets"
	"github.com/fyrsmithlabs/actiond/internal/telemetry"
)

// dependencies holds everything the daemon modes share.
type dependencies struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	metrics   *metrics.Metrics
	natsConn  *nats.Conn
	service   *pipeline.Service

	cfg *config.Config
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.natsConn != nil {
		if err := d.natsConn.Drain(); err != nil {
			d.natsConn.Close()
		}
	}
	if d.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(d.cfg))
		defer cancel()
		if err := d.telemetry.Shutdown(ctx); err != nil {
			d.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	if d.logger != nil {
		_ = logging.Sync(d.logger) // Best-effort sync
	}
}

// initLogger builds the structured logger. stdio mode logs to stderr.
func initLogger(cfg *config.Config, stdio bool) (*zap.Logger, error) {
	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	if stdio {
		logCfg.Output.Stdout = false
		logCfg.Output.Stderr = true
	}

	return logging.NewLogger(logCfg, global.GetLoggerProvider())
}

// initDependencies wires logging, telemetry, events and the pipeline.
func initDependencies(ctx context.Context, cfg *config.Config, stdio bool) (*dependencies, error) {
	logger, err := initLogger(cfg, stdio)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	deps := &dependencies{logger: logger, cfg: cfg, metrics: metrics.Default()}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Observability, version))
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	deps.telemetry = tel

	opts := []pipeline.Option{
		pipeline.WithAssignmentConfig(cfg.Assignment),
		pipeline.WithLogger(logger.Named("pipeline")),
		pipeline.WithMeter(tel.Meter(pipeline.InstrumentationName)),
		pipeline.WithTracer(tel.Tracer(pipeline.InstrumentationName)),
		pipeline.WithPrometheus(deps.metrics),
	}

	if cfg.Redaction.Enabled {
		var allowlist *secrets.Allowlist
		if cfg.Redaction.Allowlist != "" {
			allowlist, err = secrets.LoadAllowlist(cfg.Redaction.Allowlist)
			if err != nil {
				deps.Close()
				return nil, fmt.Errorf("failed to load redaction allowlist: %w", err)
			}
		}
		opts = append(opts, pipeline.WithRedactor(secrets.NewRedactor(allowlist)))
	}

	if cfg.Events.Enabled {
		nc, err := events.Connect(cfg.Events, logger.Named("events"))
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		deps.natsConn = nc
		opts = append(opts, pipeline.WithPublisher(events.NewNATSPublisher(nc, cfg.Events.SubjectPrefix,
			events.WithTimeout(cfg.Events.Timeout.Duration()),
			events.WithLogger(logger.Named("events")))))
	}

	svc, err := pipeline.NewService(cfg.Extraction, opts...)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	deps.service = svc

	return deps, nil
}
