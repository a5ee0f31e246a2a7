// Package http provides the HTTP API for actiond.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/logging"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
	"github.com/fyrsmithlabs/actiond/internal/telemetry"
)

// Server provides HTTP endpoints for actiond.
type Server struct {
	echo      *echo.Echo
	pipeline  *pipeline.Service
	telemetry *telemetry.Telemetry
	gatherer  prometheus.Gatherer
	meter     metric.Meter
	logger    *zap.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	Version        string
}

// Option configures a Server.
type Option func(*Server)

// WithTelemetry reports telemetry health on /health.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(s *Server) {
		s.telemetry = t
	}
}

// WithGatherer sets the Prometheus registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithMeter sets the meter for HTTP metrics.
func WithMeter(m metric.Meter) Option {
	return func(s *Server) {
		s.meter = m
	}
}

// NewServer creates a new HTTP server.
func NewServer(svc *pipeline.Service, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("pipeline service cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("http server needs a logger")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 9191,
		}
	}

	s := &Server{
		pipeline: svc,
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = echo.ExtractIPDirect()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())
	e.Use(newRequestMetrics(s.meter, logger).middleware())
	if cfg.RateLimitRPS > 0 {
		e.Use(newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	}
	if cfg.MaxBodyBytes > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", cfg.MaxBodyBytes)))
	}

	s.echo = e
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/tasks", s.handleTasks)
	v1.POST("/score", s.handleScore)
}

// requestLogger logs each request and tags the request context with its id.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), requestID)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			s.logger.Info("http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestID),
			)

			return nil
		}
	}
}

// handleHealth reports liveness and, when configured, telemetry health.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.config.Version}
	if s.telemetry != nil {
		h := s.telemetry.Health()
		resp.Telemetry = &h
	}
	return c.JSON(http.StatusOK, resp)
}

// handleTasks runs the pipeline over the posted transcript.
func (s *Server) handleTasks(c echo.Context) error {
	var req TasksRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid tasks request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Transcript == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "transcript field is required")
	}
	if len(req.TeamMembers) == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "team_members must not be empty")
	}

	source := req.Source
	if source == "" {
		source = "http"
	}

	run, err := s.pipeline.Process(c.Request().Context(), pipeline.Request{
		Transcript: req.Transcript,
		Roster:     req.TeamMembers,
		Source:     source,
	})
	if err != nil {
		return s.pipelineError(err)
	}

	return c.JSON(http.StatusOK, run)
}

// handleScore ranks the posted team members for a description.
func (s *Server) handleScore(c echo.Context) error {
	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid score request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description field is required")
	}
	if len(req.TeamMembers) == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "team_members must not be empty")
	}

	roster := tasks.Roster(req.TeamMembers)
	if err := roster.Validate(); err != nil {
		return s.pipelineError(err)
	}

	assigner, err := s.pipeline.Assigner(roster)
	if err != nil {
		return s.pipelineError(err)
	}

	best, score := assigner.BestMatch(req.Description)
	return c.JSON(http.StatusOK, ScoreResponse{
		Description: req.Description,
		BestMatch:   best,
		Score:       score,
		Candidates:  assigner.Ranking(req.Description),
	})
}

// pipelineError maps a pipeline error to an HTTP error.
func (s *Server) pipelineError(err error) error {
	if errors.Is(err, tasks.ErrInvalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.logger.Error("pipeline failed", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
