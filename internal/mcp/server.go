package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/pipeline"
)

const instructions = `Extract action items from meeting transcripts with extract_tasks.
Pass the full transcript and the team roster; every task comes back with an
assignee, priority, deadline and reason. Use score_assignees to see why a
description would go to a given member.`

// Server exposes the extraction pipeline as MCP tools.
type Server struct {
	mcp      *mcp.Server
	pipeline *pipeline.Service
	metrics  *Metrics
	logger   *zap.Logger
}

// Option configures NewServer.
type Option func(*Server, *mcp.Implementation)

// WithImplementation sets the name and version reported during the MCP
// handshake. Defaults are "actiond" and "dev".
func WithImplementation(name, version string) Option {
	return func(_ *Server, impl *mcp.Implementation) {
		if name != "" {
			impl.Name = name
		}
		if version != "" {
			impl.Version = version
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server, _ *mcp.Implementation) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer registers the extract_tasks and score_assignees tools over svc.
func NewServer(svc *pipeline.Service, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("pipeline service is required")
	}

	s := &Server{pipeline: svc, logger: zap.NewNop()}
	impl := &mcp.Implementation{Name: "actiond", Version: "dev"}
	for _, opt := range opts {
		opt(s, impl)
	}

	s.metrics = NewMetrics(s.logger)
	s.mcp = mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions})
	s.registerTools()
	return s, nil
}

// Run serves MCP over stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP on stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

// Connect serves one session on t, for in-process clients.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}
