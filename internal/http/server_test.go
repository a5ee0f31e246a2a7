package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/extraction"
	"github.com/fyrsmithlabs/actiond/internal/metrics"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
	"github.com/fyrsmithlabs/actiond/internal/telemetry"
)

var meetingDay = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func testTeam() []tasks.TeamMember {
	return []tasks.TeamMember{
		{Name: "Sakshi", Role: "Frontend Developer", Skills: []string{"React", "JavaScript", "UI"}},
		{Name: "Mohit", Role: "Backend Engineer", Skills: []string{"Database", "API"}},
		{Name: "Arjun", Role: "UI/UX Designer", Skills: []string{"Figma", "Design"}},
		{Name: "Lata", Role: "QA Engineer", Skills: []string{"Testing", "Automation"}},
	}
}

func newTestPipeline(t *testing.T, opts ...pipeline.Option) *pipeline.Service {
	t.Helper()
	svc, err := pipeline.NewService(extraction.DefaultConfig(),
		append([]pipeline.Option{pipeline.WithClock(extraction.FixedClock(meetingDay))}, opts...)...)
	require.NoError(t, err)
	return svc
}

// setupTestServer creates a test server with default configuration.
func setupTestServer(t *testing.T, cfg *Config, opts ...Option) *Server {
	t.Helper()

	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 9191}
	}
	server, err := NewServer(newTestPipeline(t), zap.NewNop(), cfg, opts...)
	require.NoError(t, err)

	return server
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func ptr(s string) *string { return &s }

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{Host: "localhost", Port: 9191}
		server, err := NewServer(newTestPipeline(t), zap.NewNop(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, server.echo)
		assert.Equal(t, cfg, server.config)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(newTestPipeline(t), zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", server.config.Host)
		assert.Equal(t, 9191, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(newTestPipeline(t), nil, nil)
		assert.ErrorContains(t, err, "needs a logger")
	})

	t.Run("returns error when pipeline is nil", func(t *testing.T) {
		_, err := NewServer(nil, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "pipeline service cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	server := setupTestServer(t, &Config{Version: "1.2.3"}, WithTelemetry(tel.Telemetry))

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	require.NotNil(t, resp.Telemetry)
	assert.True(t, resp.Telemetry.Healthy)
}

func TestHandleTasks(t *testing.T) {
	t.Run("extracts and assigns tasks", func(t *testing.T) {
		server := setupTestServer(t, nil)

		rec := postJSON(t, server, "/api/v1/tasks", TasksRequest{
			Transcript:  ptr("Sakshi, fix the critical login bug tomorrow. Optimize database performance and API calls."),
			TeamMembers: testTeam(),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var run pipeline.Run
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
		assert.Equal(t, "http", run.Source)
		require.Len(t, run.Tasks, 2)
		assert.Equal(t, "Sakshi", run.Tasks[0].Assignee())
		assert.Equal(t, "2025-03-11", run.Tasks[0].DeadlineValue())
		assert.Equal(t, "Mohit", run.Tasks[1].Assignee())
	})

	t.Run("empty transcript yields no tasks", func(t *testing.T) {
		server := setupTestServer(t, nil)
		rec := postJSON(t, server, "/api/v1/tasks", TasksRequest{Transcript: ptr(""), TeamMembers: testTeam()})
		require.Equal(t, http.StatusOK, rec.Code)

		var run pipeline.Run
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
		assert.Zero(t, run.TaskCount)
	})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing transcript", map[string]any{"team_members": testTeam()}, http.StatusBadRequest},
		{"empty roster", TasksRequest{Transcript: ptr("Fix the bug.")}, http.StatusUnprocessableEntity},
		{"duplicate names", TasksRequest{Transcript: ptr("Fix the bug."), TeamMembers: []tasks.TeamMember{
			{Name: "Mohit"}, {Name: "mohit"},
		}}, http.StatusBadRequest},
		{"malformed body", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, nil)
			rec := postJSON(t, server, "/api/v1/tasks", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleScore(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/score", ScoreRequest{
		Description: "Design new onboarding screens in Figma",
		TeamMembers: testTeam(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Arjun", resp.BestMatch)
	assert.Equal(t, 65, resp.Score)
	require.Len(t, resp.Candidates, 4)
	assert.Equal(t, "Arjun", resp.Candidates[0].Name)
	assert.Equal(t, []string{"figma", "design"}, resp.Candidates[0].Why.MatchedSkills)

	t.Run("rejects blank description", func(t *testing.T) {
		rec := postJSON(t, server, "/api/v1/score", ScoreRequest{Description: "  ", TeamMembers: testTeam()})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty roster", func(t *testing.T) {
		rec := postJSON(t, server, "/api/v1/score", ScoreRequest{Description: "Fix the bug"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestHandleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom := metrics.New(reg)

	server, err := NewServer(newTestPipeline(t, pipeline.WithPrometheus(prom)), zap.NewNop(),
		&Config{Host: "localhost", Port: 9191}, WithGatherer(reg))
	require.NoError(t, err)

	rec := postJSON(t, server, "/api/v1/tasks", TasksRequest{Transcript: ptr("Fix the login bug."), TeamMembers: testTeam()})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `actiond_runs_total{status="ok"} 1`)
}

func TestRateLimit(t *testing.T) {
	server := setupTestServer(t, &Config{RateLimitRPS: 0.001, RateLimitBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := postJSON(t, server, "/api/v1/score", ScoreRequest{Description: "Fix the bug", TeamMembers: testTeam()})
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	t.Run("health is exempt", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBodyLimit(t *testing.T) {
	server := setupTestServer(t, &Config{MaxBodyBytes: 64})

	rec := postJSON(t, server, "/api/v1/tasks", TasksRequest{
		Transcript:  ptr(strings.Repeat("Fix the bug. ", 20)),
		TeamMembers: testTeam(),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServerLifecycle(t *testing.T) {
	t.Run("starts and shuts down gracefully", func(t *testing.T) {
		server := setupTestServer(t, &Config{Host: "localhost", Port: 0})

		// Start server in background
		errChan := make(chan error, 1)
		go func() {
			errChan <- server.Start()
		}()

		// Give server time to start
		time.Sleep(100 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, server.Shutdown(ctx))

		select {
		case err := <-errChan:
			assert.True(t, err == nil || err == http.ErrServerClosed)
		case <-time.After(6 * time.Second):
			t.Fatal("server did not shut down in time")
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("adds request ID to response", func(t *testing.T) {
		server := setupTestServer(t, nil)

		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("recovers from panic", func(t *testing.T) {
		server := setupTestServer(t, nil)

		server.echo.GET("/panic", func(c echo.Context) error {
			panic("test panic")
		})

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
