package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/actiond/internal/config"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestInitDependencies(t *testing.T) {
	cfg := config.Default()
	cfg.Redaction.Enabled = true

	deps, err := initDependencies(context.Background(), cfg, true)
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.service)
	assert.Nil(t, deps.natsConn)

	text := "Mohit, optimize the database queries."
	run, err := deps.service.Process(context.Background(), pipeline.Request{
		Transcript: &text,
		Roster:     tasks.Roster{tasks.NewTeamMember("Mohit", "Backend Engineer", "Database")},
	})
	require.NoError(t, err)
	require.Len(t, run.Tasks, 1)
	assert.Equal(t, "Mohit", run.Tasks[0].Assignee())
}

func TestInitDependencies_MissingAllowlist(t *testing.T) {
	cfg := config.Default()
	cfg.Redaction.Enabled = true
	cfg.Redaction.Allowlist = filepath.Join(t.TempDir(), "missing.toml")

	_, err := initDependencies(context.Background(), cfg, true)
	assert.ErrorContains(t, err, "allowlist")
}

func TestRun_ServesHealthAndShutsDown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "team.json")
	require.NoError(t, os.WriteFile(rosterPath,
		[]byte(`[{"name":"Mohit","role":"Backend Engineer","skills":["Database"]}]`), 0644))

	cfg := config.Default()
	cfg.Server.Port = freePort(t)
	cfg.Server.ShutdownTimeout = config.Duration(2 * time.Second)
	cfg.Watch.Dir = dir
	cfg.Watch.Roster = rosterPath

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg)
	}()

	url := fmt.Sprintf("http://%s/health", cfg.Server.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	resp, err := http.Post(fmt.Sprintf("http://%s/api/v1/tasks", cfg.Server.Addr()), "application/json",
		strings.NewReader(`{"transcript":"Mohit, fix the API.","team_members":[{"name":"Mohit","role":"Backend Engineer"}]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}

func TestShutdownTimeout(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 10*time.Second, shutdownTimeout(cfg))
	cfg.Server.ShutdownTimeout = 0
	assert.Equal(t, 10*time.Second, shutdownTimeout(cfg))
}
