package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/config"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func testRun() *pipeline.Run {
	records := []tasks.Record{
		{ID: 1, Description: "Sakshi, fix the login bug.", Priority: tasks.PriorityCritical, Dependencies: []int{}},
		{ID: 2, Description: "Review the budget.", Priority: tasks.PriorityMedium, Dependencies: []int{}},
	}
	records[0].Assign("Sakshi")
	records[1].Assign(tasks.Unassigned)
	return &pipeline.Run{
		ID:        uuid.MustParse("5b0c6f7e-1c1e-4b53-9d55-0d8f1e6b2a11"),
		Source:    "standup.txt",
		TaskCount: 2,
		Tasks:     records,
		Summary:   tasks.Summarize(records),
	}
}

func TestNATSPublisher_Publish(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	runs := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("actiond.runs.*.completed", runs)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assigned := make(chan *nats.Msg, 4)
	taskSub, err := nc.ChanSubscribe("actiond.tasks.*.assigned", assigned)
	require.NoError(t, err)
	defer taskSub.Unsubscribe()

	run := testRun()
	pub := NewNATSPublisher(nc, "actiond.")
	require.NoError(t, pub.Publish(context.Background(), run))

	select {
	case msg := <-runs:
		assert.Equal(t, "actiond.runs.5b0c6f7e-1c1e-4b53-9d55-0d8f1e6b2a11.completed", msg.Subject)
		var got pipeline.Run
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, run.ID, got.ID)
		assert.Len(t, got.Tasks, 2)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for run event")
	}

	subjects := map[string]TaskEvent{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-assigned:
			var ev TaskEvent
			require.NoError(t, json.Unmarshal(msg.Data, &ev))
			subjects[msg.Subject] = ev
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for task event")
		}
	}
	require.Contains(t, subjects, "actiond.tasks.sakshi.assigned")
	require.Contains(t, subjects, "actiond.tasks.unassigned.assigned")
	assert.Equal(t, 1, subjects["actiond.tasks.sakshi.assigned"].Task.ID)
	assert.Equal(t, run.ID, subjects["actiond.tasks.sakshi.assigned"].RunID)
}

func TestNATSPublisher_ClosedConnection(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	nc.Close()

	err = NewNATSPublisher(nc, "actiond").Publish(context.Background(), testRun())
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	server := startTestNATSServer(t)
	cfg := config.Default().Events
	cfg.URL = server.ClientURL()

	nc, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	defer nc.Close()
	assert.Eventually(t, nc.IsConnected, time.Second, 10*time.Millisecond)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), testRun()))
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Mohit":         "mohit",
		"Anna Lee":      "anna-lee",
		"  O'Brien  ":   "o-brien",
		"dev.ops*team>": "dev-ops-team",
		"":              "unassigned",
		"Unassigned":    "unassigned",
		"...":           "unassigned",
		"Ана":           "ана",
		"José García":   "josé-garcía",
		"李 明":           "李-明",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestSubjects(t *testing.T) {
	id := uuid.MustParse("5b0c6f7e-1c1e-4b53-9d55-0d8f1e6b2a11")
	assert.Equal(t, "x.runs.5b0c6f7e-1c1e-4b53-9d55-0d8f1e6b2a11.completed", RunSubject("x", id))
	assert.Equal(t, "x.tasks.anna-lee.assigned", TaskSubject("x", "Anna Lee"))
	assert.NotEqual(t, TaskSubject("x", "Unassigned"), TaskSubject("x", "Ана"))
}
