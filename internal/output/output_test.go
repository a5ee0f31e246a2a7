package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

func testRecords() []tasks.Record {
	deadline := "2025-03-11"
	records := []tasks.Record{
		{
			ID:           1,
			Description:  "Sakshi, fix the critical login bug tomorrow.",
			Priority:     tasks.PriorityCritical,
			Deadline:     &deadline,
			Dependencies: []int{},
			Reason:       "it's blocking users",
		},
		{
			ID:           2,
			Description:  "Write unit tests for the payment module, after the login fix.",
			Priority:     tasks.PriorityMedium,
			Dependencies: []int{1, 3},
			Reason:       "Write unit tests for the payment module, after th...",
		},
	}
	records[0].Assign("Sakshi")
	records[1].Assign(tasks.Unassigned)
	return records
}

func testRun() *pipeline.Run {
	records := testRecords()
	return &pipeline.Run{
		ID:          uuid.MustParse("5b0c6f7e-1c1e-4b53-9d55-0d8f1e6b2a11"),
		GeneratedAt: time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC),
		Source:      "standup.txt",
		TaskCount:   len(records),
		Tasks:       records,
		Summary:     tasks.Summarize(records),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" CSV ", FormatCSV, false},
		{"table", FormatTable, false},
		{"all", FormatAll, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Formats(t *testing.T) {
	assert.Equal(t, []Format{FormatJSON, FormatCSV, FormatTable}, FormatAll.Formats())
	assert.Equal(t, []Format{FormatCSV}, FormatCSV.Formats())
}

func TestWriteJSON_Envelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testRun()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "5b0c6f7e-1c1e-4b53-9d55-0d8f1e6b2a11", got["run_id"])
	assert.Equal(t, "2025-03-10T09:30:00Z", got["generated_at"])
	assert.Equal(t, "standup.txt", got["source"])
	assert.Equal(t, float64(2), got["task_count"])
	assert.NotContains(t, got, "redactions")

	tasksJSON := got["tasks"].([]any)
	require.Len(t, tasksJSON, 2)
	first := tasksJSON[0].(map[string]any)
	assert.Equal(t, "Sakshi", first["assigned_to"])
	assert.Equal(t, "2025-03-11", first["deadline"])
	assert.Equal(t, []any{}, first["dependencies"])
	assert.Nil(t, tasksJSON[1].(map[string]any)["deadline"])

	summary := got["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["total"])

	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \""))
}

func TestSaveJSON_Atomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tasks.json")
	require.NoError(t, SaveJSON(path, testRun()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var run pipeline.Run
	require.NoError(t, json.Unmarshal(data, &run))
	assert.Equal(t, 2, run.TaskCount)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"1", "Sakshi, fix the critical login bug tomorrow.", "Sakshi", "2025-03-11", "Critical", "", "it's blocking users"}, rows[1])
	assert.Equal(t, "", rows[2][3])
	assert.Equal(t, "1;3", rows[2][5])
	assert.Equal(t, tasks.Unassigned, rows[2][2])
}

func TestWriteCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(Columns, ",")+"\n", buf.String())
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, SaveCSV(path, testRecords()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Sakshi")
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(testRecords())
	for _, want := range []string{"Description", "Assigned To", "Sakshi", "Critical", "2025-03-11", "1;3"} {
		assert.Contains(t, out, want)
	}
	assert.NotEmpty(t, RenderTable(nil))
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(tasks.Summarize(testRecords()))
	assert.Contains(t, out, "Total tasks: 2")
	assert.Contains(t, out, "Critical:")
	assert.Contains(t, out, "Unassigned:")
	assert.NotContains(t, out, "Low:")
	assert.Less(t, strings.Index(out, "Critical:"), strings.Index(out, "Medium:"))
}
