package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const standup = "Sakshi, fix the critical login bug tomorrow. " +
	"Optimize database performance and API calls. " +
	"Someone should write unit tests for payment module. " +
	"Great meeting everyone."

const team = `[
  {"name": "Sakshi", "role": "Frontend Developer", "skills": ["React", "JavaScript", "UI"]},
  {"name": "Mohit", "role": "Backend Engineer", "skills": ["Database", "API", "Performance"]},
  {"name": "Lata", "role": "QA Engineer", "skills": ["Testing", "Automation"]}
]`

// executeCommand runs rootCmd with args and returns stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	// Flags persist between Execute calls on the package-level commands.
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		for _, name := range []string{"transcript", "team", "output", "format", "redact"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCmd_Commands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
		assert.NotEmpty(t, c.Short, c.Name())
	}
	assert.True(t, names["extract"])
	assert.True(t, names["score"])
	assert.True(t, names["version"])
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "actd dev")
}

func TestExtract_JSONToStdout(t *testing.T) {
	dir := t.TempDir()
	teamPath := writeFile(t, dir, "team.json", team)

	out, err := executeCommand(t, standup, "extract", "-t", "-", "--team", teamPath, "-f", "json", "-o", "-")
	require.NoError(t, err)

	var run struct {
		TaskCount int `json:"task_count"`
		Tasks     []struct {
			AssignedTo string `json:"assigned_to"`
			Priority   string `json:"priority"`
		} `json:"tasks"`
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, 3, run.TaskCount)
	require.Len(t, run.Tasks, 3)
	assert.Equal(t, "Sakshi", run.Tasks[0].AssignedTo)
	assert.Equal(t, "Critical", run.Tasks[0].Priority)
	assert.Equal(t, "Mohit", run.Tasks[1].AssignedTo)
	assert.Equal(t, "Lata", run.Tasks[2].AssignedTo)
	assert.Equal(t, 3, run.Summary.Total)
}

func TestExtract_StdoutDefaultsToJSON(t *testing.T) {
	dir := t.TempDir()
	teamPath := writeFile(t, dir, "team.json", team)

	out, err := executeCommand(t, standup, "extract", "-t", "-", "--team", teamPath, "-o", "-")
	require.NoError(t, err)

	var run struct {
		TaskCount int `json:"task_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &run), out)
	assert.Equal(t, 3, run.TaskCount)
	assert.NotContains(t, out, "id,description,assigned_to")
}

func TestExtract_StdoutRejectsAll(t *testing.T) {
	dir := t.TempDir()
	teamPath := writeFile(t, dir, "team.json", team)

	out, err := executeCommand(t, standup, "extract", "-t", "-", "--team", teamPath, "-o", "-", "-f", "all")
	assert.ErrorContains(t, err, "cannot be combined")
	assert.NotContains(t, out, "task_count")
}

func TestExtract_AllFormats(t *testing.T) {
	dir := t.TempDir()
	teamPath := writeFile(t, dir, "team.json", team)
	transcriptPath := writeFile(t, dir, "standup.txt", standup)
	outPath := filepath.Join(dir, "out", "result.json")

	out, err := executeCommand(t, "", "extract", "--transcript", transcriptPath, "--team", teamPath, "--output", outPath)
	require.NoError(t, err)

	_, err = os.Stat(outPath)
	assert.NoError(t, err)
	csvData, err := os.ReadFile(filepath.Join(dir, "out", "result.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "id,description,assigned_to"))

	assert.Contains(t, out, "Total tasks: 3")
	assert.Contains(t, out, "Sakshi")
}

func TestExtract_Errors(t *testing.T) {
	dir := t.TempDir()
	teamPath := writeFile(t, dir, "team.json", team)
	emptyTeam := writeFile(t, dir, "empty.json", "[]")

	tests := []struct {
		name string
		args []string
	}{
		{"missing transcript flag", []string{"extract", "--team", teamPath}},
		{"unknown format", []string{"extract", "-t", "-", "--team", teamPath, "-f", "xml"}},
		{"missing team file", []string{"extract", "-t", "-", "--team", filepath.Join(dir, "nope.json")}},
		{"empty roster", []string{"extract", "-t", "-", "--team", emptyTeam, "-o", "-"}},
		{"audio transcript", []string{"extract", "-t", filepath.Join(dir, "call.mp3"), "--team", teamPath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, standup, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestScoreCmd(t *testing.T) {
	dir := t.TempDir()
	teamPath := writeFile(t, dir, "team.json", team)

	out, err := executeCommand(t, "", "score", "--team", teamPath, "Optimize database performance and API calls")
	require.NoError(t, err)
	assert.Contains(t, out, "Best match: Mohit (score 90)")
	assert.Contains(t, out, "skills: database, api, performance")
	assert.Contains(t, out, "backend bucket (database)")
}

func TestScoreCmd_NoMatch(t *testing.T) {
	dir := t.TempDir()
	teamPath := writeFile(t, dir, "team.json", team)

	out, err := executeCommand(t, "", "score", "--team", teamPath, "Review the quarterly budget")
	require.NoError(t, err)
	assert.Contains(t, out, "Best match: Unassigned (score 0)")
}
