package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/assignment"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/secrets"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	s.registerExtractTool()
	s.registerScoreTool()
}

// memberInput is a team member as sent by clients. Role and skills are
// optional.
type memberInput struct {
	Name   string   `json:"name" jsonschema:"Team member name as it is spoken in meetings"`
	Role   string   `json:"role,omitempty" jsonschema:"Job title, e.g. Backend Engineer"`
	Skills []string `json:"skills,omitempty" jsonschema:"Skill keywords matched against task text"`
}

func toRoster(members []memberInput) tasks.Roster {
	roster := make(tasks.Roster, len(members))
	for i, m := range members {
		roster[i] = tasks.NewTeamMember(m.Name, m.Role, m.Skills...)
	}
	return roster
}

// ===== EXTRACT TOOL =====

type extractTasksInput struct {
	Transcript  string        `json:"transcript" jsonschema:"Meeting transcript text"`
	TeamMembers []memberInput `json:"team_members" jsonschema:"Team roster; order breaks ties"`
	Source      string        `json:"source,omitempty" jsonschema:"Where the transcript came from"`
}

type extractTasksOutput struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Source      string            `json:"source,omitempty"`
	TaskCount   int               `json:"task_count"`
	Tasks       []tasks.Record    `json:"tasks"`
	Summary     tasks.Summary     `json:"summary"`
	Redactions  []secrets.Finding `json:"redactions,omitempty"`
}

func newExtractTasksOutput(run *pipeline.Run) extractTasksOutput {
	return extractTasksOutput{
		RunID:       run.ID.String(),
		GeneratedAt: run.GeneratedAt,
		Source:      run.Source,
		TaskCount:   run.TaskCount,
		Tasks:       run.Tasks,
		Summary:     run.Summary,
		Redactions:  run.Redactions,
	}
}

func (s *Server) registerExtractTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "extract_tasks",
		Description: "Extract action items from a meeting transcript and assign each to a team member",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args extractTasksInput) (*mcp.CallToolResult, extractTasksOutput, error) {
		done := s.metrics.track(ctx, "extract_tasks")
		var toolErr error
		defer func() { done(toolErr) }()

		source := args.Source
		if source == "" {
			source = "mcp"
		}

		run, err := s.pipeline.Process(ctx, pipeline.Request{
			Transcript: &args.Transcript,
			Roster:     toRoster(args.TeamMembers),
			Source:     source,
		})
		if err != nil {
			toolErr = err
			return nil, extractTasksOutput{}, err
		}

		s.logger.Debug("extract_tasks completed",
			zap.String("run.id", run.ID.String()),
			zap.Int("tasks", run.TaskCount))

		return nil, newExtractTasksOutput(run), nil
	})
}

// ===== SCORE TOOL =====

type scoreAssigneesInput struct {
	Description string        `json:"description" jsonschema:"Task description to score"`
	TeamMembers []memberInput `json:"team_members" jsonschema:"Team roster; order breaks ties"`
}

type scoreAssigneesOutput struct {
	Description string                 `json:"description"`
	BestMatch   string                 `json:"best_match"`
	Score       int                    `json:"score"`
	Candidates  []assignment.Candidate `json:"candidates"`
}

func (s *Server) registerScoreTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "score_assignees",
		Description: "Score every team member against a task description, best match first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scoreAssigneesInput) (*mcp.CallToolResult, scoreAssigneesOutput, error) {
		done := s.metrics.track(ctx, "score_assignees")
		var toolErr error
		defer func() { done(toolErr) }()

		if strings.TrimSpace(args.Description) == "" {
			toolErr = &tasks.InvalidInputError{Field: "description", Reason: "missing"}
			return nil, scoreAssigneesOutput{}, toolErr
		}

		roster := toRoster(args.TeamMembers)
		if err := roster.Validate(); err != nil {
			toolErr = err
			return nil, scoreAssigneesOutput{}, err
		}

		assigner, err := s.pipeline.Assigner(roster)
		if err != nil {
			toolErr = fmt.Errorf("building assigner: %w", err)
			return nil, scoreAssigneesOutput{}, toolErr
		}

		best, score := assigner.BestMatch(args.Description)
		return nil, scoreAssigneesOutput{
			Description: args.Description,
			BestMatch:   best,
			Score:       score,
			Candidates:  assigner.Ranking(args.Description),
		}, nil
	})
}
