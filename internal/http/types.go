package http

import (
	"github.com/fyrsmithlabs/actiond/internal/assignment"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
	"github.com/fyrsmithlabs/actiond/internal/telemetry"
)

// TasksRequest is the request body for POST /api/v1/tasks.
type TasksRequest struct {
	Transcript  *string            `json:"transcript"`
	TeamMembers []tasks.TeamMember `json:"team_members"`
	Source      string             `json:"source,omitempty"`
}

// ScoreRequest is the request body for POST /api/v1/score.
type ScoreRequest struct {
	Description string             `json:"description"`
	TeamMembers []tasks.TeamMember `json:"team_members"`
}

// ScoreResponse is the response body for POST /api/v1/score.
type ScoreResponse struct {
	Description string                 `json:"description"`
	BestMatch   string                 `json:"best_match"`
	Score       int                    `json:"score"`
	Candidates  []assignment.Candidate `json:"candidates"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version,omitempty"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}
