package assignment

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

// Assigner fills in owners for tasks that have none. It is safe for
// concurrent use.
type Assigner struct {
	cfg    Config
	roster tasks.Roster
	logger *zap.Logger
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithConfig replaces the default weights.
func WithConfig(cfg Config) Option {
	return func(a *Assigner) {
		a.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assigner) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAssigner creates an assigner over roster. Roster order breaks score ties.
func NewAssigner(roster tasks.Roster, opts ...Option) (*Assigner, error) {
	a := &Assigner{
		cfg:    DefaultConfig(),
		roster: roster.Normalize(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assignment config: %w", err)
	}
	return a, nil
}

// ScoreBreakdown explains how a member's score was reached.
type ScoreBreakdown struct {
	Member            string   `json:"member"`
	MatchedSkills     []string `json:"matched_skills"`
	MatchedRoleTokens []string `json:"matched_role_tokens"`
	Bucket            string   `json:"bucket,omitempty"`
	BucketKeyword     string   `json:"bucket_keyword,omitempty"`
	Raw               int      `json:"raw"`
	Total             int      `json:"total"`
}

// Candidate is a member with its score for a description.
type Candidate struct {
	Name  string         `json:"name"`
	Score int            `json:"score"`
	Why   ScoreBreakdown `json:"breakdown"`
}

// Score returns the capped match score of member for description.
func (a *Assigner) Score(description string, member tasks.TeamMember) int {
	return a.Breakdown(description, member).Total
}

// Breakdown computes the score of member for description with its parts.
func (a *Assigner) Breakdown(description string, member tasks.TeamMember) ScoreBreakdown {
	text := strings.ToLower(description)
	role := strings.ToLower(member.Role)
	b := ScoreBreakdown{
		Member:            member.Name,
		MatchedSkills:     []string{},
		MatchedRoleTokens: []string{},
	}

	for _, skill := range member.Skills {
		skill = strings.ToLower(skill)
		if skill != "" && strings.Contains(text, skill) {
			b.MatchedSkills = append(b.MatchedSkills, skill)
			b.Raw += a.cfg.SkillWeight
		}
	}

	for _, token := range strings.Fields(role) {
		if strings.Contains(text, token) {
			b.MatchedRoleTokens = append(b.MatchedRoleTokens, token)
			b.Raw += a.cfg.RoleTokenWeight
		}
	}

	if bucket, kw, ok := a.bucketMatch(text, role); ok {
		b.Bucket = bucket
		b.BucketKeyword = kw
		b.Raw += a.cfg.BucketBonus
	}

	b.Total = min(b.Raw, a.cfg.MaxScore)
	return b
}

// bucketMatch finds the first bucket whose role fragment appears in role and
// whose keywords appear in text. The bonus is flat, so scanning stops there.
func (a *Assigner) bucketMatch(text, role string) (string, string, bool) {
	for _, bucket := range a.cfg.RoleBuckets {
		key := strings.ToLower(bucket.Role)
		if !strings.Contains(role, key) {
			continue
		}
		for _, kw := range bucket.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return bucket.Role, kw, true
			}
		}
	}
	return "", "", false
}

// BestMatch returns the highest scoring member for description. A later
// member replaces the current best only with a strictly greater score, so
// the earliest member wins ties. With no positive score the result is
// tasks.Unassigned.
func (a *Assigner) BestMatch(description string) (string, int) {
	best, bestScore := "", 0
	for _, m := range a.roster {
		if score := a.Score(description, m); score > bestScore {
			best, bestScore = m.Name, score
		}
	}
	if best == "" {
		return tasks.Unassigned, 0
	}
	return best, bestScore
}

// Ranking scores every member, highest first, roster order on ties.
func (a *Assigner) Ranking(description string) []Candidate {
	out := make([]Candidate, 0, len(a.roster))
	for _, m := range a.roster {
		b := a.Breakdown(description, m)
		out = append(out, Candidate{Name: m.Name, Score: b.Total, Why: b})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Assign sets an owner on every record without one and returns records.
// Records that already have an owner are left untouched.
func (a *Assigner) Assign(records []tasks.Record) []tasks.Record {
	for i := range records {
		if records[i].IsAssigned() {
			continue
		}
		name, score := a.BestMatch(records[i].Description)
		records[i].Assign(name)
		a.logger.Debug("assigned task",
			zap.Int("task.id", records[i].ID),
			zap.String("assignee", name),
			zap.Int("score", score))
	}
	return records
}

// Roster returns the normalized roster.
func (a *Assigner) Roster() tasks.Roster {
	return a.roster
}
