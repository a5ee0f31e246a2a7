package tasks

import (
	"fmt"
	"strings"
)

// TeamMember is a candidate assignee.
type TeamMember struct {
	Name   string   `json:"name" koanf:"name" toml:"name"`
	Role   string   `json:"role" koanf:"role" toml:"role"`
	Skills []string `json:"skills" koanf:"skills" toml:"skills"`
}

// NewTeamMember builds a member with normalized skills.
func NewTeamMember(name, role string, skills ...string) TeamMember {
	return TeamMember{Name: name, Role: role, Skills: skills}.Normalize()
}

// Normalize trims the name and role and lowercases skills, dropping blanks.
func (m TeamMember) Normalize() TeamMember {
	skills := make([]string, 0, len(m.Skills))
	for _, s := range m.Skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			skills = append(skills, s)
		}
	}
	return TeamMember{
		Name:   strings.TrimSpace(m.Name),
		Role:   strings.TrimSpace(m.Role),
		Skills: skills,
	}
}

// Roster is an ordered list of team members. Order decides ties in both
// name detection and score-based assignment.
type Roster []TeamMember

// Normalize returns a copy with every member normalized.
func (r Roster) Normalize() Roster {
	out := make(Roster, len(r))
	for i, m := range r {
		out[i] = m.Normalize()
	}
	return out
}

// Validate rejects an empty roster, blank names and duplicate names.
func (r Roster) Validate() error {
	if len(r) == 0 {
		return &InvalidInputError{Field: "roster", Reason: "no team members"}
	}
	seen := make(map[string]int, len(r))
	for i, m := range r {
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if name == "" {
			return &InvalidInputError{Field: "roster", Reason: fmt.Sprintf("member %d has no name", i)}
		}
		if prev, ok := seen[name]; ok {
			return &InvalidInputError{
				Field:  "roster",
				Reason: fmt.Sprintf("duplicate name %q at positions %d and %d", m.Name, prev, i),
			}
		}
		seen[name] = i
	}
	return nil
}

// Names returns member names in roster order.
func (r Roster) Names() []string {
	names := make([]string, len(r))
	for i, m := range r {
		names[i] = m.Name
	}
	return names
}

// Has reports whether a member with the given name exists.
func (r Roster) Has(name string) bool {
	for _, m := range r {
		if m.Name == name {
			return true
		}
	}
	return false
}
