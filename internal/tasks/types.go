// Package tasks defines the shared data model for extracted meeting tasks:
// team members, rosters, priorities and task records.
package tasks

import (
	"errors"
	"fmt"
	"strings"
)

// Unassigned is the assignee recorded when no team member scores above zero.
const Unassigned = "Unassigned"

// ErrInvalidInput is returned when a required input is missing or malformed.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError describes which input was rejected.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// Is makes InvalidInputError match ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Priorities lists all levels from most to least urgent.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the four known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParsePriority resolves a level name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", &InvalidInputError{Field: "priority", Reason: fmt.Sprintf("unknown level %q", s)}
}

// Record is a single actionable task extracted from a transcript.
type Record struct {
	ID           int      `json:"id"`
	Description  string   `json:"description"`
	AssignedTo   *string  `json:"assigned_to"`
	Priority     Priority `json:"priority"`
	Deadline     *string  `json:"deadline"`
	Dependencies []int    `json:"dependencies"`
	Reason       string   `json:"reason"`
}

// IsAssigned reports whether the record carries a non-empty assignee.
func (r *Record) IsAssigned() bool {
	return r.AssignedTo != nil && *r.AssignedTo != ""
}

// Assignee returns the assignee name or an empty string when absent.
func (r *Record) Assignee() string {
	if r.AssignedTo == nil {
		return ""
	}
	return *r.AssignedTo
}

// Assign sets the assignee.
func (r *Record) Assign(name string) {
	r.AssignedTo = &name
}

// DeadlineValue returns the deadline or an empty string when absent.
func (r *Record) DeadlineValue() string {
	if r.Deadline == nil {
		return ""
	}
	return *r.Deadline
}
