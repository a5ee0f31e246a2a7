package extraction

import (
	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

// DefaultActionKeywords are the verbs that mark a sentence as a task.
var DefaultActionKeywords = []string{
	"fix", "build", "create", "design", "optimize", "update",
	"implement", "write", "test", "review", "deploy", "document",
	"refactor", "debug", "check", "verify", "improve", "enhance",
}

// DefaultPriorityRules returns the priority levels in match order.
func DefaultPriorityRules() []PriorityRule {
	return []PriorityRule{
		{Level: tasks.PriorityCritical, Keywords: []string{"critical", "blocker", "blocking", "urgent", "asap"}},
		{Level: tasks.PriorityHigh, Keywords: []string{"high", "important", "priority", "soon", "friday", "release"}},
		{Level: tasks.PriorityMedium, Keywords: []string{"medium", "next", "sprint", "week"}},
		{Level: tasks.PriorityLow, Keywords: []string{"low", "later", "backlog"}},
	}
}

// DefaultDeadlinePatterns returns deadline phrases, most specific first.
func DefaultDeadlinePatterns() []DeadlinePattern {
	return []DeadlinePattern{
		// Relative days
		{Phrase: "tomorrow", OffsetDays: days(1)},
		{Phrase: "today", OffsetDays: days(0)},
		{Phrase: "tonight", OffsetDays: days(0)},
		{Phrase: "end of this week", OffsetDays: days(4)},
		{Phrase: "end of week", OffsetDays: days(4)},

		// Weekday labels
		{Phrase: "next monday", Label: "Next Monday"},
		{Phrase: "friday", Label: "Friday"},
		{Phrase: "wednesday", Label: "Wednesday"},
		{Phrase: "monday", Label: "Monday"},
	}
}

// DefaultReasonPatterns returns rationale patterns in match order. The last
// capture group of the first matching pattern becomes the reason.
func DefaultReasonPatterns() []ReasonPattern {
	return []ReasonPattern{
		{Name: "causal", Regex: `(blocking|because|since|as)\s+([^.]+)`},
		{Name: "affecting", Regex: `affecting\s+([^.]+)`},
	}
}

func days(n int) *int {
	return &n
}
