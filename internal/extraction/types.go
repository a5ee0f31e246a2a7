package extraction

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

// PriorityRule maps keywords to a priority level.
type PriorityRule struct {
	Level    tasks.Priority `json:"level" koanf:"level"`
	Keywords []string       `json:"keywords" koanf:"keywords"`
}

// DeadlinePattern maps a phrase to either a day offset from now or a fixed label.
type DeadlinePattern struct {
	Phrase     string `json:"phrase" koanf:"phrase"`
	OffsetDays *int   `json:"offset_days,omitempty" koanf:"offset_days"`
	Label      string `json:"label,omitempty" koanf:"label"`
}

// ReasonPattern is a regex whose last capture group yields a task rationale.
type ReasonPattern struct {
	Name  string `json:"name" koanf:"name"`
	Regex string `json:"regex" koanf:"regex"`
}

// Config holds the keyword tables used by the Extractor.
type Config struct {
	ActionKeywords       []string          `json:"action_keywords" koanf:"action_keywords"`
	PriorityRules        []PriorityRule    `json:"priority_rules" koanf:"priority_rules"`
	DefaultPriority      tasks.Priority    `json:"default_priority" koanf:"default_priority"`
	DeadlinePatterns     []DeadlinePattern `json:"deadline_patterns" koanf:"deadline_patterns"`
	ReasonPatterns       []ReasonPattern   `json:"reason_patterns" koanf:"reason_patterns"`
	ReasonFallbackLength int               `json:"reason_fallback_length" koanf:"reason_fallback_length"`
	ReasonEllipsis       string            `json:"reason_ellipsis" koanf:"reason_ellipsis"`
}

// DefaultConfig returns the default extraction tables.
func DefaultConfig() Config {
	return Config{
		ActionKeywords:       append([]string(nil), DefaultActionKeywords...),
		PriorityRules:        DefaultPriorityRules(),
		DefaultPriority:      tasks.PriorityMedium,
		DeadlinePatterns:     DefaultDeadlinePatterns(),
		ReasonPatterns:       DefaultReasonPatterns(),
		ReasonFallbackLength: 50,
		ReasonEllipsis:       "...",
	}
}

// Validate checks the tables for structural errors.
func (c Config) Validate() error {
	var errs []error

	if len(c.ActionKeywords) == 0 {
		errs = append(errs, errors.New("action_keywords must not be empty"))
	}
	for i, kw := range c.ActionKeywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, fmt.Errorf("action_keywords[%d] is blank", i))
		}
	}

	if !c.DefaultPriority.Valid() {
		errs = append(errs, fmt.Errorf("default_priority %q is not a known level", c.DefaultPriority))
	}
	for i, rule := range c.PriorityRules {
		if !rule.Level.Valid() {
			errs = append(errs, fmt.Errorf("priority_rules[%d]: unknown level %q", i, rule.Level))
		}
		if len(rule.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("priority_rules[%d]: keywords must not be empty", i))
		}
	}

	for i, p := range c.DeadlinePatterns {
		if strings.TrimSpace(p.Phrase) == "" {
			errs = append(errs, fmt.Errorf("deadline_patterns[%d]: phrase is blank", i))
		}
		if (p.OffsetDays == nil) == (p.Label == "") {
			errs = append(errs, fmt.Errorf("deadline_patterns[%d]: exactly one of offset_days or label must be set", i))
		}
	}

	for i, p := range c.ReasonPatterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			errs = append(errs, fmt.Errorf("reason_patterns[%d] %q: %w", i, p.Name, err))
			continue
		}
		if re.NumSubexp() == 0 {
			errs = append(errs, fmt.Errorf("reason_patterns[%d] %q: needs a capture group", i, p.Name))
		}
	}

	if c.ReasonFallbackLength <= 0 {
		errs = append(errs, errors.New("reason_fallback_length must be positive"))
	}

	return errors.Join(errs...)
}

// TaskExtractor extracts task records from a transcript.
type TaskExtractor interface {
	// Extract returns one record per task sentence. A nil transcript is rejected.
	Extract(transcript *string, roster tasks.Roster) ([]tasks.Record, error)
}
