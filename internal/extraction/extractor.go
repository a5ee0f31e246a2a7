package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

const dateLayout = "2006-01-02"

// Extractor implements TaskExtractor with keyword and pattern matching.
// It is safe for concurrent use.
type Extractor struct {
	cfg            Config
	actionKeywords []string
	priorityRules  []PriorityRule
	reasons        []*compiledReason
	clock          Clock
	logger         *zap.Logger
}

// compiledReason holds a pre-compiled rationale pattern.
type compiledReason struct {
	ReasonPattern
	regex *regexp.Regexp
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the time source for relative deadlines.
func WithClock(c Clock) Option {
	return func(e *Extractor) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor creates an extractor from cfg. Keyword tables are lowercased
// once here so matching never depends on how the config was written.
func NewExtractor(cfg Config, opts ...Option) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction config: %w", err)
	}

	e := &Extractor{
		cfg:    cfg,
		clock:  SystemClock,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.actionKeywords = lowerAll(cfg.ActionKeywords)

	e.priorityRules = make([]PriorityRule, 0, len(cfg.PriorityRules))
	for _, rule := range cfg.PriorityRules {
		e.priorityRules = append(e.priorityRules, PriorityRule{
			Level:    rule.Level,
			Keywords: lowerAll(rule.Keywords),
		})
	}

	e.reasons = make([]*compiledReason, 0, len(cfg.ReasonPatterns))
	for _, p := range cfg.ReasonPatterns {
		// Already validated, so MustCompile cannot panic here.
		e.reasons = append(e.reasons, &compiledReason{
			ReasonPattern: p,
			regex:         regexp.MustCompile(p.Regex),
		})
	}

	return e, nil
}

// Config returns the active configuration. Callers must not modify its slices.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract finds task sentences in transcript and builds one record for each.
func (e *Extractor) Extract(transcript *string, roster tasks.Roster) ([]tasks.Record, error) {
	if transcript == nil {
		return nil, &tasks.InvalidInputError{Field: "transcript", Reason: "missing"}
	}

	sentences := Segment(*transcript)
	records := make([]tasks.Record, 0, len(sentences))
	now := e.clock.Now()

	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		if !e.isTask(lower) {
			continue
		}

		record := tasks.Record{
			ID:           len(records) + 1,
			Description:  sentence,
			Priority:     e.priority(lower),
			Deadline:     e.deadline(lower, now),
			Dependencies: []int{},
			Reason:       e.reason(sentence, lower),
		}
		if name, ok := mentionedMember(lower, roster); ok {
			record.Assign(name)
		}

		records = append(records, record)
	}

	e.logger.Debug("extracted tasks",
		zap.Int("sentences", len(sentences)),
		zap.Int("tasks", len(records)))

	return records, nil
}

// ExtractText is Extract for a transcript that is known to be present.
func (e *Extractor) ExtractText(transcript string, roster tasks.Roster) ([]tasks.Record, error) {
	return e.Extract(&transcript, roster)
}

// isTask reports whether the sentence contains an action keyword.
func (e *Extractor) isTask(lower string) bool {
	for _, kw := range e.actionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// priority returns the first level with a keyword in the sentence.
func (e *Extractor) priority(lower string) tasks.Priority {
	for _, rule := range e.priorityRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Level
			}
		}
	}
	return e.cfg.DefaultPriority
}

// deadline resolves the first matching phrase to a date or label.
func (e *Extractor) deadline(lower string, now time.Time) *string {
	for _, p := range e.cfg.DeadlinePatterns {
		if !strings.Contains(lower, strings.ToLower(p.Phrase)) {
			continue
		}
		var value string
		if p.OffsetDays != nil {
			value = now.AddDate(0, 0, *p.OffsetDays).Format(dateLayout)
		} else {
			value = p.Label
		}
		return &value
	}
	return nil
}

// reason returns the rationale captured by the first matching pattern, or a
// truncated description when none matches.
func (e *Extractor) reason(sentence, lower string) string {
	for _, p := range e.reasons {
		m := p.regex.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if r := strings.TrimSpace(m[len(m)-1]); r != "" {
			return r
		}
	}
	return truncate(sentence, e.cfg.ReasonFallbackLength) + e.cfg.ReasonEllipsis
}

// mentionedMember returns the first roster member named in the sentence.
func mentionedMember(lower string, roster tasks.Roster) (string, bool) {
	for _, m := range roster {
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if name != "" && strings.Contains(lower, name) {
			return m.Name, true
		}
	}
	return "", false
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

// Ensure Extractor implements TaskExtractor.
var _ TaskExtractor = (*Extractor)(nil)
