package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// Finding is a detected secret. Match holds the secret itself and must not
// be logged.
type Finding struct {
	RuleID   string `json:"rule_id"`
	RuleDesc string `json:"rule_desc"`
	Line     int    `json:"line"`
	Match    string `json:"-"`
}

// Result is the outcome of a redaction.
type Result struct {
	Text     string    `json:"-"`
	Findings []Finding `json:"findings"`
}

// Redacted reports whether anything was replaced.
func (r Result) Redacted() bool {
	return len(r.Findings) > 0
}

// RuleCounts returns the number of findings per rule.
func (r Result) RuleCounts() map[string]int {
	counts := make(map[string]int, len(r.Findings))
	for _, f := range r.Findings {
		counts[f.RuleID]++
	}
	return counts
}

// Redactor replaces secrets in text with [REDACTED:rule-id] markers.
type Redactor struct {
	allowlist *Allowlist
}

// NewRedactor creates a redactor. allowlist may be nil.
func NewRedactor(allowlist *Allowlist) *Redactor {
	return &Redactor{allowlist: allowlist}
}

// Detect scans text with the default Gitleaks rules.
func (r *Redactor) Detect(text string) ([]Finding, error) {
	// Detectors accumulate findings internally, so each scan gets its own.
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("creating detector: %w", err)
	}
	if r.allowlist != nil {
		applyAllowlist(&detector.Config, r.allowlist)
	}

	found := detector.DetectString(text)
	out := make([]Finding, 0, len(found))
	for _, f := range found {
		if f.Secret == "" {
			continue
		}
		out = append(out, Finding{
			RuleID:   f.RuleID,
			RuleDesc: f.Description,
			Line:     f.StartLine,
			Match:    f.Secret,
		})
	}
	return out, nil
}

// Redact detects secrets in text and replaces every occurrence of each.
func (r *Redactor) Redact(text string) (Result, error) {
	findings, err := r.Detect(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: replaceFindings(text, findings), Findings: findings}, nil
}

// replaceFindings substitutes longer secrets first so that a secret
// containing another is not split by the shorter replacement.
func replaceFindings(text string, findings []Finding) string {
	if len(findings) == 0 {
		return text
	}
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Match) > len(sorted[j].Match)
	})

	for _, f := range sorted {
		text = strings.ReplaceAll(text, f.Match, "[REDACTED:"+f.RuleID+"]")
	}
	return text
}

// applyAllowlist merges allowlist patterns into the Gitleaks config.
func applyAllowlist(cfg *gitleaksConfig.Config, allowlist *Allowlist) {
	global := &gitleaksConfig.Allowlist{
		Description: "actiond transcript allowlist",
		StopWords:   allowlist.StopWords,
	}
	for _, pattern := range allowlist.Regexes {
		// Patterns are validated by LoadAllowlist; skip any that were not.
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}
	cfg.Allowlists = append(cfg.Allowlists, global)
}
