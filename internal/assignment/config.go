// Package assignment scores team members against task descriptions and
// assigns ownerless tasks to the best match.
package assignment

import (
	"errors"
	"fmt"
	"strings"
)

// RoleBucket links a role fragment to words that describe its typical work.
type RoleBucket struct {
	Role     string   `json:"role" koanf:"role"`
	Keywords []string `json:"keywords" koanf:"keywords"`
}

// Config holds scoring weights and role buckets.
type Config struct {
	SkillWeight     int          `json:"skill_weight" koanf:"skill_weight"`
	RoleTokenWeight int          `json:"role_token_weight" koanf:"role_token_weight"`
	BucketBonus     int          `json:"bucket_bonus" koanf:"bucket_bonus"`
	MaxScore        int          `json:"max_score" koanf:"max_score"`
	RoleBuckets     []RoleBucket `json:"role_buckets" koanf:"role_buckets"`
}

// DefaultConfig returns the default weights.
func DefaultConfig() Config {
	return Config{
		SkillWeight:     25,
		RoleTokenWeight: 10,
		BucketBonus:     15,
		MaxScore:        100,
		RoleBuckets:     DefaultRoleBuckets(),
	}
}

// DefaultRoleBuckets returns the role buckets in match order.
func DefaultRoleBuckets() []RoleBucket {
	return []RoleBucket{
		{Role: "frontend", Keywords: []string{"react", "ui", "javascript", "frontend", "bug"}},
		{Role: "backend", Keywords: []string{"database", "api", "performance", "backend", "server"}},
		{Role: "designer", Keywords: []string{"design", "ui/ux", "figma", "mobile design"}},
		{Role: "qa", Keywords: []string{"test", "testing", "quality", "qa"}},
	}
}

// Validate checks weights and buckets.
func (c Config) Validate() error {
	var errs []error
	if c.SkillWeight < 0 || c.RoleTokenWeight < 0 || c.BucketBonus < 0 {
		errs = append(errs, errors.New("weights must not be negative"))
	}
	if c.MaxScore <= 0 {
		errs = append(errs, errors.New("max_score must be positive"))
	}
	for i, b := range c.RoleBuckets {
		if strings.TrimSpace(b.Role) == "" {
			errs = append(errs, fmt.Errorf("role_buckets[%d]: role is blank", i))
		}
		if len(b.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("role_buckets[%d]: keywords must not be empty", i))
		}
	}
	return errors.Join(errs...)
}
