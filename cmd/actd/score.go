package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/actiond/internal/assignment"
	"github.com/fyrsmithlabs/actiond/internal/roster"
)

var scoreTeamPath string

func init() {
	scoreCmd.Flags().StringVar(&scoreTeamPath, "team", "", "team roster file (json, yaml or toml)")
	_ = scoreCmd.MarkFlagRequired("team")
}

// scoreCmd explains how a task description would be assigned
var scoreCmd = &cobra.Command{
	Use:   "score [description]",
	Short: "Score every team member against a task description",
	Long: `Score every team member against a task description and show why.

Examples:
  # Who would get this task?
  actd score --team team.json "Optimize database performance and API calls"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	description := strings.TrimSpace(strings.Join(args, " "))
	if description == "" {
		return fmt.Errorf("description is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	team, err := roster.Load(scoreTeamPath)
	if err != nil {
		return err
	}
	if err := team.Validate(); err != nil {
		return err
	}

	assigner, err := assignment.NewAssigner(team, assignment.WithConfig(cfg.Assignment))
	if err != nil {
		return err
	}

	best, score := assigner.BestMatch(description)
	cmd.Printf("Best match: %s (score %d)\n\n", best, score)

	for _, c := range assigner.Ranking(description) {
		cmd.Printf("%-20s %3d", c.Name, c.Score)
		var why []string
		if len(c.Why.MatchedSkills) > 0 {
			why = append(why, "skills: "+strings.Join(c.Why.MatchedSkills, ", "))
		}
		if len(c.Why.MatchedRoleTokens) > 0 {
			why = append(why, "role: "+strings.Join(c.Why.MatchedRoleTokens, ", "))
		}
		if c.Why.Bucket != "" {
			why = append(why, fmt.Sprintf("%s bucket (%s)", c.Why.Bucket, c.Why.BucketKeyword))
		}
		if len(why) > 0 {
			cmd.Printf("  %s", strings.Join(why, "; "))
		}
		cmd.Println()
	}
	return nil
}
