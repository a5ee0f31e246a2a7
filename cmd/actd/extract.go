package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/logging"
	"github.com/fyrsmithlabs/actiond/internal/output"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/roster"
	"github.com/fyrsmithlabs/actiond/internal/secrets"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
	"github.com/fyrsmithlabs/actiond/internal/transcript"
)

// stdoutPath as --output prints to stdout instead of writing files.
const stdoutPath = "-"

var (
	transcriptPath string
	teamPath       string
	outputPath     string
	formatName     string
	redact         bool
)

func init() {
	extractCmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "transcript file, or - for stdin")
	extractCmd.Flags().StringVar(&teamPath, "team", "", "team roster file (json, yaml or toml)")
	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "output.json", "output file, or - for stdout")
	extractCmd.Flags().StringVarP(&formatName, "format", "f", string(output.FormatAll), "output format: json, csv, table or all")
	extractCmd.Flags().BoolVar(&redact, "redact", false, "redact secrets from the transcript before extraction")
	_ = extractCmd.MarkFlagRequired("transcript")
	_ = extractCmd.MarkFlagRequired("team")
}

// extractCmd runs the full pipeline over a transcript
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract and assign tasks from a transcript",
	Long: `Extract action items from a meeting transcript and assign them to the team.

The json and csv formats are written next to --output (output.json and
output.csv by default). The table format prints to stdout. With --output -
a single format is printed to stdout, json unless --format says otherwise.

Examples:
  # Extract from a file with every output
  actd extract --transcript standup.txt --team team.json

  # Read the transcript from stdin and print JSON
  cat standup.txt | actd extract -t - --team team.yaml -o -

  # Redact credentials pasted into the meeting chat first
  actd extract -t standup.txt --team team.json --redact`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, err := resolveFormat(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("[1/5] Loading team members", zap.String("path", teamPath))
	team, err := roster.Load(teamPath)
	if err != nil {
		return err
	}
	logger.Info("Loaded team", zap.Strings("members", team.Names()))

	logger.Info("[2/5] Reading transcript", zap.String("path", transcriptPath))
	var text string
	if transcriptPath == transcript.Stdin {
		text, err = transcript.FromReader(cmd.InOrStdin())
	} else {
		text, err = transcript.Load(transcriptPath)
	}
	if err != nil {
		return err
	}
	logger.Debug("Transcript loaded", zap.Int("bytes", len(text)))

	opts := []pipeline.Option{
		pipeline.WithAssignmentConfig(cfg.Assignment),
		pipeline.WithLogger(logger),
	}
	if redact || cfg.Redaction.Enabled {
		allowlist, err := secrets.LoadAllowlist(cfg.Redaction.Allowlist)
		if err != nil {
			return fmt.Errorf("failed to load redaction allowlist: %w", err)
		}
		opts = append(opts, pipeline.WithRedactor(secrets.NewRedactor(allowlist)))
	}
	svc, err := pipeline.NewService(cfg.Extraction, opts...)
	if err != nil {
		return err
	}

	logger.Info("[3/5] Extracting tasks")
	run, err := svc.Process(context.Background(), pipeline.Request{
		Transcript: &text,
		Roster:     team,
		Source:     transcriptPath,
	})
	if err != nil {
		return err
	}

	logger.Info("[4/5] Smart assignment", zap.Int("tasks", run.TaskCount))
	for _, r := range run.Tasks {
		logger.Info("Assigned task",
			zap.Int("id", r.ID),
			zap.String("assignee", assigneeLabel(&r)),
			zap.String("priority", string(r.Priority)))
	}

	logger.Info("[5/5] Generating outputs", zap.String("format", string(format)))
	return writeOutputs(cmd, logger, format, run)
}

// resolveFormat parses --format. Stdout takes a single format, so "-o -"
// defaults to json and rejects an explicit "all".
func resolveFormat(cmd *cobra.Command) (output.Format, error) {
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return "", err
	}
	if outputPath != stdoutPath || format != output.FormatAll {
		return format, nil
	}
	if cmd.Flags().Changed("format") {
		return "", fmt.Errorf("--format all writes several formats and cannot be combined with --output %s", stdoutPath)
	}
	return output.FormatJSON, nil
}

// writeOutputs writes run in every format that format expands to.
func writeOutputs(cmd *cobra.Command, logger *zap.Logger, format output.Format, run *pipeline.Run) error {
	stdout := cmd.OutOrStdout()
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))

	for _, f := range format.Formats() {
		switch f {
		case output.FormatJSON:
			if outputPath == stdoutPath {
				if err := output.WriteJSON(stdout, run); err != nil {
					return err
				}
				continue
			}
			path := base + ".json"
			if err := output.SaveJSON(path, run); err != nil {
				return err
			}
			logger.Info("Saved JSON", zap.String("path", path))

		case output.FormatCSV:
			if outputPath == stdoutPath {
				if err := output.WriteCSV(stdout, run.Tasks); err != nil {
					return err
				}
				continue
			}
			path := base + ".csv"
			if err := output.SaveCSV(path, run.Tasks); err != nil {
				return err
			}
			logger.Info("Saved CSV", zap.String("path", path))

		case output.FormatTable:
			fmt.Fprintln(stdout, output.RenderTable(run.Tasks))
			fmt.Fprintln(stdout, output.RenderSummary(run.Summary))
		}
	}
	return nil
}

func assigneeLabel(r *tasks.Record) string {
	if name := r.Assignee(); name != "" {
		return name
	}
	return tasks.Unassigned
}
