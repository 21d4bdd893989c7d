package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/devpulse/internal/report"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine <repo-url-or-path>",
	Short: "Mine one repository and emit its per-repo metrics document",
	Long: `mine walks one repository's commit history once and writes the
spec's per-repo JSON document: header, commit_stream, process_metrics
(productivity/quality/timings per week plus developer_stats), and a
trailing processing totals block.`,
	Args: cobra.ExactArgs(1),
	RunE: runMine,
}

func init() {
	mineCmd.Flags().StringP("output", "o", "", "Output file path (default: <repository-name>.json)")
	mineCmd.Flags().String("project-name", "", "Project name recorded in the output header")
	mineCmd.Flags().String("repository-name", "", "Repository name recorded in the output header")
	mineCmd.Flags().String("ecosystem", "", "Ecosystem/language tag recorded in the output header")
	mineCmd.Flags().String("repo-category", "", "Repository category recorded in the output header")
	mineCmd.Flags().String("since", "", "Only commits on/after this date (YYYY-MM-DD)")
	mineCmd.Flags().String("until", "", "Only commits on/before this date (YYYY-MM-DD)")
	mineCmd.Flags().Bool("no-color", false, "Disable colored terminal summary")
	rootCmd.AddCommand(mineCmd)
}

func runMine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	ref := args[0]
	repoName := stringFlag(cmd, "repository-name")
	if repoName == "" {
		repoName = filepath.Base(ref)
	}

	since, until, err := parseDateWindow(stringFlag(cmd, "since"), stringFlag(cmd, "until"))
	if err != nil {
		return err
	}

	outPath := stringFlag(cmd, "output")
	if outPath == "" {
		outPath = repoName + ".json"
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer outFile.Close()

	opts := repoRunOptions{
		ProjectName:    orDefault(stringFlag(cmd, "project-name"), repoName),
		RepositoryURL:  ref,
		RepositoryName: repoName,
		Ecosystem:      stringFlag(cmd, "ecosystem"),
		RepoCategory:   stringFlag(cmd, "repo-category"),
		Since:          since,
		Until:          until,
	}

	result, err := runOneRepo(cmd.Context(), cfg, log, ref, opts, outFile)
	if err != nil {
		return fmt.Errorf("mine %s: %w", ref, err)
	}

	developers := developerStatsFor(result, repoName, log)
	pm := report.BuildProcessMetrics(result.WeeklySnapshots, developers)
	if err := report.NewWriter(outFile).WriteTail(pm, report.MetricsTypeWeekly, result.Processing); err != nil {
		return fmt.Errorf("write document tail: %w", err)
	}

	summary := report.Summary{
		RepositoryName: repoName,
		Processing:     result.Processing,
		Developers:     developers,
	}
	return summary.RenderText(cmd.OutOrStdout(), !boolFlag(cmd, "no-color") && cfg.Output.Color)
}

// parseDateWindow parses the optional --since/--until flags as
// YYYY-MM-DD dates, returning nil pointers for unset flags (full history).
func parseDateWindow(since, until string) (*time.Time, *time.Time, error) {
	var sincePtr, untilPtr *time.Time
	if since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --since date %q: %w", since, err)
		}
		sincePtr = &t
	}
	if until != "" {
		t, err := time.Parse("2006-01-02", until)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --until date %q: %w", until, err)
		}
		untilPtr = &t
	}
	return sincePtr, untilPtr, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
