package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/panbanda/devpulse/internal/catalog"
	"github.com/panbanda/devpulse/internal/config"
	"github.com/panbanda/devpulse/internal/engineerr"
	"github.com/panbanda/devpulse/internal/report"
	"github.com/panbanda/devpulse/internal/resume"
	"github.com/panbanda/devpulse/internal/scheduler"
	"github.com/panbanda/devpulse/internal/traversal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <csv-file>",
	Short: "Mine every repository in a username,repo_name,url CSV catalog",
	Long: `catalog reads spec.md §6's input catalog (CSV columns
username,repo_name,url) and mines each repository, one per_repo JSON
document under --output, resuming from completed_users.json and
processed_files.json on restart (spec.md §6 "Cache/resume").`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().StringP("output", "o", "output", "Output directory for per-repo documents")
	catalogCmd.Flags().Int("workers", 0, "Worker count override (0 = config/auto)")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	entries, err := catalog.Read(f, log)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	outputRoot := stringFlag(cmd, "output")
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return engineerr.Fatal(outputRoot, err)
	}

	store := resume.New(outputRoot, cfg.Resume.CacheDir)
	monitor := scheduler.NewMemoryMonitor(cfg.Scheduler.MemoryCapMB, cfg.Scheduler.MemoryFloorMB)
	workers := cfg.Scheduler.Workers
	if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
		workers = w
	}
	sched := scheduler.New(workers, monitor)
	sched.SetJoinTimeout(time.Duration(cfg.Scheduler.JoinTimeoutSeconds) * time.Second)

	var mu sync.Mutex
	repoResults := make(map[string]repoOutcome)

	for _, entry := range entries {
		entry := entry
		processed, err := store.IsRepoProcessed(entry.URL)
		if err != nil {
			log.WithError(err).Warn("resume: failed to check processed_files.json")
		}
		if processed {
			log.WithField("repo", entry.URL).Info("skipping already-processed repository")
			continue
		}

		sched.Submit(scheduler.Job{
			ID:          entry.URL,
			RetriesLeft: cfg.Clone.RetryBudget,
			Func: func(args any) error {
				e := args.(catalog.Entry)
				result, mineErr := mineOneCatalogEntry(cmd.Context(), cfg, log, outputRoot, e)

				// Keyed by URL so a retried job overwrites its own earlier
				// failing attempt instead of leaving both in the summary.
				mu.Lock()
				repoResults[e.URL] = repoOutcome{entry: e, result: result, err: mineErr}
				mu.Unlock()

				if mineErr != nil {
					return mineErr
				}
				if err := store.MarkRepoProcessed(e.URL); err != nil {
					log.WithError(err).Warn("resume: failed to persist processed_files.json")
				}
				return nil
			},
			Args: entry,
		})
	}
	sched.Close()
	sched.Run(cmd.Context())

	outcomes := make([]repoOutcome, 0, len(repoResults))
	for _, o := range repoResults {
		outcomes = append(outcomes, o)
	}

	markCompletedUsers(store, outcomes, log)

	return renderCatalogSummary(cmd, outcomes)
}

// repoOutcome pairs one catalog entry's mining attempt with its result or
// failure, so a single failed repository doesn't prevent the run from
// reporting on the rest (spec.md §6 "failed_repositories").
type repoOutcome struct {
	entry  catalog.Entry
	result traversal.Result
	err    error
}

func mineOneCatalogEntry(ctx context.Context, cfg *config.Config, log *logrus.Logger, outputRoot string, entry catalog.Entry) (traversal.Result, error) {
	outPath := filepath.Join(outputRoot, entry.Username, entry.RepoName+".json")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return traversal.Result{}, engineerr.Fatal(outPath, err)
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		return traversal.Result{}, engineerr.Fatal(outPath, err)
	}
	defer outFile.Close()

	opts := repoRunOptions{
		ProjectName:    entry.RepoName,
		RepositoryURL:  entry.URL,
		RepositoryName: entry.RepoName,
	}

	result, err := runOneRepo(ctx, cfg, log, entry.URL, opts, outFile)
	if err != nil {
		return traversal.Result{}, err
	}

	developers := developerStatsFor(result, entry.RepoName, log)
	pm := report.BuildProcessMetrics(result.WeeklySnapshots, developers)
	if err := report.NewWriter(outFile).WriteTail(pm, report.MetricsTypeWeekly, result.Processing); err != nil {
		return traversal.Result{}, fmt.Errorf("write document tail for %s: %w", entry.URL, err)
	}
	return result, nil
}

// markCompletedUsers records a username as completed once every one of
// its catalog rows has mined successfully, per spec.md §6's
// completed_users.json short-circuit.
func markCompletedUsers(store *resume.Store, outcomes []repoOutcome, log *logrus.Logger) {
	byUser := make(map[string]bool)
	attempted := make(map[string]bool)
	for _, o := range outcomes {
		attempted[o.entry.Username] = true
		if o.err == nil {
			if _, ok := byUser[o.entry.Username]; !ok {
				byUser[o.entry.Username] = true
			}
		} else {
			byUser[o.entry.Username] = false
		}
	}
	for user, ok := range byUser {
		if !ok {
			continue
		}
		if err := store.MarkUserCompleted(user); err != nil {
			log.WithError(err).WithField("user", user).Warn("resume: failed to persist completed_users.json")
		}
	}
}

func renderCatalogSummary(cmd *cobra.Command, outcomes []repoOutcome) error {
	var processing traversal.Processing
	var failed []string
	for _, o := range outcomes {
		if o.err != nil {
			failed = append(failed, o.entry.URL)
			continue
		}
		processing.TotalCommits += o.result.Processing.TotalCommits
		processing.TotalLinesAdded += o.result.Processing.TotalLinesAdded
		processing.TotalLinesRemoved += o.result.Processing.TotalLinesRemoved
	}

	summary := report.Summary{
		RepositoryName: fmt.Sprintf("%d repositories", len(outcomes)),
		Processing:     processing,
		FailedRepos:    failed,
	}
	return summary.RenderText(cmd.OutOrStdout(), true)
}
