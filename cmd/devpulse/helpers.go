package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/panbanda/devpulse/internal/aggregate"
	"github.com/panbanda/devpulse/internal/chunking"
	"github.com/panbanda/devpulse/internal/clonedriver"
	"github.com/panbanda/devpulse/internal/config"
	"github.com/panbanda/devpulse/internal/metrics"
	"github.com/panbanda/devpulse/internal/progress"
	"github.com/panbanda/devpulse/internal/resume"
	"github.com/panbanda/devpulse/internal/scheduler"
	"github.com/panbanda/devpulse/internal/traversal"
	"github.com/panbanda/devpulse/internal/vcs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loadConfig resolves the effective configuration for a run, honoring the
// root command's persistent --config flag.
func loadConfig() (*config.Config, error) {
	var opts []config.LoadOption
	if cfgFile != "" {
		opts = append(opts, config.WithPath(cfgFile))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// newLogger builds the logrus.Logger every component logs through, with
// the level the root command's --verbose flag requests.
func newLogger() *logrus.Logger {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// isRemoteURL reports whether ref looks like something clonedriver should
// fetch rather than a local working-tree path.
func isRemoteURL(ref string) bool {
	if strings.HasPrefix(ref, "git@") {
		return true
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != ""
}

// repoDestDir derives a stable clone destination for a remote URL under
// workDir, keyed the same way internal/resume keys processed_files.json,
// so repeated runs over the same catalog reuse cloned repos instead of
// re-cloning into a fresh directory every time.
func repoDestDir(workDir, repoURL string) string {
	return filepath.Join(workDir, resume.HashRepoURL(repoURL))
}

// openRepository resolves ref (a URL or local path) to an opened
// vcs.Repository, cloning it under cfg.Clone.WorkDir first if it's remote.
func openRepository(ctx context.Context, cfg *config.Config, ref string) (vcs.Repository, string, error) {
	opener := vcs.NewGitOpener()

	if !isRemoteURL(ref) {
		repo, err := opener.PlainOpenWithDetect(ref)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", ref, err)
		}
		return repo, ref, nil
	}

	dest := repoDestDir(cfg.Clone.WorkDir, ref)
	if _, err := os.Stat(dest); err != nil {
		timeout := time.Duration(cfg.Clone.ReachabilityTimeoutSeconds) * time.Second
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := clonedriver.Clone(cctx, ref, dest); err != nil {
			return nil, "", err
		}
	}
	repo, err := opener.PlainOpen(dest)
	if err != nil {
		return nil, "", fmt.Errorf("open cloned repo %s: %w", dest, err)
	}
	return repo, dest, nil
}

// repoRunOptions is the subset of run-level CLI flags shared by mine,
// catalog, and aggregate: the date window and the identifying metadata
// that ends up in the output document's header.
type repoRunOptions struct {
	ProjectName    string
	RepositoryURL  string
	RepositoryName string
	Ecosystem      string
	RepoCategory   string
	Since          *time.Time
	Until          *time.Time
}

// runOneRepo drives one repository end-to-end: resolve (clone-or-open),
// traverse (chunked if large), and stream the document to w. It returns
// the traversal result so the caller can fold it into a cross-repo
// aggregate or print a summary.
func runOneRepo(ctx context.Context, cfg *config.Config, log *logrus.Logger, ref string, opts repoRunOptions, w io.Writer) (traversal.Result, error) {
	repo, repoPath, err := openRepository(ctx, cfg, ref)
	if err != nil {
		return traversal.Result{}, err
	}

	tempDir, err := os.MkdirTemp("", "devpulse-chunks-")
	if err != nil {
		return traversal.Result{}, fmt.Errorf("create chunk temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	monitor := scheduler.NewMemoryMonitor(cfg.Scheduler.MemoryCapMB, cfg.Scheduler.MemoryFloorMB)
	tracker := progress.NewSpinner(fmt.Sprintf("mining %s", opts.RepositoryName))

	traversalOpts := traversal.Options{
		ProjectName:    opts.ProjectName,
		RepositoryURL:  opts.RepositoryURL,
		RepositoryName: opts.RepositoryName,
		Ecosystem:      opts.Ecosystem,
		RepoCategory:   opts.RepoCategory,
		ProjectPath:    repoPath,
		Since:          opts.Since,
		Until:          opts.Until,
		BatchSize:      cfg.Traversal.BatchSize,
		MetricsConfig: metrics.Config{
			DiffDeltaUpdateWeight:  cfg.Metrics.DiffDeltaUpdateWeight,
			ProvenanceBootstrapAge: cfg.Metrics.ProvenanceBootstrapAge,
		},
		Monitor:  monitor,
		Progress: tracker,
		Logger:   log,
	}

	result, err := chunking.Run(ctx, repo, traversalOpts, tempDir, w)
	if err != nil {
		tracker.FinishError(err)
		return traversal.Result{}, err
	}
	tracker.FinishSuccess()
	return result, nil
}

// developerStatsFor folds one repo's result through the same aggregator
// the cross-repo command uses (spec.md §6's per-repo developer_stats is
// the single-repo case of §4.7's aggregation, not a separate algorithm).
func developerStatsFor(result traversal.Result, repoName string, log *logrus.Logger) map[string]aggregate.DeveloperRecord {
	agg := aggregate.Aggregate([]aggregate.RepoResult{{Name: repoName, Result: result}}, log)
	return agg.Developers
}

// getFormat/getOutputFile-style small flag accessors, matching the
// teacher's cmd/omen habit of one-line flag readers beside each command.
func boolFlag(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func stringFlag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
