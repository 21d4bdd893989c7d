package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/panbanda/devpulse/internal/aggregate"
	"github.com/panbanda/devpulse/internal/report"
	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <repo-url-or-path>...",
	Short: "Mine several repositories and emit one combined developer_stats report",
	Long: `aggregate mines each given repository in turn, the same way mine
does one at a time, then folds every repo's result through
internal/aggregate once to produce a single cross-repository
developer_stats table (spec.md §4.7 "C7"). Unlike catalog, it holds
every repo's result in memory and has no resume/cache bookkeeping — it
is meant for a handful of repos passed directly on the command line,
not an unattended run over a whole CSV catalog.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringP("output", "o", "", "Output file for the combined developer_stats report (default: stdout)")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	repos := make([]aggregate.RepoResult, 0, len(args))
	for _, ref := range args {
		name := filepath.Base(ref)
		opts := repoRunOptions{
			ProjectName:    name,
			RepositoryURL:  ref,
			RepositoryName: name,
		}

		result, err := runOneRepo(cmd.Context(), cfg, log, ref, opts, discardWriter{})
		if err != nil {
			log.WithError(err).WithField("repo", ref).Warn("repository dropped from aggregate run")
			repos = append(repos, aggregate.RepoResult{Name: name, Err: err})
			continue
		}
		repos = append(repos, aggregate.RepoResult{Name: name, Result: result})
	}

	agg := aggregate.Aggregate(repos, log)

	out := cmd.OutOrStdout()
	outPath := stringFlag(cmd, "output")
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(agg); err != nil {
		return fmt.Errorf("encode aggregate result: %w", err)
	}

	if len(agg.FailedRepositories) > 0 {
		summary := report.Summary{
			RepositoryName: fmt.Sprintf("%d repositories", len(repos)),
			FailedRepos:    agg.FailedRepositories,
		}
		return summary.RenderText(cmd.ErrOrStderr(), cfg.Output.Color)
	}
	return nil
}

// discardWriter throws away the per-repo streamed document: aggregate only
// cares about the traversal.Result runOneRepo returns, not the header+
// commit_stream JSON mine and catalog persist to disk.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
