package traversal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/panbanda/devpulse/internal/engineerr"
	"github.com/panbanda/devpulse/internal/metrics"
	"github.com/panbanda/devpulse/internal/progress"
	"github.com/panbanda/devpulse/internal/scheduler"
	"github.com/panbanda/devpulse/internal/vcs"
	"github.com/panbanda/devpulse/internal/weekly"
	"github.com/sirupsen/logrus"
)

// defaultBatchSize is the per-flush commit count from spec.md §4.4 step 3d
// ("buffer size ≥ N (default 1000)").
const defaultBatchSize = 1000

// memoryPollEvery is spec.md §4.4 step 3c's "every 100 commits".
const memoryPollEvery = 100

// Options configures one traversal run.
type Options struct {
	ProjectName    string
	RepositoryURL  string
	RepositoryName string
	Ecosystem      string
	RepoCategory   string
	ProjectPath    string

	Since *time.Time
	Until *time.Time

	// BatchSize overrides the default flush size; 0 uses defaultBatchSize.
	BatchSize int

	MetricsConfig metrics.Config

	// Monitor is polled every memoryPollEvery commits; nil disables the
	// backoff (used by tests and by per-chunk sub-traversals that share a
	// single monitor at the outer driver level instead).
	Monitor *scheduler.MemoryMonitor

	// Progress, if set, is ticked once per commit during the main pass and
	// has its total set after the count pass.
	Progress *progress.Tracker

	Logger *logrus.Logger
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return defaultBatchSize
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

// Traverse runs the four-step algorithm from spec.md §4.4 and streams the
// document's header and commit_stream array to w. It returns the
// accumulated snapshots so the caller (internal/report) can append
// process_metrics, metrics_type, and processing, and close the JSON object
// — those fields are bounded in size regardless of repo size, so there is
// no streaming benefit to interleaving them with the commit array, unlike
// the array itself which this function never holds fully in memory.
func Traverse(ctx context.Context, repo vcs.Repository, opts Options, w io.Writer) (Result, error) {
	header := Header{
		ProjectName:    opts.ProjectName,
		RepositoryURL:  opts.RepositoryURL,
		RepositoryName: opts.RepositoryName,
		Ecosystem:      opts.Ecosystem,
		RepoCategory:   opts.RepoCategory,
		AnalysisPeriod: analysisPeriodOf(opts),
	}
	if err := writeHeader(w, header); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}
	if _, err := io.WriteString(w, `,"commits":[`); err != nil {
		return Result{}, err
	}

	result, err := runCore(ctx, repo, opts, w)
	if err != nil {
		return Result{}, err
	}
	result.Header = header

	if _, err := io.WriteString(w, "]"); err != nil {
		return Result{}, err
	}
	return result, nil
}

// TraverseArray runs the same count/iterate/snapshot algorithm but writes
// only the bare `[...]` commit array to w, with no surrounding document —
// used by internal/chunking to drive one date sub-range into its own
// `commits_<id>.jsonl` file (spec.md §4.5), which the merger later stitches
// together by stripping and rejoining each array's brackets.
func TraverseArray(ctx context.Context, repo vcs.Repository, opts Options, w io.Writer) (Result, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return Result{}, err
	}
	result, err := runCore(ctx, repo, opts, w)
	if err != nil {
		return Result{}, err
	}
	if _, err := io.WriteString(w, "]"); err != nil {
		return Result{}, err
	}
	return result, nil
}

// runCore implements steps 1, 3, and 4 of spec.md §4.4: count, iterate with
// batching/memory-polling/flushing, and final snapshot. Step 2's header
// write is the caller's responsibility (Traverse writes a full document
// header; TraverseArray writes none), since the two callers disagree on
// how much document structure wraps the array.
func runCore(ctx context.Context, repo vcs.Repository, opts Options, w io.Writer) (Result, error) {
	log := opts.logger().WithField("component", "traversal")
	logOpts := vcs.LogOptions{Since: opts.Since, Until: opts.Until}

	// Step 1: count commits for the progress indicator.
	total, err := vcs.CountCommits(ctx, repo, logOpts)
	if err != nil {
		return Result{}, fmt.Errorf("count commits: %w", err)
	}
	if opts.Progress != nil {
		opts.Progress.SetTotal(total)
	}
	log.WithField("total_commits", total).Info("counted commits")

	// Step 2 (accumulator half): reset accumulators for this run.
	overall := metrics.NewRegistry(opts.MetricsConfig)
	weeklyRegistries := make(map[string]*metrics.Registry)
	stream := newStreamWriter(w)

	// Step 3: iterate commits in non-decreasing committer-date order
	// (vcs.Walk yields newest-first; collectReversed reads the log a second
	// time, after CountCommits' pass, buffers the whole commit list and
	// reverses it in place).
	var batch []CommitSummary
	var commitCount int
	var totalAdded, totalRemoved int

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := stream.WriteBatch(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	raw, err := collectReversed(repo, logOpts)
	if err != nil {
		return Result{}, fmt.Errorf("read commit log: %w", err)
	}

	for _, c := range raw {
		if err := overall.ProcessCommit(c); err != nil {
			engineerr.Log(log.Logger, "traversal", engineerr.SkippableCommit(c.Hash, err))
		}

		week := weekly.MondayKey(c.Author.When)
		wr, ok := weeklyRegistries[week]
		if !ok {
			wr = metrics.NewRegistry(opts.MetricsConfig)
			weeklyRegistries[week] = wr
		}
		if err := wr.ProcessCommit(c); err != nil {
			engineerr.Log(log.Logger, "traversal", engineerr.SkippableCommit(c.Hash, err))
		}

		batch = append(batch, toCommitSummary(c, opts.ProjectName, opts.ProjectPath))
		commitCount++
		totalAdded += c.Insertions
		totalRemoved += c.Deletions

		if opts.Progress != nil {
			opts.Progress.Tick()
		}

		if opts.Monitor != nil && commitCount%memoryPollEvery == 0 && opts.Monitor.OverCap() {
			start := opts.Monitor.UsagePercent()
			log.WithField("usage_percent", start).Warn("memory over cap, forcing collection")
			opts.Monitor.WaitUntilBelow(start)
		}

		if len(batch) >= opts.batchSize() {
			if err := flush(); err != nil {
				return Result{}, fmt.Errorf("flush batch: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return Result{}, fmt.Errorf("final flush: %w", err)
	}

	// Step 4: snapshot overall + weekly.
	weeklySnapshots := make(map[string]metrics.Snapshot, len(weeklyRegistries))
	for week, wr := range weeklyRegistries {
		weeklySnapshots[week] = wr.Snapshot()
	}

	return Result{
		OverallSnapshot: overall.Snapshot(),
		WeeklySnapshots: weeklySnapshots,
		Processing: Processing{
			TotalCommits:      commitCount,
			TotalLinesAdded:   totalAdded,
			TotalLinesRemoved: totalRemoved,
		},
	}, nil
}

// collectReversed reads the full log once and reverses it so commits are
// delivered in non-decreasing committer-date order (invariant I1), mirroring
// the teacher's pkg/analyzer/commit "read once, process in history order"
// pattern. This is the one place a traversal holds the full commit list in
// memory at once; internal/chunking bounds that by running Traverse per
// date sub-range on large repositories instead of widening this buffer.
func collectReversed(repo vcs.Repository, opts vcs.LogOptions) ([]vcs.Commit, error) {
	var commits []vcs.Commit
	err := vcs.Walk(repo, opts, func(c vcs.Commit) error {
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}

func analysisPeriodOf(opts Options) AnalysisPeriod {
	ap := AnalysisPeriod{FullHistory: opts.Since == nil && opts.Until == nil}
	if opts.Since != nil {
		ap.StartDate = opts.Since.Format("2006-01-02")
	}
	if opts.Until != nil {
		ap.EndDate = opts.Until.Format("2006-01-02")
	}
	return ap
}

// writeHeader writes the header's fields as the opening of the JSON
// document, up to (but not including) the commits array.
func writeHeader(w io.Writer, h Header) error {
	b, err := marshalHeaderFields(h)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
