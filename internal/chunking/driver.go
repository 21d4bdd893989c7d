package chunking

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/panbanda/devpulse/internal/traversal"
	"github.com/panbanda/devpulse/internal/vcs"
	"github.com/sirupsen/logrus"
)

// Run drives a full traversal, chunking the repository into contiguous
// date sub-ranges when it is large (spec.md §4.5), or falling through to a
// single whole-history traversal.Traverse call otherwise. Either way it
// streams the document header and commit_stream array to w and returns the
// merged snapshots, giving callers (internal/report) the same contract
// traversal.Traverse offers directly.
func Run(ctx context.Context, repo vcs.Repository, opts traversal.Options, tempDir string, w io.Writer) (traversal.Result, error) {
	log := loggerOf(opts)
	logOpts := vcs.LogOptions{Since: opts.Since, Until: opts.Until}

	total, err := vcs.CountCommits(ctx, repo, logOpts)
	if err != nil {
		return traversal.Result{}, fmt.Errorf("count commits: %w", err)
	}
	if !IsLarge(total) {
		log.WithField("total_commits", total).Info("repository not large, single-pass traversal")
		return traversal.Traverse(ctx, repo, opts, w)
	}

	n := ChunkCount(total)
	since, until, err := historyBounds(repo, logOpts, opts)
	if err != nil {
		return traversal.Result{}, fmt.Errorf("determine history bounds: %w", err)
	}
	ranges := dateSubRanges(since, until, n)
	log.WithField("total_commits", total).WithField("chunks", n).Info("large repository, chunked traversal")

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return traversal.Result{}, fmt.Errorf("create chunk temp dir: %w", err)
	}

	var chunkFiles []string
	var chunkResults []traversal.Result
	defer func() {
		for _, p := range chunkFiles {
			os.Remove(p)
		}
	}()

	for i, r := range ranges {
		since, until := r.Since, r.Until
		chunkOpts := opts
		chunkOpts.Since = &since
		chunkOpts.Until = &until

		path := filepath.Join(tempDir, fmt.Sprintf("commits_%s.jsonl", uuid.NewString()))
		result, err := traverseChunkToFile(ctx, repo, chunkOpts, path)
		if err != nil {
			return traversal.Result{}, fmt.Errorf("chunk %d: %w", i, err)
		}
		chunkFiles = append(chunkFiles, path)
		chunkResults = append(chunkResults, result)
	}

	header := traversal.Header{
		ProjectName:    opts.ProjectName,
		RepositoryURL:  opts.RepositoryURL,
		RepositoryName: opts.RepositoryName,
		Ecosystem:      opts.Ecosystem,
		RepoCategory:   opts.RepoCategory,
		AnalysisPeriod: traversal.AnalysisPeriod{
			StartDate:   since.Format("2006-01-02"),
			EndDate:     until.Format("2006-01-02"),
			FullHistory: opts.Since == nil && opts.Until == nil,
		},
	}
	headerBytes, err := traversal.MarshalHeaderPrefix(header)
	if err != nil {
		return traversal.Result{}, err
	}
	if _, err := w.Write(headerBytes); err != nil {
		return traversal.Result{}, err
	}
	if _, err := io.WriteString(w, `,"commits":`); err != nil {
		return traversal.Result{}, err
	}
	if err := appendChunkFiles(chunkFiles, w); err != nil {
		return traversal.Result{}, fmt.Errorf("merge chunk files: %w", err)
	}

	merged := mergeResults(chunkResults)
	merged.Header = header
	return merged, nil
}

func traverseChunkToFile(ctx context.Context, repo vcs.Repository, opts traversal.Options, path string) (traversal.Result, error) {
	f, err := os.Create(path)
	if err != nil {
		return traversal.Result{}, err
	}
	defer f.Close()
	return traversal.TraverseArray(ctx, repo, opts, f)
}

func historyBounds(repo vcs.Repository, logOpts vcs.LogOptions, opts traversal.Options) (since, until time.Time, err error) {
	if opts.Since != nil && opts.Until != nil {
		return *opts.Since, *opts.Until, nil
	}
	first := true
	walkErr := vcs.Walk(repo, logOpts, func(c vcs.Commit) error {
		when := c.Author.When
		if first {
			since, until = when, when
			first = false
			return nil
		}
		if when.Before(since) {
			since = when
		}
		if when.After(until) {
			until = when
		}
		return nil
	})
	if walkErr != nil {
		return time.Time{}, time.Time{}, walkErr
	}
	if opts.Since != nil {
		since = *opts.Since
	}
	if opts.Until != nil {
		until = *opts.Until
	}
	return since, until, nil
}

func loggerOf(opts traversal.Options) *logrus.Entry {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", "chunking")
}
