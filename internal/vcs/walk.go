package vcs

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Walk consumes a repository's commit log exactly once, in the order
// go-git's log iterator yields (committer-time order, newest first from
// HEAD, which the traversal driver reverses before processing so that
// commits are delivered in non-decreasing committer-date order per
// spec.md invariant I1). fn is called once per commit with the fully
// materialised domain Commit.
func Walk(repo Repository, opts LogOptions, fn func(Commit) error) error {
	iter, err := repo.Log(&opts)
	if err != nil {
		return err
	}
	defer iter.Close()

	return iter.ForEach(func(raw RawCommit) error {
		c, err := BuildCommit(raw)
		if err != nil {
			return err
		}
		return fn(c)
	})
}

// CountCommits returns the number of commits reachable from HEAD within
// [since, until], used by the traversal driver's first pass (spec.md
// §4.4 step 1). It prefers the native `git rev-list --count` command
// (much faster on large histories, mirroring the teacher's native-git
// fast path in pkg/analyzer/churn) and falls back to walking the log
// through the Opener when native git is unavailable (e.g. under a test
// fake).
func CountCommits(ctx context.Context, repo Repository, opts LogOptions) (int, error) {
	if n, ok := countCommitsNative(ctx, repo.RepoPath(), opts); ok {
		return n, nil
	}

	var n int
	err := Walk(repo, opts, func(Commit) error {
		n++
		return nil
	})
	return n, err
}

func countCommitsNative(ctx context.Context, repoPath string, opts LogOptions) (int, bool) {
	if repoPath == "" {
		return 0, false
	}
	args := []string{"rev-list", "--count", "HEAD"}
	if opts.Since != nil {
		args = append(args, "--since="+opts.Since.Format(time.RFC3339))
	}
	if opts.Until != nil {
		args = append(args, "--until="+opts.Until.Format(time.RFC3339))
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, false
	}
	return n, true
}
