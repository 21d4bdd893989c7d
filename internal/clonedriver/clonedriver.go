// Package clonedriver implements spec.md §6's "Repository access": a
// reachability pre-check (`git ls-remote <url>` with a bounded timeout)
// followed by a clone, so the repository traversal driver is always
// handed a path it can PlainOpen. This is an external collaborator, not
// part of the metrics engine proper (spec.md §1 lists "the Git clone
// driver, the reachability pre-check" among the things deliberately out
// of scope for the engine itself).
package clonedriver

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/panbanda/devpulse/internal/engineerr"
)

// ReachabilityTimeout is spec.md §6's "5 s timeout" for the ls-remote
// pre-check.
const ReachabilityTimeout = 5 * time.Second

// CheckReachable runs `git ls-remote <url>` with ReachabilityTimeout,
// returning a *engineerr.Error of KindSkippableRepo if the remote cannot
// be reached, per spec.md §6: "inaccessible URLs are listed in
// failed_repositories and excluded."
func CheckReachable(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, ReachabilityTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-remote", url)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		return engineerr.SkippableRepo(url, errors.New(msg))
	}
	return nil
}

// Clone clones url into destDir using go-git's PlainClone, after a
// reachability pre-check. Returns a *engineerr.Error of KindSkippableRepo
// on any failure — a repo that can't be cloned is excluded from the run,
// not fatal to it.
func Clone(ctx context.Context, url, destDir string) error {
	if err := CheckReachable(ctx, url); err != nil {
		return err
	}

	_, err := git.PlainCloneContext(ctx, destDir, false, &git.CloneOptions{
		URL: url,
	})
	if err != nil {
		return engineerr.SkippableRepo(url, err)
	}
	return nil
}
