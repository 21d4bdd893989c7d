package vcs

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
)

// ErrDirtyWorkingDir is returned when the working directory has uncommitted changes.
var ErrDirtyWorkingDir = errors.New("working directory has uncommitted changes")

// IsDirty returns true if there are uncommitted changes in the working directory.
func IsDirty(repoPath string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return false, errors.New(stderr.String())
	}

	return strings.TrimSpace(stdout.String()) != "", nil
}

// GetCurrentRef returns the current branch name or commit SHA (for detached HEAD).
func GetCurrentRef(repoPath string) (string, error) {
	cmd := exec.Command("git", "symbolic-ref", "--short", "HEAD")
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err == nil {
		return strings.TrimSpace(stdout.String()), nil
	}

	cmd = exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoPath
	stdout.Reset()
	stderr.Reset()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.New(stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}

// CheckoutCommit checks out a specific commit or ref. Nothing in the module
// calls it; clonedriver does not pin a ref after cloning.
func CheckoutCommit(repoPath, ref string) error {
	cmd := exec.Command("git", "checkout", ref)
	cmd.Dir = repoPath

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.New(stderr.String())
	}

	return nil
}
