package clonedriver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/panbanda/devpulse/internal/engineerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// localBareRepo creates a bare git repository on disk with one commit,
// usable as a file:// URL so these tests never touch the network.
func localBareRepo(t *testing.T) string {
	t.Helper()
	work := t.TempDir()
	run(t, work, "init")
	run(t, work, "config", "user.email", "test@example.com")
	run(t, work, "config", "user.name", "Test")
	require.NoError(t, os.WriteFile(filepath.Join(work, "README.md"), []byte("hello"), 0o644))
	run(t, work, "add", ".")
	run(t, work, "commit", "-m", "initial")

	bare := t.TempDir()
	run(t, "", "clone", "--bare", work, bare)
	return bare
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	require.NoError(t, cmd.Run(), "git %v", args)
}

func TestCheckReachable_LocalRepoSucceeds(t *testing.T) {
	repo := localBareRepo(t)
	err := CheckReachable(context.Background(), repo)
	assert.NoError(t, err)
}

func TestCheckReachable_MissingRepoFails(t *testing.T) {
	err := CheckReachable(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	var ee *engineerr.Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, engineerr.KindSkippableRepo, ee.Kind)
}

func TestClone_LocalRepoSucceeds(t *testing.T) {
	repo := localBareRepo(t)
	dest := filepath.Join(t.TempDir(), "checkout")
	err := Clone(context.Background(), repo, dest)
	assert.NoError(t, err)
	assert.DirExists(t, filepath.Join(dest, ".git"))
}
