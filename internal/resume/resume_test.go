package resume

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletedUsers_EmptyWhenFileMissing(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	users, err := s.CompletedUsers()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMarkUserCompleted_PersistsAndDedupes(t *testing.T) {
	root := t.TempDir()
	s := New(root, t.TempDir())

	require.NoError(t, s.MarkUserCompleted("ada"))
	require.NoError(t, s.MarkUserCompleted("grace"))
	require.NoError(t, s.MarkUserCompleted("ada"))

	users, err := s.CompletedUsers()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ada", "grace"}, users)
	assert.FileExists(t, filepath.Join(root, completedUsersFile))
}

func TestIsUserCompleted(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	require.NoError(t, s.MarkUserCompleted("ada"))

	done, err := s.IsUserCompleted("ada")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = s.IsUserCompleted("grace")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestProcessedFiles_EmptyWhenFileMissing(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	processed, err := s.ProcessedFiles()
	require.NoError(t, err)
	assert.Empty(t, processed)
}

func TestMarkRepoProcessed_PersistsUnderHashKey(t *testing.T) {
	cache := t.TempDir()
	s := New(t.TempDir(), cache)
	url := "https://github.com/ada/devpulse"

	require.NoError(t, s.MarkRepoProcessed(url))

	processed, err := s.ProcessedFiles()
	require.NoError(t, err)
	assert.Equal(t, url, processed[HashRepoURL(url)])
	assert.FileExists(t, filepath.Join(cache, processedFilesFile))
}

func TestIsRepoProcessed(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	url := "https://github.com/ada/devpulse"

	done, err := s.IsRepoProcessed(url)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkRepoProcessed(url))
	done, err = s.IsRepoProcessed(url)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestHashRepoURL_StableAndDistinct(t *testing.T) {
	a := HashRepoURL("https://github.com/ada/devpulse")
	b := HashRepoURL("https://github.com/ada/devpulse")
	c := HashRepoURL("https://github.com/grace/cobol-tools")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
