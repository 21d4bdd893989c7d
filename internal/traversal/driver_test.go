package traversal

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/panbanda/devpulse/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRawCommit is a minimal root-commit-only RawCommit fake: enough to
// exercise BuildCommit's root-commit branch (NumParents() == 0), which
// never calls Tree()/Parent().
type fakeRawCommit struct {
	hash      string
	author    object.Signature
	message   string
	stats     object.FileStats
}

func (c fakeRawCommit) Hash() plumbing.Hash              { return plumbing.NewHash(c.hash) }
func (c fakeRawCommit) NumParents() int                  { return 0 }
func (c fakeRawCommit) Parent(int) (vcs.RawCommit, error) { panic("root commit has no parent") }
func (c fakeRawCommit) Tree() (vcs.Tree, error)           { panic("root commit has no parent tree") }
func (c fakeRawCommit) Stats() (object.FileStats, error)  { return c.stats, nil }
func (c fakeRawCommit) Author() object.Signature          { return c.author }
func (c fakeRawCommit) Committer() object.Signature       { return c.author }
func (c fakeRawCommit) Message() string                   { return c.message }

type fakeIterator struct {
	commits []vcs.RawCommit
}

func (it *fakeIterator) ForEach(fn func(vcs.RawCommit) error) error {
	for _, c := range it.commits {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}
func (it *fakeIterator) Close() {}

type fakeRepo struct {
	commits []vcs.RawCommit
}

func (r *fakeRepo) Head() (vcs.Reference, error) { return nil, nil }
func (r *fakeRepo) Log(*vcs.LogOptions) (vcs.RawCommitIterator, error) {
	return &fakeIterator{commits: r.commits}, nil
}
func (r *fakeRepo) CommitObject(plumbing.Hash) (vcs.RawCommit, error) { return nil, nil }
func (r *fakeRepo) RepoPath() string                                 { return "" }

func TestTraverse_StreamsHeaderAndCommits(t *testing.T) {
	when := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC) // Monday
	repo := &fakeRepo{commits: []vcs.RawCommit{
		fakeRawCommit{
			hash:    "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			author:  object.Signature{Name: "Dev", Email: "dev@example.com", When: when},
			message: "fix bug #1",
			stats:   object.FileStats{{Name: "main.go", Addition: 10, Deletion: 2}},
		},
	}}

	var buf bytes.Buffer
	result, err := Traverse(context.Background(), repo, Options{
		ProjectName: "devpulse",
		BatchSize:   1,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processing.TotalCommits)
	assert.Equal(t, 10, result.Processing.TotalLinesAdded)
	assert.Equal(t, 2, result.Processing.TotalLinesRemoved)
	assert.Contains(t, result.WeeklySnapshots, "2024-05-06")

	buf.WriteString("}")
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "devpulse", doc["project_name"])
	commits, ok := doc["commits"].([]any)
	require.True(t, ok)
	assert.Len(t, commits, 1)
}

func TestTraverse_EmptyRepoProducesEmptyStream(t *testing.T) {
	repo := &fakeRepo{}
	var buf bytes.Buffer
	result, err := Traverse(context.Background(), repo, Options{ProjectName: "empty"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processing.TotalCommits)

	buf.WriteString("}")
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	commits, ok := doc["commits"].([]any)
	require.True(t, ok)
	assert.Empty(t, commits)
}
