package vcs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", CanonicalEmail("  Jane@Example.COM "))
	assert.Equal(t, "", CanonicalEmail(""))
}

func TestBuildCommit_RootCommit(t *testing.T) {
	root := &fakeCommit{
		hash: "1111111111111111111111111111111111111111",
		author: object.Signature{
			Name: "Ada", Email: "Ada@Example.com", When: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		committer: object.Signature{
			Name: "Ada", Email: "Ada@Example.com", When: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		message: "initial commit",
		stats: object.FileStats{
			{Name: "main.go", Addition: 10, Deletion: 0},
		},
	}

	c, err := BuildCommit(root)
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", c.Author.Email)
	assert.Empty(t, c.ParentHashes)
	assert.False(t, c.Merge)
	require.Len(t, c.ModifiedFiles, 1)
	assert.Equal(t, "main.go", c.ModifiedFiles[0].NewPath)
	assert.Equal(t, ChangeAdd, c.ModifiedFiles[0].ChangeType)
	assert.Equal(t, 10, c.ModifiedFiles[0].AddedLines)
	assert.Nil(t, c.ModifiedFiles[0].Added, "root commits carry no parsed diff lines")
}

func TestBuildCommit_NonRootLineNumbers(t *testing.T) {
	parent := &fakeCommit{hash: "2222222222222222222222222222222222222222"}

	chunks := []Chunk{
		fakeChunk{typ: ChunkEqual, content: "package main\n"},
		fakeChunk{typ: ChunkDelete, content: "old1\nold2\n"},
		fakeChunk{typ: ChunkAdd, content: "new1\nnew2\nnew3\n"},
	}
	patch := fakePatch{filePatches: []FilePatch{fakeFilePatch{chunks: chunks}}}
	change := fakeChange{from: "main.go", to: "main.go", patch: patch}

	childTree := fakeTree{}
	parentTree := fakeTree{changes: Changes{change}} // BuildCommit calls parentTree.Diff(tree)

	child := &fakeCommit{
		hash:      "3333333333333333333333333333333333333333",
		author:    object.Signature{Name: "Bob", Email: "bob@example.com", When: time.Now()},
		committer: object.Signature{Name: "Bob", Email: "bob@example.com", When: time.Now()},
		message:   "edit main.go",
		parents:   []*fakeCommit{parent},
		tree:      childTree,
	}
	parent.tree = parentTree

	c, err := BuildCommit(child)
	require.NoError(t, err)
	require.Len(t, c.ParentHashes, 1)
	assert.Equal(t, parent.Hash().String(), c.ParentHashes[0])

	require.Len(t, c.ModifiedFiles, 1)
	mf := c.ModifiedFiles[0]
	require.Len(t, mf.Deleted, 2)
	assert.Equal(t, 2, mf.Deleted[0].LineNo)
	assert.Equal(t, 3, mf.Deleted[1].LineNo)

	require.Len(t, mf.Added, 3)
	assert.Equal(t, 2, mf.Added[0].LineNo)
	assert.Equal(t, 3, mf.Added[1].LineNo)
	assert.Equal(t, 4, mf.Added[2].LineNo)
}

func TestExtractModifiedFiles_OversizeGuard(t *testing.T) {
	big := strings.Repeat("x", oversizeThreshold+1)
	chunks := []Chunk{fakeChunk{typ: ChunkAdd, content: big + "\n"}}
	patch := fakePatch{filePatches: []FilePatch{fakeFilePatch{chunks: chunks}}}
	change := fakeChange{from: "", to: "blob.bin", patch: patch}

	mfs, err := extractModifiedFiles(fakeTree{changes: Changes{change}}, fakeTree{})
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	assert.True(t, mfs[0].Oversize)
	assert.Nil(t, mfs[0].Added)
	assert.Equal(t, 1, mfs[0].AddedLines, "summary counts survive even when parsed lines are dropped")
}

func TestExtractModifiedFiles_AddAndDelete(t *testing.T) {
	addChange := fakeChange{from: "", to: "new.go", patch: fakePatch{}}
	delChange := fakeChange{from: "old.go", to: "", patch: fakePatch{}}

	mfs, err := extractModifiedFiles(fakeTree{changes: Changes{addChange, delChange}}, fakeTree{})
	require.NoError(t, err)
	require.Len(t, mfs, 2)
	assert.Equal(t, ChangeAdd, mfs[0].ChangeType)
	assert.Equal(t, ChangeDelete, mfs[1].ChangeType)
}

func TestSplitDiffLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitDiffLines("a\nb\n"))
	assert.Nil(t, splitDiffLines(""))
}

func TestWalk(t *testing.T) {
	c1 := &fakeCommit{hash: "4444444444444444444444444444444444444444"}
	c2 := &fakeCommit{hash: "5555555555555555555555555555555555555555"}
	repo := &fakeRepository{commits: []RawCommit{c1, c2}}

	var seen []string
	err := Walk(repo, LogOptions{}, func(c Commit) error {
		seen = append(seen, c.Hash)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{c1.Hash().String(), c2.Hash().String()}, seen)
}

func TestCountCommits_FallsBackWithoutNativeGit(t *testing.T) {
	c1 := &fakeCommit{hash: "6666666666666666666666666666666666666666"}
	c2 := &fakeCommit{hash: "7777777777777777777777777777777777777777"}
	c3 := &fakeCommit{hash: "8888888888888888888888888888888888888888"}
	repo := &fakeRepository{commits: []RawCommit{c1, c2, c3}, path: ""}

	n, err := CountCommits(context.Background(), repo, LogOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
