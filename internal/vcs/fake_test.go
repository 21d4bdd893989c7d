package vcs

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// fakeChunk, fakeFilePatch, fakePatch, fakeChange, fakeTree, fakeCommit and
// fakeCommitIterator are hand-written test doubles for the vcs interfaces,
// grounded on the teacher's mock-opener test style (pkg/analyzer/churn's
// mocked-repository tests) but written out explicitly rather than
// generated, per SPEC_FULL.md §8.

type fakeChunk struct {
	typ     ChunkType
	content string
}

func (c fakeChunk) Type() ChunkType { return c.typ }
func (c fakeChunk) Content() string { return c.content }

type fakeFilePatch struct {
	chunks []Chunk
}

func (fp fakeFilePatch) Chunks() []Chunk { return fp.chunks }

type fakePatch struct {
	filePatches []FilePatch
}

func (p fakePatch) FilePatches() []FilePatch { return p.filePatches }

type fakeChange struct {
	from, to string
	patch    Patch
	err      error
}

func (c fakeChange) FromName() string { return c.from }
func (c fakeChange) ToName() string   { return c.to }
func (c fakeChange) Patch() (Patch, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.patch, nil
}

type fakeTree struct {
	changes Changes
}

func (t fakeTree) Diff(to Tree) (Changes, error) { return t.changes, nil }

type fakeCommit struct {
	hash      string
	author    object.Signature
	committer object.Signature
	message   string
	parents   []*fakeCommit
	tree      Tree
	stats     object.FileStats
}

func (c *fakeCommit) Hash() plumbing.Hash { return plumbing.NewHash(c.hash) }
func (c *fakeCommit) NumParents() int     { return len(c.parents) }
func (c *fakeCommit) Parent(n int) (RawCommit, error) {
	return c.parents[n], nil
}
func (c *fakeCommit) Tree() (Tree, error)              { return c.tree, nil }
func (c *fakeCommit) Stats() (object.FileStats, error) { return c.stats, nil }
func (c *fakeCommit) Author() object.Signature         { return c.author }
func (c *fakeCommit) Committer() object.Signature      { return c.committer }
func (c *fakeCommit) Message() string                  { return c.message }

type fakeCommitIterator struct {
	commits []RawCommit
}

func (i *fakeCommitIterator) ForEach(fn func(RawCommit) error) error {
	for _, c := range i.commits {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}
func (i *fakeCommitIterator) Close() {}

type fakeRepository struct {
	commits []RawCommit
	path    string
}

func (r *fakeRepository) Head() (Reference, error) { return nil, nil }
func (r *fakeRepository) Log(opts *LogOptions) (RawCommitIterator, error) {
	return &fakeCommitIterator{commits: r.commits}, nil
}
func (r *fakeRepository) CommitObject(hash plumbing.Hash) (RawCommit, error) {
	for _, c := range r.commits {
		if c.Hash() == hash {
			return c, nil
		}
	}
	return nil, ErrInvalidType
}
func (r *fakeRepository) RepoPath() string { return r.path }
