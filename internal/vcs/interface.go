// Package vcs provides version control system abstractions used by the
// traversal driver and the metric accumulators.
package vcs

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns a reference to the HEAD commit.
	Head() (Reference, error)
	// Log returns a commit iterator starting from HEAD.
	Log(opts *LogOptions) (RawCommitIterator, error)
	// CommitObject returns the commit with the given hash.
	CommitObject(hash plumbing.Hash) (RawCommit, error)
	// RepoPath returns the root path of the repository.
	RepoPath() string
}

// Reference represents a git reference (branch, tag, HEAD).
type Reference interface {
	Hash() plumbing.Hash
}

// LogOptions configures the commit log query.
type LogOptions struct {
	Since *time.Time
	Until *time.Time
}

// RawCommitIterator iterates over commits in the go-git representation. Each
// iterator is consumed exactly once, by vcs.Walk. The sequence is not kept
// lazy end to end: traversal's collectReversed gathers every walked commit
// of a traversal into a slice so it can reverse their order.
type RawCommitIterator interface {
	ForEach(fn func(RawCommit) error) error
	Close()
}

// RawCommit is the go-git-backed view of a single commit, before
// ExtractModifiedFiles turns it into the engine's domain Commit.
type RawCommit interface {
	Hash() plumbing.Hash
	NumParents() int
	Parent(n int) (RawCommit, error)
	Tree() (Tree, error)
	Stats() (object.FileStats, error)
	Author() object.Signature
	Committer() object.Signature
	Message() string
}

// Tree represents a git tree object.
type Tree interface {
	// Diff computes differences between this tree and another.
	Diff(to Tree) (Changes, error)
}

// Changes represents a collection of file changes between trees.
type Changes []Change

// Change represents a single file change.
type Change interface {
	// FromName returns the source file name (empty for new files).
	FromName() string
	// ToName returns the destination file name (empty for deleted files).
	ToName() string
	// Patch computes the patch for this change.
	Patch() (Patch, error)
}

// Patch represents a diff patch.
type Patch interface {
	FilePatches() []FilePatch
}

// FilePatch represents changes to a single file.
type FilePatch interface {
	Chunks() []Chunk
}

// Chunk represents a chunk of changes within a file patch.
type Chunk interface {
	Type() ChunkType
	Content() string
}

// ChunkType represents the type of change in a chunk.
type ChunkType int

const (
	ChunkEqual ChunkType = iota
	ChunkAdd
	ChunkDelete
)

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}

// ContextAwareRepository extends Repository with context-aware operations.
type ContextAwareRepository interface {
	Repository
	// LogWithContext returns a commit iterator with context support.
	LogWithContext(ctx context.Context, opts *LogOptions) (RawCommitIterator, error)
}
