package vcs

import (
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// CanonicalEmail normalises a developer's email for identity comparisons:
// two commits with the same canonical email are the same developer even if
// the display name differs.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signature identifies who made a commit and when.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// ChangeType classifies how a ModifiedFile's path changed between a
// commit's parent tree and the commit's own tree.
type ChangeType int

const (
	ChangeModify ChangeType = iota
	ChangeAdd
	ChangeDelete
	ChangeRename
	ChangeCopy
)

func (t ChangeType) String() string {
	switch t {
	case ChangeAdd:
		return "ADD"
	case ChangeDelete:
		return "DELETE"
	case ChangeRename:
		return "RENAME"
	case ChangeCopy:
		return "COPY"
	default:
		return "MODIFY"
	}
}

// DiffLine is one line of a unified diff, with its line number in the side
// of the diff it belongs to (new-file line number for an added line,
// old-file line number for a deleted line).
type DiffLine struct {
	LineNo int
	Text   string
}

// ModifiedFile is one file touched by a commit, with its diff parsed into
// added/deleted line lists. No rename map is kept: accumulators key a file
// by NewPath, or by OldPath when NewPath is empty (a delete).
//
// go-git's plain tree differ (the one reachable through this package's
// Tree interface) does not report rename/copy detection, so ChangeRename
// and ChangeCopy are never produced here; a rename surfaces as a DELETE of
// OldPath plus an ADD of NewPath. This is a known, documented gap rather
// than a silent one (see DESIGN.md).
type ModifiedFile struct {
	OldPath      string
	NewPath      string
	ChangeType   ChangeType
	AddedLines   int
	DeletedLines int
	Added        []DiffLine
	Deleted      []DiffLine
	// Before is the file's full pre-commit content, one element per line,
	// reconstructed from the patch's equal and delete chunks in old-file
	// line-number order (1-indexed by position). It is only populated for
	// ChangeModify (a rename/add/delete has no single prior-version blob
	// this package tracks), and is nil when Oversize is true. CodeProvenance
	// (§4.2.12) uses it to bootstrap line-history for lines that predate
	// the traversal window, the same way it would read a before-blob.
	Before []string
	// Oversize is true when the file's combined diff content exceeded the
	// 5 MB skip threshold (spec.md §7 "Skippable per-file"); Added/Deleted
	// are empty in that case but AddedLines/DeletedLines still reflect the
	// tree-diff summary counts.
	Oversize bool
}

// Filename returns the basename of NewPath (or OldPath for a pure delete).
func (mf ModifiedFile) Filename() string {
	path := mf.NewPath
	if path == "" {
		path = mf.OldPath
	}
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// Commit is the engine's immutable domain record for one commit, pulled
// from the VCS and fully materialised (diff text included) exactly once.
type Commit struct {
	Hash          string
	Author        Signature
	Committer     Signature
	Message       string
	ParentHashes  []string
	Insertions    int
	Deletions     int
	ModifiedFiles []ModifiedFile
	Merge         bool
}

// oversizeThreshold is the per-file combined-diff-content size above which
// a file's parsed diff is dropped (spec.md §7, "oversize source (>5 MB)").
const oversizeThreshold = 5 * 1024 * 1024

// BuildCommit turns a go-git RawCommit into the engine's domain Commit,
// extracting per-file diff line lists via tree diffing against the first
// parent. Root commits (NumParents() == 0) carry file-level counts from
// Stats() but no parsed diff lines: there is no parent tree to diff
// against through this package's Tree abstraction, so per-line provenance
// for a root commit's files starts from an empty line-history slot on
// first touch, same as any other never-before-seen line.
func BuildCommit(raw RawCommit) (Commit, error) {
	author := raw.Author()
	committer := raw.Committer()

	c := Commit{
		Hash: raw.Hash().String(),
		Author: Signature{
			Name:  author.Name,
			Email: CanonicalEmail(author.Email),
			When:  author.When.UTC(),
		},
		Committer: Signature{
			Name:  committer.Name,
			Email: CanonicalEmail(committer.Email),
			When:  committer.When.UTC(),
		},
		Message: raw.Message(),
		Merge:   raw.NumParents() > 1,
	}

	stats, statsErr := raw.Stats()
	if statsErr == nil {
		for _, s := range stats {
			c.Insertions += s.Addition
			c.Deletions += s.Deletion
		}
	}

	if raw.NumParents() == 0 {
		c.ModifiedFiles = modifiedFilesFromStats(stats)
		return c, nil
	}

	parent, err := raw.Parent(0)
	if err != nil {
		return c, err
	}
	c.ParentHashes = append(c.ParentHashes, parent.Hash().String())
	for i := 1; i < raw.NumParents(); i++ {
		if p, err := raw.Parent(i); err == nil {
			c.ParentHashes = append(c.ParentHashes, p.Hash().String())
		}
	}

	parentTree, err := parent.Tree()
	if err != nil {
		return c, err
	}
	tree, err := raw.Tree()
	if err != nil {
		return c, err
	}

	mfs, err := extractModifiedFiles(parentTree, tree)
	if err != nil {
		return c, err
	}
	c.ModifiedFiles = mfs
	return c, nil
}

// modifiedFilesFromStats builds one ModifiedFile per entry of a commit's
// FileStats summary, used for root commits (see BuildCommit).
func modifiedFilesFromStats(stats object.FileStats) []ModifiedFile {
	if len(stats) == 0 {
		return nil
	}
	result := make([]ModifiedFile, 0, len(stats))
	for _, s := range stats {
		result = append(result, ModifiedFile{
			NewPath:      s.Name,
			ChangeType:   ChangeAdd,
			AddedLines:   s.Addition,
			DeletedLines: s.Deletion,
		})
	}
	return result
}

// extractModifiedFiles walks the tree diff and, per changed file, parses
// its patch chunks into added/deleted DiffLines with correct line numbers.
// This mirrors the teacher's churn.go processCommit chunk-walking shape,
// generalized to also record line numbers (not just counts).
func extractModifiedFiles(parentTree, tree Tree) ([]ModifiedFile, error) {
	changes, err := parentTree.Diff(tree)
	if err != nil {
		return nil, err
	}

	result := make([]ModifiedFile, 0, len(changes))
	for _, change := range changes {
		mf := ModifiedFile{
			OldPath: change.FromName(),
			NewPath: change.ToName(),
		}
		switch {
		case mf.OldPath == "":
			mf.ChangeType = ChangeAdd
		case mf.NewPath == "":
			mf.ChangeType = ChangeDelete
		default:
			mf.ChangeType = ChangeModify
		}

		patch, err := change.Patch()
		if err != nil {
			result = append(result, mf)
			continue
		}

		var totalBytes int
		oldLine, newLine := 1, 1
		var added, deleted, before []DiffLine
		for _, fp := range patch.FilePatches() {
			for _, chunk := range fp.Chunks() {
				content := chunk.Content()
				totalBytes += len(content)
				lines := splitDiffLines(content)
				switch chunk.Type() {
				case ChunkAdd:
					for _, line := range lines {
						added = append(added, DiffLine{LineNo: newLine, Text: line})
						newLine++
					}
				case ChunkDelete:
					for _, line := range lines {
						deleted = append(deleted, DiffLine{LineNo: oldLine, Text: line})
						before = append(before, DiffLine{LineNo: oldLine, Text: line})
						oldLine++
					}
				default:
					for _, line := range lines {
						before = append(before, DiffLine{LineNo: oldLine, Text: line})
						oldLine++
						newLine++
					}
				}
			}
		}

		mf.AddedLines = len(added)
		mf.DeletedLines = len(deleted)
		if totalBytes > oversizeThreshold {
			mf.Oversize = true
		} else {
			mf.Added = added
			mf.Deleted = deleted
			if mf.ChangeType == ChangeModify {
				beforeLines := make([]string, len(before))
				for i, l := range before {
					beforeLines[i] = l.Text
				}
				mf.Before = beforeLines
			}
		}

		result = append(result, mf)
	}
	return result, nil
}

// splitDiffLines splits a chunk's raw content into its constituent lines,
// dropping the single trailing empty element produced by a terminal
// newline (go-git chunk content always ends in "\n" for complete lines).
func splitDiffLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
