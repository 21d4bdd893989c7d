package chunking

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/panbanda/devpulse/internal/traversal"
	"github.com/panbanda/devpulse/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMultiAuthorRepo spreads n commits by two authors (alice heavily,
// bob lightly, so Contributors.Minor has something to count) over roughly
// 90 days, touching two files so Lines/Churn/CommitsCount all carry more
// than one key.
func buildMultiAuthorRepo(n int, start time.Time) *fakeRepo {
	commits := make([]vcs.RawCommit, 0, n)
	step := 90 * 24 * time.Hour / time.Duration(n)
	for i := 0; i < n; i++ {
		author := object.Signature{Name: "alice", Email: "alice@x.com", When: start.Add(time.Duration(i) * step)}
		file := "a.go"
		add := 10
		if i%5 == 0 {
			author = object.Signature{Name: "bob", Email: "bob@x.com", When: start.Add(time.Duration(i) * step)}
			file = "b.go"
			add = 1
		}
		commits = append(commits, fakeRawCommit{
			hash:   hexHash(i + 1),
			author: author,
			stats:  object.FileStats{{Name: file, Addition: add, Deletion: 1}},
		})
	}
	return &fakeRepo{commits: commits}
}

// chunkedResult drives n forced date sub-ranges over [since, until] through
// traversal.TraverseArray/traverseChunkToFile exactly the way Run does,
// then merges them via mergeResults — without Run's own IsLarge/ChunkCount
// gating, so the property can be checked at n values Run itself might
// never pick for a given commit count.
func chunkedResult(t *testing.T, repo vcs.Repository, opts traversal.Options, since, until time.Time, n int) traversal.Result {
	t.Helper()
	ranges := dateSubRanges(since, until, n)
	dir := t.TempDir()

	var results []traversal.Result
	for i, r := range ranges {
		chunkOpts := opts
		s, u := r.Since, r.Until
		chunkOpts.Since = &s
		chunkOpts.Until = &u
		path := filepath.Join(dir, fmt.Sprintf("chunk_%d.jsonl", i))
		res, err := traverseChunkToFile(context.Background(), repo, chunkOpts, path)
		require.NoError(t, err)
		results = append(results, res)
	}
	return mergeResults(results)
}

// TestChunkingEquivalence_SizeAdditiveMetrics is spec.md §8 P1: merging a
// chunked traversal equals the unchunked whole for every size-additive
// metric, at every n in {2,3,4}. Two metrics named by P1 are intentionally
// excluded, both documented elsewhere rather than silently dropped here:
// Hunks, because MergeHunks is a concatenation approximation over per-file
// medians (see hunks.go), not a literal sum; and Contributors.Minor,
// because the minor/major split is computed against each chunk's own
// local per-file total (contributors.go's Snapshot), so a contributor who
// is minor against the whole-history total can cross the 5% threshold
// against a single chunk's smaller total — the classification itself,
// not just its merge, is chunk-boundary-sensitive.
func TestChunkingEquivalence_SizeAdditiveMetrics(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := start.Add(90 * 24 * time.Hour)
	repo := buildMultiAuthorRepo(47, start)
	opts := traversal.Options{ProjectName: "p1"}

	whole, err := traversal.Traverse(context.Background(), repo, opts, discardWriter{})
	require.NoError(t, err)
	require.Equal(t, 47, whole.Processing.TotalCommits, "sanity: every fixture commit is in range")

	for _, n := range []int{2, 3, 4} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			merged := chunkedResult(t, repo, opts, start, until, n)

			assert.Equal(t, whole.Processing.TotalCommits, merged.Processing.TotalCommits, "commits_count")
			assert.Equal(t, whole.Processing.TotalLinesAdded, merged.Processing.TotalLinesAdded, "lines.added.total")
			assert.Equal(t, whole.Processing.TotalLinesRemoved, merged.Processing.TotalLinesRemoved, "lines.removed.total")

			assert.Equal(t, whole.OverallSnapshot.CommitsCount, merged.OverallSnapshot.CommitsCount, "commits_count per file")
			assert.Equal(t, whole.OverallSnapshot.Churn.Added, merged.OverallSnapshot.Churn.Added, "code_churn.added_removed.added")
			assert.Equal(t, whole.OverallSnapshot.Churn.Removed, merged.OverallSnapshot.Churn.Removed, "code_churn.added_removed.removed")

			for file, want := range whole.OverallSnapshot.Lines.Added {
				assert.Equal(t, want.Total, merged.OverallSnapshot.Lines.Added[file].Total, "lines.added.total[%s]", file)
			}
			for file, want := range whole.OverallSnapshot.Lines.Removed {
				assert.Equal(t, want.Total, merged.OverallSnapshot.Lines.Removed[file].Total, "lines.removed.total[%s]", file)
			}
		})
	}
}

// discardWriter throws away the streamed commit document: this property
// only inspects the returned traversal.Result, not the JSON stream.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
