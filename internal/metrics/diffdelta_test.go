package metrics

import (
	"testing"
	"time"

	"github.com/panbanda/devpulse/internal/classify"
	"github.com/panbanda/devpulse/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewOf(author string, when time.Time, files ...vcs.ModifiedFile) CommitView {
	return CommitView{
		Commit: commitAt(author, when, files...),
		Files:  classify.Commit(files),
	}
}

// TestDiffDelta_CommentChurnExcludedFromWeightedScore pins spec.md §4.2.11's
// distinction between meaningful_adds/meaningful_deletes (blank/comment/
// import-filtered, feeding the weighted add/delete terms) and the raw
// added/deleted-moved counts the updates term uses: a file whose only
// "added" lines are comments must not add to the weighted score.
func TestDiffDelta_CommentChurnExcludedFromWeightedScore(t *testing.T) {
	a := NewDiffDelta(DefaultConfig())
	when := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	v := viewOf("dev@example.com", when, vcs.ModifiedFile{
		NewPath:    "main.go",
		ChangeType: vcs.ChangeModify,
		AddedLines: 2,
		Added: []vcs.DiffLine{
			{LineNo: 10, Text: "// this line explains the next one"},
			{LineNo: 11, Text: "// and this one is also a comment"},
		},
	})

	require.NoError(t, a.ProcessCommit(v))
	snap := a.SnapshotAll()["dev@example.com"]
	assert.Equal(t, 0.0, snap.TotalDiffDelta, "comment-only adds contribute no weighted score")
}

// TestDiffDelta_MeaningfulAddsWeightedSeparatelyFromRawUpdates asserts the
// weighted score uses classify.Meaningful-filtered counts while the
// updates term still uses the raw added/deleted-moved counts, per the
// reviewer's correction to §4.2.11.
func TestDiffDelta_MeaningfulAddsWeightedSeparatelyFromRawUpdates(t *testing.T) {
	a := NewDiffDelta(DefaultConfig())
	when := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	// One meaningful add, one comment add (raw added=2), one meaningful
	// delete, one blank delete (raw deleted=2). No moved lines.
	v := viewOf("dev@example.com", when, vcs.ModifiedFile{
		NewPath:      "main.go",
		ChangeType:   vcs.ChangeModify,
		AddedLines:   2,
		DeletedLines: 2,
		Added: []vcs.DiffLine{
			{LineNo: 10, Text: "result := compute(x)"},
			{LineNo: 11, Text: "// a comment"},
		},
		Deleted: []vcs.DiffLine{
			{LineNo: 10, Text: "return compute(x)"},
			{LineNo: 11, Text: ""},
		},
	})

	require.NoError(t, a.ProcessCommit(v))
	snap := a.SnapshotAll()["dev@example.com"]

	// raw updates = min(added-moved, deleted-moved) = min(2, 2) = 2
	// weighted score = meaningfulAdds(1)*1.0 + 2*0.8*0.75 + meaningfulDeletes(1)*0.25 + 0*0.1
	want := 1.0*diffDeltaWeights.add + 2*0.8*diffDeltaWeights.update + 1.0*diffDeltaWeights.delete
	assert.InDelta(t, want, snap.TotalDiffDelta, 1e-9)

	week := firstKey(t, snap.WeeklyVelocity)
	assert.Equal(t, 2, snap.WeeklyVelocity[week].LinesUpdated, "updates term still uses raw added/deleted-moved counts")
}
