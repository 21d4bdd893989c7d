package metrics

import (
	"testing"
	"time"

	"github.com/panbanda/devpulse/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitAt(author string, when time.Time, files ...vcs.ModifiedFile) vcs.Commit {
	var ins, del int
	for _, f := range files {
		ins += f.AddedLines
		del += f.DeletedLines
	}
	return vcs.Commit{
		Hash:          "deadbeef",
		Author:        vcs.Signature{Name: author, Email: author, When: when},
		Committer:     vcs.Signature{Name: author, Email: author, When: when},
		Message:       "fix bug #42",
		ModifiedFiles: files,
		Insertions:    ins,
		Deletions:     del,
	}
}

func TestRegistry_ProcessCommitAndSnapshot(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	when := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) // Monday

	c := commitAt("dev@example.com", when, vcs.ModifiedFile{
		NewPath:      "main.go",
		ChangeType:   vcs.ChangeModify,
		AddedLines:   2,
		DeletedLines: 1,
		Added: []vcs.DiffLine{
			{LineNo: 10, Text: "result := compute(x)"},
			{LineNo: 11, Text: "return result"},
		},
		Deleted: []vcs.DiffLine{{LineNo: 10, Text: "return compute(x)"}},
	})

	require.NoError(t, r.ProcessCommit(c))

	snap := r.Snapshot()
	assert.Equal(t, 1, snap.ChangeSet.Max)
	assert.Equal(t, 1, snap.CommitsCount["main.go"])
	assert.Equal(t, 1, snap.Contributors.Total["main.go"])
	assert.True(t, snap.Bugs.TotalBugLines > 0, "commit message matches a bug-fix pattern")
	assert.Equal(t, "2024-03-04", firstKey(t, snap.DiffDelta["dev@example.com"].WeeklyVelocity))
}

func firstKey(t *testing.T, m map[string]WeekVelocity) string {
	t.Helper()
	for k := range m {
		return k
	}
	t.Fatal("expected at least one week key")
	return ""
}

func TestMergeSnapshots_CombinesPerFileCounts(t *testing.T) {
	r1 := NewRegistry(DefaultConfig())
	r2 := NewRegistry(DefaultConfig())
	when := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	c1 := commitAt("a@x.com", when, vcs.ModifiedFile{NewPath: "a.go", AddedLines: 3})
	c2 := commitAt("b@x.com", when.Add(time.Hour), vcs.ModifiedFile{NewPath: "b.go", AddedLines: 5})

	require.NoError(t, r1.ProcessCommit(c1))
	require.NoError(t, r2.ProcessCommit(c2))

	merged := MergeSnapshots(r1.Snapshot(), r2.Snapshot())
	assert.Equal(t, 1, merged.CommitsCount["a.go"])
	assert.Equal(t, 1, merged.CommitsCount["b.go"])
}
