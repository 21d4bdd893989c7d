package metrics

// CommitsCountSnapshot maps a file path to the number of distinct commits
// that touched it (§4.2.2).
type CommitsCountSnapshot map[string]int

// CommitsCount counts, per file, how many distinct commits touch it.
type CommitsCount struct {
	base
	counts map[string]int
}

func NewCommitsCount() *CommitsCount {
	return &CommitsCount{counts: make(map[string]int)}
}

func (a *CommitsCount) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(v.Files))
	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		a.counts[path]++
	}
	return nil
}

func (a *CommitsCount) Snapshot() CommitsCountSnapshot {
	a.markSnapshotted()
	out := make(CommitsCountSnapshot, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

// MergeCommitsCount sums per-file counts across snapshots.
func MergeCommitsCount(snaps ...CommitsCountSnapshot) CommitsCountSnapshot {
	out := make(CommitsCountSnapshot)
	for _, s := range snaps {
		for file, n := range s {
			out[file] += n
		}
	}
	return out
}
