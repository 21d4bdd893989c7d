package metrics

// HunksSnapshot maps a file to the median hunk count across the commits
// that touched it (§4.2.4).
type HunksSnapshot map[string]float64

// Hunks tracks, per file, the sequence of per-commit contiguous +/- run
// counts.
type Hunks struct {
	base
	counts map[string][]int
}

func NewHunks() *Hunks {
	return &Hunks{counts: make(map[string][]int)}
}

func (a *Hunks) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		a.counts[path] = append(a.counts[path], fe.HunkCount())
	}
	return nil
}

func (a *Hunks) Snapshot() HunksSnapshot {
	a.markSnapshotted()
	out := make(HunksSnapshot, len(a.counts))
	for file, counts := range a.counts {
		out[file] = median(counts)
	}
	return out
}

// MergeHunks sums per-file medians as a concatenation approximation, per
// spec.md §4.2.4 ("Merge: per-file sum (concatenation approximation)") — an
// exact merge would need the raw per-commit sequences, which snapshots
// intentionally discard once taken.
func MergeHunks(snaps ...HunksSnapshot) HunksSnapshot {
	out := make(HunksSnapshot)
	for _, s := range snaps {
		for file, v := range s {
			out[file] += v
		}
	}
	return out
}
