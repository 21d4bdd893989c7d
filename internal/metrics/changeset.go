package metrics

// ChangeSetSnapshot is the §4.2.1 snapshot shape: the number of modified
// files per commit, summarised as {max, avg}. Count carries the number of
// commits contributing to Avg so Merge can recompute a weighted mean.
type ChangeSetSnapshot struct {
	Max   int     `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// ChangeSet tracks, per commit, how many files it touched.
type ChangeSet struct {
	base
	total int
	max   int
	count int
}

func NewChangeSet() *ChangeSet { return &ChangeSet{} }

func (a *ChangeSet) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	n := len(v.Files)
	a.total += n
	a.count++
	if n > a.max {
		a.max = n
	}
	return nil
}

func (a *ChangeSet) Snapshot() ChangeSetSnapshot {
	a.markSnapshotted()
	snap := ChangeSetSnapshot{Max: a.max, Count: a.count}
	if a.count > 0 {
		snap.Avg = float64(a.total) / float64(a.count)
	}
	return snap
}

// MergeChangeSet combines independently produced snapshots (e.g. from the
// chunk splitter's parallel sub-ranges, §4.5).
func MergeChangeSet(snaps ...ChangeSetSnapshot) ChangeSetSnapshot {
	var out ChangeSetSnapshot
	var weighted float64
	for _, s := range snaps {
		if s.Max > out.Max {
			out.Max = s.Max
		}
		weighted += s.Avg * float64(s.Count)
		out.Count += s.Count
	}
	if out.Count > 0 {
		out.Avg = weighted / float64(out.Count)
	}
	return out
}
