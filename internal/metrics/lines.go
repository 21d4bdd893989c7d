package metrics

import "github.com/panbanda/devpulse/internal/classify"

// LineSeriesSnapshot is the {total,max,avg} shape §4.2.5 uses twice, for
// added and removed lines respectively.
type LineSeriesSnapshot struct {
	Total int     `json:"total"`
	Max   int     `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// LinesSnapshot is the full §4.2.5 snapshot.
type LinesSnapshot struct {
	Added       map[string]LineSeriesSnapshot `json:"added"`
	Removed     map[string]LineSeriesSnapshot `json:"removed"`
	NoopAdded   int                           `json:"noop_added"`
	NoopRemoved int                           `json:"noop_removed"`
}

type lineSeries struct {
	total, max, count int
}

func (s *lineSeries) add(n int) {
	if s.count == 0 || n > s.max {
		s.max = n
	}
	s.total += n
	s.count++
}

func (s lineSeries) snapshot() LineSeriesSnapshot {
	snap := LineSeriesSnapshot{Total: s.total, Max: s.max, Count: s.count}
	if s.count > 0 {
		snap.Avg = float64(s.total) / float64(s.count)
	}
	return snap
}

// Lines tracks, per file, the per-commit added/removed line counts plus the
// commit-wide noop (whitespace-only) line counts.
type Lines struct {
	base
	added       map[string]*lineSeries
	removed     map[string]*lineSeries
	noopAdded   int
	noopRemoved int
}

func NewLines() *Lines {
	return &Lines{added: make(map[string]*lineSeries), removed: make(map[string]*lineSeries)}
}

func (a *Lines) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		if a.added[path] == nil {
			a.added[path] = &lineSeries{}
		}
		if a.removed[path] == nil {
			a.removed[path] = &lineSeries{}
		}
		a.added[path].add(fe.File.AddedLines)
		a.removed[path].add(fe.File.DeletedLines)

		for _, e := range fe.Events {
			if e.Kind == classify.EventAdded && classify.Noop(e.Text) {
				a.noopAdded++
			}
			if e.Kind == classify.EventDeleted && classify.Noop(e.Text) {
				a.noopRemoved++
			}
		}
	}
	return nil
}

func (a *Lines) Snapshot() LinesSnapshot {
	a.markSnapshotted()
	snap := LinesSnapshot{
		Added:       make(map[string]LineSeriesSnapshot, len(a.added)),
		Removed:     make(map[string]LineSeriesSnapshot, len(a.removed)),
		NoopAdded:   a.noopAdded,
		NoopRemoved: a.noopRemoved,
	}
	for file, s := range a.added {
		snap.Added[file] = s.snapshot()
	}
	for file, s := range a.removed {
		snap.Removed[file] = s.snapshot()
	}
	return snap
}

func mergeLineSeriesMap(dst map[string]LineSeriesSnapshot, src map[string]LineSeriesSnapshot) {
	for file, s := range src {
		existing, ok := dst[file]
		if !ok {
			dst[file] = s
			continue
		}
		weighted := existing.Avg*float64(existing.Count) + s.Avg*float64(s.Count)
		existing.Total += s.Total
		if s.Max > existing.Max {
			existing.Max = s.Max
		}
		existing.Count += s.Count
		if existing.Count > 0 {
			existing.Avg = weighted / float64(existing.Count)
		}
		dst[file] = existing
	}
}

// MergeLines sums totals and noop counts, keeps per-file max, and
// recomputes a count-weighted average per file (spec.md §4.2.5).
func MergeLines(snaps ...LinesSnapshot) LinesSnapshot {
	out := LinesSnapshot{Added: make(map[string]LineSeriesSnapshot), Removed: make(map[string]LineSeriesSnapshot)}
	for _, s := range snaps {
		mergeLineSeriesMap(out.Added, s.Added)
		mergeLineSeriesMap(out.Removed, s.Removed)
		out.NoopAdded += s.NoopAdded
		out.NoopRemoved += s.NoopRemoved
	}
	return out
}
