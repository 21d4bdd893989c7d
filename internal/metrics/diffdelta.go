package metrics

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/panbanda/devpulse/internal/classify"
	"github.com/panbanda/devpulse/internal/weekly"
)

// WeekVelocity is the per-developer, per-week breakdown inside DiffDelta's
// snapshot (§4.2.11).
type WeekVelocity struct {
	DiffDelta      float64              `json:"diff_delta"`
	LinesAdded     int                  `json:"lines_added"`
	LinesUpdated   int                  `json:"lines_updated"`
	LinesDeleted   int                  `json:"lines_deleted"`
	LinesMoved     int                  `json:"lines_moved"`
	Commits        int                  `json:"commits"`
	FilesChanged   int                  `json:"files_changed"`
	ActiveDays     map[string]struct{}  `json:"-"`
	ActiveDayN     int                  `json:"active_day_count"`
	VelocityPerDay float64              `json:"velocity_per_day"`
}

// DiffDeltaSnapshot is the §4.2.11 snapshot, keyed by developer email.
type DiffDeltaSnapshot struct {
	TotalDiffDelta float64                 `json:"total_diff_delta"`
	TotalCommits   int                     `json:"total_commits"`
	WeeklyVelocity map[string]WeekVelocity `json:"weekly_velocity"`
}

type developerDiffDelta struct {
	total   float64
	commits int
	weeks   map[string]*WeekVelocity
}

// DiffDelta computes each developer's weighted change score per commit,
// per spec.md §4.2.11, skipping generated/vendored/binary assets.
type DiffDelta struct {
	base
	cfg Config
	by  map[string]*developerDiffDelta
}

func NewDiffDelta(cfg Config) *DiffDelta {
	return &DiffDelta{cfg: cfg, by: make(map[string]*developerDiffDelta)}
}

func skippedByDiffDelta(path string) bool {
	base := basename(path)
	for _, p := range skipPatterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (a *DiffDelta) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	author := v.Commit.Author.Email
	dev, ok := a.by[author]
	if !ok {
		dev = &developerDiffDelta{weeks: make(map[string]*WeekVelocity)}
		a.by[author] = dev
	}

	week := weekly.MondayKey(v.Commit.Author.When)
	wk, ok := dev.weeks[week]
	if !ok {
		wk = &WeekVelocity{ActiveDays: make(map[string]struct{})}
		dev.weeks[week] = wk
	}

	var commitScore float64
	filesChanged := 0
	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		if skippedByDiffDelta(path) {
			continue
		}
		filesChanged++

		ext := classify.Ext(path)
		added, deleted, moved := 0, 0, 0
		meaningfulAdds, meaningfulDeletes := 0, 0
		for _, e := range fe.Events {
			switch e.Kind {
			case classify.EventAdded:
				added++
				if classify.Meaningful(e.Text, ext) {
					meaningfulAdds++
				}
			case classify.EventDeleted:
				deleted++
				if classify.Meaningful(e.Text, ext) {
					meaningfulDeletes++
				}
			case classify.EventMoved:
				moved++
			}
		}
		// updates (§4.2.11) is min(|added|-|moved|, |deleted|-|moved|) over
		// the raw event counts, a distinct quantity from meaningful_adds/
		// meaningful_deletes, which already exclude blank/comment/import
		// churn before the add/delete weighted terms ever see them.
		rawAdds := added - moved
		rawDeletes := deleted - moved
		if rawAdds < 0 {
			rawAdds = 0
		}
		if rawDeletes < 0 {
			rawDeletes = 0
		}
		updates := min(rawAdds, rawDeletes)
		weightedUpdates := float64(updates) * a.cfg.DiffDeltaUpdateWeight

		score := float64(meaningfulAdds)*diffDeltaWeights.add +
			weightedUpdates*diffDeltaWeights.update +
			float64(meaningfulDeletes)*diffDeltaWeights.delete +
			float64(moved)*diffDeltaWeights.move

		commitScore += score
		wk.LinesAdded += added
		wk.LinesDeleted += deleted
		wk.LinesMoved += moved
		wk.LinesUpdated += updates
	}

	dev.total += commitScore
	dev.commits++
	wk.DiffDelta += commitScore
	wk.Commits++
	wk.FilesChanged += filesChanged
	wk.ActiveDays[v.Commit.Author.When.Format("2006-01-02")] = struct{}{}

	return nil
}

// SnapshotAll returns every developer's DiffDeltaSnapshot keyed by email,
// since the metric is inherently per-developer (§4.2.11).
func (a *DiffDelta) SnapshotAll() map[string]DiffDeltaSnapshot {
	a.markSnapshotted()
	out := make(map[string]DiffDeltaSnapshot, len(a.by))
	for author, dev := range a.by {
		weeks := make(map[string]WeekVelocity, len(dev.weeks))
		for wk, v := range dev.weeks {
			v.ActiveDayN = len(v.ActiveDays)
			if v.ActiveDayN > 0 {
				v.VelocityPerDay = v.DiffDelta / float64(v.ActiveDayN)
			}
			weeks[wk] = *v
		}
		out[author] = DiffDeltaSnapshot{TotalDiffDelta: dev.total, TotalCommits: dev.commits, WeeklyVelocity: weeks}
	}
	return out
}

// MergeDiffDelta field-sums two developers' snapshots and recomputes
// VelocityPerDay afterward, per spec.md §4.2.11.
func MergeDiffDelta(snaps ...DiffDeltaSnapshot) DiffDeltaSnapshot {
	out := DiffDeltaSnapshot{WeeklyVelocity: make(map[string]WeekVelocity)}
	for _, s := range snaps {
		out.TotalDiffDelta += s.TotalDiffDelta
		out.TotalCommits += s.TotalCommits
		for wk, v := range s.WeeklyVelocity {
			existing := out.WeeklyVelocity[wk]
			existing.DiffDelta += v.DiffDelta
			existing.LinesAdded += v.LinesAdded
			existing.LinesUpdated += v.LinesUpdated
			existing.LinesDeleted += v.LinesDeleted
			existing.LinesMoved += v.LinesMoved
			existing.Commits += v.Commits
			existing.FilesChanged += v.FilesChanged
			existing.ActiveDayN += v.ActiveDayN
			out.WeeklyVelocity[wk] = existing
		}
	}
	for wk, v := range out.WeeklyVelocity {
		if v.ActiveDayN > 0 {
			v.VelocityPerDay = v.DiffDelta / float64(v.ActiveDayN)
		}
		out.WeeklyVelocity[wk] = v
	}
	return out
}
