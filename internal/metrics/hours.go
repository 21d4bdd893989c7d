package metrics

import (
	"time"

	"github.com/panbanda/devpulse/internal/weekly"
)

const (
	sessionGap        = 2 * time.Hour
	sessionMinLength   = 30 * time.Minute
	sessionPrePadding  = 30 * time.Minute
	sessionPostPadding = 15 * time.Minute
	sessionHardCap     = 8 * time.Hour
)

// DeveloperHoursWeek is the per-week shape inside DeveloperHoursSnapshot.
type DeveloperHoursWeek struct {
	EstimatedHours float64              `json:"estimated_hours"`
	Sessions       int                  `json:"sessions"`
	Commits        int                  `json:"commits"`
	HoursPerDay    float64              `json:"hours_per_day"`
	activeDays     map[string]struct{}
}

// DeveloperHoursSnapshot is the §4.2.13 snapshot for one developer.
type DeveloperHoursSnapshot struct {
	TotalEstimatedHours float64                       `json:"total_estimated_hours"`
	TotalSessions       int                            `json:"total_sessions"`
	Weekly              map[string]DeveloperHoursWeek `json:"weekly"`
}

type commitMark struct {
	when    time.Time
	changes int
}

// DeveloperHours groups each developer's commits into work sessions and
// estimates hours worked per spec.md §4.2.13's scaling rules.
type DeveloperHours struct {
	base
	byAuthor map[string][]commitMark
}

func NewDeveloperHours() *DeveloperHours {
	return &DeveloperHours{byAuthor: make(map[string][]commitMark)}
}

func (a *DeveloperHours) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	author := v.Commit.Author.Email
	changes := v.Commit.Insertions + v.Commit.Deletions
	a.byAuthor[author] = append(a.byAuthor[author], commitMark{when: v.Commit.Author.When, changes: changes})
	return nil
}

// sessionsFor groups a developer's (already chronological, per I1) commit
// marks into sessions separated by gaps longer than sessionGap.
func sessionsFor(marks []commitMark) [][]commitMark {
	if len(marks) == 0 {
		return nil
	}
	var sessions [][]commitMark
	current := []commitMark{marks[0]}
	for i := 1; i < len(marks); i++ {
		if marks[i].when.Sub(marks[i-1].when) > sessionGap {
			sessions = append(sessions, current)
			current = []commitMark{marks[i]}
			continue
		}
		current = append(current, marks[i])
	}
	sessions = append(sessions, current)
	return sessions
}

func sessionHours(session []commitMark) float64 {
	first := session[0].when
	last := session[len(session)-1].when
	span := last.Sub(first) + sessionPrePadding + sessionPostPadding
	if span < sessionMinLength {
		span = sessionMinLength
	}

	var changes int
	for _, m := range session {
		changes += m.changes
	}

	hours := span.Hours()
	switch {
	case len(session) == 1:
		hours *= 0.75
	case len(session) > 10:
		hours *= 0.9
	}
	if hours > 0 {
		changesPerHour := float64(changes) / hours
		switch {
		case changesPerHour > 1000:
			hours *= 0.8
		case changesPerHour < 50:
			hours *= 1.1
		}
	}
	if hours > sessionHardCap.Hours() {
		hours = sessionHardCap.Hours()
	}
	return hours
}

func (a *DeveloperHours) snapshotOne(marks []commitMark) DeveloperHoursSnapshot {
	snap := DeveloperHoursSnapshot{Weekly: make(map[string]DeveloperHoursWeek)}
	for _, session := range sessionsFor(marks) {
		hours := sessionHours(session)
		snap.TotalEstimatedHours += hours
		snap.TotalSessions++

		week := weekly.MondayKey(session[0].when)
		wk, ok := snap.Weekly[week]
		if !ok {
			wk = DeveloperHoursWeek{activeDays: make(map[string]struct{})}
		}
		wk.EstimatedHours += hours
		wk.Sessions++
		wk.Commits += len(session)
		for _, m := range session {
			wk.activeDays[m.when.Format("2006-01-02")] = struct{}{}
		}
		snap.Weekly[week] = wk
	}
	for week, wk := range snap.Weekly {
		if n := len(wk.activeDays); n > 0 {
			wk.HoursPerDay = wk.EstimatedHours / float64(n)
		}
		snap.Weekly[week] = wk
	}
	return snap
}

// SnapshotAll returns every developer's DeveloperHoursSnapshot keyed by
// email, since the metric is inherently per-developer (§4.2.13).
func (a *DeveloperHours) SnapshotAll() map[string]DeveloperHoursSnapshot {
	a.markSnapshotted()
	out := make(map[string]DeveloperHoursSnapshot, len(a.byAuthor))
	for author, marks := range a.byAuthor {
		out[author] = a.snapshotOne(marks)
	}
	return out
}

// MergeDeveloperHours sums totals and per-week sessions/commits, keeping
// the union of active days to recompute HoursPerDay.
func MergeDeveloperHours(snaps ...DeveloperHoursSnapshot) DeveloperHoursSnapshot {
	out := DeveloperHoursSnapshot{Weekly: make(map[string]DeveloperHoursWeek)}
	dayUnion := make(map[string]map[string]struct{})
	for _, s := range snaps {
		out.TotalEstimatedHours += s.TotalEstimatedHours
		out.TotalSessions += s.TotalSessions
		for week, wk := range s.Weekly {
			existing := out.Weekly[week]
			existing.EstimatedHours += wk.EstimatedHours
			existing.Sessions += wk.Sessions
			existing.Commits += wk.Commits
			out.Weekly[week] = existing

			union, ok := dayUnion[week]
			if !ok {
				union = make(map[string]struct{})
				dayUnion[week] = union
			}
			for d := range wk.activeDays {
				union[d] = struct{}{}
			}
		}
	}
	for week, wk := range out.Weekly {
		if n := len(dayUnion[week]); n > 0 {
			wk.HoursPerDay = wk.EstimatedHours / float64(n)
		}
		out.Weekly[week] = wk
	}
	return out
}
