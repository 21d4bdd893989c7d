package metrics

import (
	"time"

	"github.com/panbanda/devpulse/internal/classify"
	"github.com/panbanda/devpulse/internal/weekly"
)

const (
	provenanceRecentDays = 30
	provenanceOldDays    = 365
)

// ProvenanceCounts is the raw per-bucket line counts CodeProvenance tracks,
// plus their percentages of the bucket total (§4.2.12).
type ProvenanceCounts struct {
	NewCode    int `json:"new_code"`
	RecentCode int `json:"recent_code"`
	OldCode    int `json:"old_code"`
	LegacyCode int `json:"legacy_code"`
}

func (c ProvenanceCounts) total() int {
	return c.NewCode + c.RecentCode + c.OldCode + c.LegacyCode
}

// ProvenancePercentages is ProvenanceCounts expressed as percentages.
type ProvenancePercentages struct {
	NewCode    float64 `json:"new_code"`
	RecentCode float64 `json:"recent_code"`
	OldCode    float64 `json:"old_code"`
	LegacyCode float64 `json:"legacy_code"`
}

func percentagesOf(c ProvenanceCounts) ProvenancePercentages {
	total := c.total()
	if total == 0 {
		return ProvenancePercentages{}
	}
	f := float64(total)
	return ProvenancePercentages{
		NewCode:    100 * float64(c.NewCode) / f,
		RecentCode: 100 * float64(c.RecentCode) / f,
		OldCode:    100 * float64(c.OldCode) / f,
		LegacyCode: 100 * float64(c.LegacyCode) / f,
	}
}

// ProvenanceWeek bundles one developer-week's raw counts and percentages.
type ProvenanceWeek struct {
	Counts      ProvenanceCounts      `json:"counts"`
	Percentages ProvenancePercentages `json:"percentages"`
}

// CodeProvenanceSnapshot maps developer email to week key to ProvenanceWeek.
type CodeProvenanceSnapshot map[string]map[string]ProvenanceWeek

type lineOccupant struct {
	when   time.Time
	author string
}

// CodeProvenance classifies each added code-file line by the age of the
// slot's previous occupant, maintaining a line-history table per spec.md
// §3 ("Line-history table") scoped to a single repo's traversal. This
// replaces the teacher's pkg/analyzer/ownership `git blame`-at-HEAD
// snapshot with in-run line-history aging, since the engine never shells
// out to blame.
type CodeProvenance struct {
	base
	cfg     Config
	history map[string]map[int]lineOccupant // file -> line_no -> occupant
	counts  map[string]map[string]*ProvenanceCounts // author -> week -> counts
}

func NewCodeProvenance(cfg Config) *CodeProvenance {
	return &CodeProvenance{
		cfg:     cfg,
		history: make(map[string]map[int]lineOccupant),
		counts:  make(map[string]map[string]*ProvenanceCounts),
	}
}

func (a *CodeProvenance) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	author := v.Commit.Author.Email
	when := v.Commit.Author.When
	week := weekly.MondayKey(when)

	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		ext := classify.Ext(path)
		if _, ok := codeExtensions[ext]; !ok {
			continue
		}

		slots, ok := a.history[path]
		if !ok {
			slots = make(map[int]lineOccupant)
			a.history[path] = slots
			a.bootstrapFileHistory(slots, fe.File.Before, ext, when)
		}

		for _, e := range fe.Events {
			switch e.Kind {
			case classify.EventDeleted:
				delete(slots, e.LineNo)
			case classify.EventAdded:
				bucket := a.classifyAge(slots, e.LineNo, when)
				a.record(author, week, bucket)
				slots[e.LineNo] = lineOccupant{when: when, author: author}
			}
		}
	}
	return nil
}

// bootstrapFileHistory seeds a slot for every pre-existing meaningful line
// the first time a file is touched, stamped cfg.ProvenanceBootstrapAge days
// old with author "unknown" (§4.2.12, ground truth in the original
// implementation's _initialize_file_history: it assumes >30-day-old code
// for lines it has no real history for, rather than miscounting them as
// "new"). before is the file's pre-commit content, line-numbered from 1;
// it is nil for adds, renames, and oversize files, which leaves every line
// genuinely "new" on first touch, same as before this bootstrap existed.
func (a *CodeProvenance) bootstrapFileHistory(slots map[int]lineOccupant, before []string, ext string, when time.Time) {
	if len(before) == 0 {
		return
	}
	stamp := when.AddDate(0, 0, -a.cfg.ProvenanceBootstrapAge)
	for i, text := range before {
		if !classify.Meaningful(text, ext) {
			continue
		}
		slots[i+1] = lineOccupant{when: stamp, author: "unknown"}
	}
}

func (a *CodeProvenance) classifyAge(slots map[int]lineOccupant, lineNo int, when time.Time) string {
	prev, existed := slots[lineNo]
	if !existed {
		return "new"
	}
	age := when.Sub(prev.when)
	switch {
	case age <= provenanceRecentDays*24*time.Hour:
		return "recent"
	case age <= provenanceOldDays*24*time.Hour:
		return "old"
	default:
		return "legacy"
	}
}

func (a *CodeProvenance) record(author, week, bucket string) {
	byWeek, ok := a.counts[author]
	if !ok {
		byWeek = make(map[string]*ProvenanceCounts)
		a.counts[author] = byWeek
	}
	c, ok := byWeek[week]
	if !ok {
		c = &ProvenanceCounts{}
		byWeek[week] = c
	}
	switch bucket {
	case "new":
		c.NewCode++
	case "recent":
		c.RecentCode++
	case "old":
		c.OldCode++
	case "legacy":
		c.LegacyCode++
	}
}

func (a *CodeProvenance) Snapshot() CodeProvenanceSnapshot {
	a.markSnapshotted()
	out := make(CodeProvenanceSnapshot, len(a.counts))
	for author, byWeek := range a.counts {
		weeks := make(map[string]ProvenanceWeek, len(byWeek))
		for week, c := range byWeek {
			weeks[week] = ProvenanceWeek{Counts: *c, Percentages: percentagesOf(*c)}
		}
		out[author] = weeks
	}
	return out
}

// MergeCodeProvenance sums raw counts per developer-week and recomputes
// percentages, per spec.md §4.2.12.
func MergeCodeProvenance(snaps ...CodeProvenanceSnapshot) CodeProvenanceSnapshot {
	sums := make(map[string]map[string]ProvenanceCounts)
	for _, s := range snaps {
		for author, byWeek := range s {
			dst, ok := sums[author]
			if !ok {
				dst = make(map[string]ProvenanceCounts)
				sums[author] = dst
			}
			for week, wk := range byWeek {
				c := dst[week]
				c.NewCode += wk.Counts.NewCode
				c.RecentCode += wk.Counts.RecentCode
				c.OldCode += wk.Counts.OldCode
				c.LegacyCode += wk.Counts.LegacyCode
				dst[week] = c
			}
		}
	}
	out := make(CodeProvenanceSnapshot, len(sums))
	for author, byWeek := range sums {
		weeks := make(map[string]ProvenanceWeek, len(byWeek))
		for week, c := range byWeek {
			weeks[week] = ProvenanceWeek{Counts: c, Percentages: percentagesOf(c)}
		}
		out[author] = weeks
	}
	return out
}
