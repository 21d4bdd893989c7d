package metrics

import "regexp"

// bugPatterns are the §4.2.7 bug-fix message regexes, case-insensitive.
var bugPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)fix(ed|es)? (bug|issue|problem)`),
	regexp.MustCompile(`(?i)bug fix`),
	regexp.MustCompile(`(?i)resolv(e|ed|ing) (bug|issue|problem)`),
	regexp.MustCompile(`#\d+`),
	regexp.MustCompile(`(?i)bug #?\d+`),
	regexp.MustCompile(`(?i)patch(ed|es)?`),
	regexp.MustCompile(`(?i)defect`),
	regexp.MustCompile(`(?i)debug`),
}

// IsBugFix reports whether a commit message matches any bug-fix pattern.
func IsBugFix(message string) bool {
	for _, re := range bugPatterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// BugsSnapshot is the §4.2.7 snapshot.
type BugsSnapshot struct {
	BugWorkPercentByFile  map[string]float64 `json:"bug_work_percent_by_file"`
	OverallBugWorkPercent float64            `json:"overall_bug_work_percent"`
	TotalBugLines         int                `json:"total_bug_lines"`
	TotalLines            int                `json:"total_lines"`
}

// Bugs classifies each commit by its message and tracks, per file, how many
// of its changed lines came from a bug-fixing commit.
type Bugs struct {
	base
	bugLines   map[string]int
	totalLines map[string]int
	totalBug   int
	total      int
}

func NewBugs() *Bugs {
	return &Bugs{bugLines: make(map[string]int), totalLines: make(map[string]int)}
}

func (a *Bugs) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	isBug := IsBugFix(v.Commit.Message)
	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		lines := fe.File.AddedLines + fe.File.DeletedLines
		a.totalLines[path] += lines
		a.total += lines
		if isBug {
			a.bugLines[path] += lines
			a.totalBug += lines
		}
	}
	return nil
}

func (a *Bugs) Snapshot() BugsSnapshot {
	a.markSnapshotted()
	snap := BugsSnapshot{BugWorkPercentByFile: make(map[string]float64), TotalBugLines: a.totalBug, TotalLines: a.total}
	for file, total := range a.totalLines {
		if total == 0 {
			continue
		}
		snap.BugWorkPercentByFile[file] = 100 * float64(a.bugLines[file]) / float64(total)
	}
	if a.total > 0 {
		snap.OverallBugWorkPercent = 100 * float64(a.totalBug) / float64(a.total)
	}
	return snap
}

// MergeBugs sums the raw counts and takes a per-file average of averages
// for BugWorkPercentByFile, per spec.md §4.2.7.
func MergeBugs(snaps ...BugsSnapshot) BugsSnapshot {
	out := BugsSnapshot{BugWorkPercentByFile: make(map[string]float64)}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range snaps {
		out.TotalBugLines += s.TotalBugLines
		out.TotalLines += s.TotalLines
		for file, pct := range s.BugWorkPercentByFile {
			sums[file] += pct
			counts[file]++
		}
	}
	for file, sum := range sums {
		out.BugWorkPercentByFile[file] = sum / float64(counts[file])
	}
	if out.TotalLines > 0 {
		out.OverallBugWorkPercent = 100 * float64(out.TotalBugLines) / float64(out.TotalLines)
	}
	return out
}
