package metrics

// minorShareThreshold is the §4.2.3 "minor contributor" cutoff: strictly
// less than 5% of a file's total line changes.
const minorShareThreshold = 0.05

// ContributorsSnapshot is the §4.2.3 snapshot: per-file distinct-author
// count and per-file count of authors below the minor threshold.
type ContributorsSnapshot struct {
	Total map[string]int `json:"total"`
	Minor map[string]int `json:"minor"`
}

// Contributors tracks, per file, the set of authors and their line share.
type Contributors struct {
	base
	authorsByFile map[string]map[string]int // file -> author -> lines changed
}

func NewContributors() *Contributors {
	return &Contributors{authorsByFile: make(map[string]map[string]int)}
}

func (a *Contributors) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	author := v.Commit.Author.Email
	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		lines := fe.File.AddedLines + fe.File.DeletedLines
		if lines == 0 {
			continue
		}
		byAuthor, ok := a.authorsByFile[path]
		if !ok {
			byAuthor = make(map[string]int)
			a.authorsByFile[path] = byAuthor
		}
		byAuthor[author] += lines
	}
	return nil
}

func (a *Contributors) Snapshot() ContributorsSnapshot {
	a.markSnapshotted()
	snap := ContributorsSnapshot{Total: make(map[string]int), Minor: make(map[string]int)}
	for file, byAuthor := range a.authorsByFile {
		var total int
		for _, n := range byAuthor {
			total += n
		}
		snap.Total[file] = len(byAuthor)
		if total == 0 {
			continue
		}
		var minor int
		for _, n := range byAuthor {
			if float64(n)/float64(total) < minorShareThreshold {
				minor++
			}
		}
		snap.Minor[file] = minor
	}
	return snap
}

// MergeContributors takes the per-file max of Total and sums Minor, per
// spec.md §4.2.3.
func MergeContributors(snaps ...ContributorsSnapshot) ContributorsSnapshot {
	out := ContributorsSnapshot{Total: make(map[string]int), Minor: make(map[string]int)}
	for _, s := range snaps {
		for file, n := range s.Total {
			if n > out.Total[file] {
				out.Total[file] = n
			}
		}
		for file, n := range s.Minor {
			out.Minor[file] += n
		}
	}
	return out
}
