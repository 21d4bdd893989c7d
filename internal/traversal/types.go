// Package traversal implements the repository traversal driver (spec.md
// §4.4, "C4"): a two-pass walk over a repository's commit history that
// streams commit summaries to a JSON writer while fanning each commit out
// to the metrics registry for the overall bucket and whichever week bucket
// it falls into.
package traversal

import (
	"github.com/panbanda/devpulse/internal/metrics"
	"github.com/panbanda/devpulse/internal/vcs"
)

// SignatureJSON is the {name,email} shape spec.md §6 uses for both author
// and committer.
type SignatureJSON struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DiffLineJSON is one line of a parsed diff, per spec.md §6
// "diff_parsed:{added,deleted}".
type DiffLineJSON struct {
	LineNo int    `json:"line_no"`
	Line   string `json:"line"`
}

// ModifiedFileJSON is the per-file shape inside a commit summary's
// modified_files array (spec.md §6). methods/changed_methods/nloc/
// complexity/token_count are always zero-valued: devpulse has no AST
// analyzer (that's a dropped teacher capability, see DESIGN.md), but the
// fields are kept so downstream consumers built against the original
// schema don't have to special-case their absence.
type ModifiedFileJSON struct {
	OldPath      string         `json:"old_path"`
	NewPath      string         `json:"new_path"`
	Filename     string         `json:"filename"`
	ChangeType   string         `json:"change_type"`
	AddedLines   int            `json:"added_lines"`
	DeletedLines int            `json:"deleted_lines"`
	Diff         string         `json:"diff"`
	DiffParsed   DiffParsedJSON `json:"diff_parsed"`
	Methods        []string `json:"methods"`
	ChangedMethods []string `json:"changed_methods"`
	NLOC           int      `json:"nloc"`
	Complexity     int      `json:"complexity"`
	TokenCount     int      `json:"token_count"`
}

// DiffParsedJSON splits a file's diff lines into added/deleted, per
// spec.md §6.
type DiffParsedJSON struct {
	Added   []DiffLineJSON `json:"added"`
	Deleted []DiffLineJSON `json:"deleted"`
}

// CommitSummary is one element of the commit_stream array (spec.md §6).
type CommitSummary struct {
	Hash          string             `json:"hash"`
	Author        SignatureJSON      `json:"author"`
	Committer     SignatureJSON      `json:"committer"`
	AuthorDate    string             `json:"author_date"`
	CommitterDate string             `json:"committer_date"`
	Branches      []string           `json:"branches"`
	InMainBranch  bool               `json:"in_main_branch"`
	Merge         bool               `json:"merge"`
	Parents       []string           `json:"parents"`
	ProjectName   string             `json:"project_name"`
	ProjectPath   string             `json:"project_path"`
	Insertions    int                `json:"insertions"`
	Deletions     int                `json:"deletions"`
	Lines         int                `json:"lines"`
	Files         int                `json:"files"`
	ModifiedFiles []ModifiedFileJSON `json:"modified_files"`
}

// AnalysisPeriod is spec.md §6's analysis_period sub-object.
type AnalysisPeriod struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	FullHistory bool   `json:"full_history"`
}

// Header is the portion of the output document written before the
// commit_stream array, per spec.md §4.4 step 2 "write header".
type Header struct {
	ProjectName    string         `json:"project_name"`
	RepositoryURL  string         `json:"repository_url"`
	RepositoryName string         `json:"repository_name"`
	Ecosystem      string         `json:"ecosystem"`
	RepoCategory   string         `json:"repo_category"`
	AnalysisPeriod AnalysisPeriod `json:"analysis_period"`
}

// Processing is spec.md §6's trailing "processing" totals sub-object.
type Processing struct {
	TotalCommits      int `json:"total_commits"`
	TotalLinesAdded   int `json:"total_lines_added"`
	TotalLinesRemoved int `json:"total_lines_removed"`
}

// Result is the fully assembled in-memory form of one traversal; the
// streaming writer emits its fields in document order without ever holding
// the whole commits slice resident in normal operation (see driver.go).
type Result struct {
	Header         Header
	Commits        []CommitSummary
	OverallSnapshot metrics.Snapshot
	WeeklySnapshots map[string]metrics.Snapshot
	Processing     Processing
}

// toCommitSummary converts the engine's domain Commit into the JSON-facing
// CommitSummary, mirroring the teacher's churn.go habit of building a flat
// output DTO from the richer internal type right before serialization.
func toCommitSummary(c vcs.Commit, projectName, projectPath string) CommitSummary {
	cs := CommitSummary{
		Hash:          c.Hash,
		Author:        SignatureJSON{Name: c.Author.Name, Email: c.Author.Email},
		Committer:     SignatureJSON{Name: c.Committer.Name, Email: c.Committer.Email},
		AuthorDate:    c.Author.When.Format("2006-01-02T15:04:05Z07:00"),
		CommitterDate: c.Committer.When.Format("2006-01-02T15:04:05Z07:00"),
		InMainBranch:  true,
		Merge:         c.Merge,
		Parents:       c.ParentHashes,
		ProjectName:   projectName,
		ProjectPath:   projectPath,
		Insertions:    c.Insertions,
		Deletions:     c.Deletions,
		Lines:         c.Insertions + c.Deletions,
		Files:         len(c.ModifiedFiles),
	}
	cs.ModifiedFiles = make([]ModifiedFileJSON, 0, len(c.ModifiedFiles))
	for _, mf := range c.ModifiedFiles {
		cs.ModifiedFiles = append(cs.ModifiedFiles, ModifiedFileJSON{
			OldPath:      mf.OldPath,
			NewPath:      mf.NewPath,
			Filename:     mf.Filename(),
			ChangeType:   mf.ChangeType.String(),
			AddedLines:   mf.AddedLines,
			DeletedLines: mf.DeletedLines,
			Diff:         renderUnifiedDiff(mf),
			DiffParsed:   diffParsedFrom(mf),
		})
	}
	return cs
}

func diffParsedFrom(mf vcs.ModifiedFile) DiffParsedJSON {
	dp := DiffParsedJSON{
		Added:   make([]DiffLineJSON, 0, len(mf.Added)),
		Deleted: make([]DiffLineJSON, 0, len(mf.Deleted)),
	}
	for _, l := range mf.Added {
		dp.Added = append(dp.Added, DiffLineJSON{LineNo: l.LineNo, Line: l.Text})
	}
	for _, l := range mf.Deleted {
		dp.Deleted = append(dp.Deleted, DiffLineJSON{LineNo: l.LineNo, Line: l.Text})
	}
	return dp
}

// renderUnifiedDiff reconstructs a minimal +/- diff text from the parsed
// line lists. This is a synthetic approximation (hunk headers and context
// lines are not preserved by this package's Tree abstraction), documented
// in DESIGN.md alongside the rename/copy detection gap.
func renderUnifiedDiff(mf vcs.ModifiedFile) string {
	if mf.Oversize {
		return ""
	}
	var out []byte
	for _, l := range mf.Deleted {
		out = append(out, '-')
		out = append(out, l.Text...)
		out = append(out, '\n')
	}
	for _, l := range mf.Added {
		out = append(out, '+')
		out = append(out, l.Text...)
		out = append(out, '\n')
	}
	return string(out)
}
