package metrics

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/panbanda/devpulse/internal/classify"
)

// CoverageSnapshot is the {files, lines, percent} shape §4.2.9 uses for
// both test and doc coverage.
type CoverageSnapshot struct {
	Files   int     `json:"files"`
	Lines   int     `json:"lines"`
	Percent float64 `json:"percent"`
}

// QualitySnapshot is the §4.2.9 snapshot.
type QualitySnapshot struct {
	TestCoverage CoverageSnapshot `json:"test_coverage"`
	DocCoverage  CoverageSnapshot `json:"doc_coverage"`
	Total        int              `json:"total"`
	QualityScore float64          `json:"quality_score"`
}

// fileKind classifies a path as test, doc, or neither using the doublestar
// glob tables of SPEC_FULL.md §4.2.
func fileKind(path string) (isTest, isDoc bool) {
	base := basename(path)
	for _, p := range testPathPatterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true, false
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true, false
		}
	}
	for _, p := range docPathPatterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return false, true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return false, true
		}
	}
	return false, false
}

func basename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// QualityCornerstones tracks test and documentation coverage by file and
// by comment-line density in code files.
type QualityCornerstones struct {
	base
	testFiles, docFiles         map[string]struct{}
	testLines, docLines         int
	total                       int
	commentLines, codeFileLines int
}

func NewQualityCornerstones() *QualityCornerstones {
	return &QualityCornerstones{
		testFiles: make(map[string]struct{}),
		docFiles:  make(map[string]struct{}),
	}
}

func (a *QualityCornerstones) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		lines := fe.File.AddedLines + fe.File.DeletedLines
		a.total += lines

		isTest, isDoc := fileKind(path)
		switch {
		case isTest:
			a.testFiles[path] = struct{}{}
			a.testLines += lines
		case isDoc:
			a.docFiles[path] = struct{}{}
			a.docLines += lines
		default:
			ext := classify.Ext(path)
			a.codeFileLines += lines
			for _, e := range fe.Events {
				if e.Kind == classify.EventAdded && classify.IsComment(e.Text, ext) {
					a.commentLines++
				}
			}
		}
	}
	return nil
}

func (a *QualityCornerstones) Snapshot() QualitySnapshot {
	a.markSnapshotted()
	snap := QualitySnapshot{Total: a.total}
	snap.TestCoverage = CoverageSnapshot{Files: len(a.testFiles), Lines: a.testLines}
	snap.DocCoverage = CoverageSnapshot{Files: len(a.docFiles), Lines: a.docLines + a.commentLines}
	if a.total > 0 {
		snap.TestCoverage.Percent = 100 * float64(snap.TestCoverage.Lines) / float64(a.total)
		snap.DocCoverage.Percent = 100 * float64(snap.DocCoverage.Lines) / float64(a.total)
	}
	snap.QualityScore = (snap.TestCoverage.Percent + snap.DocCoverage.Percent) / 2
	return snap
}

func mergeCoverage(dst, src CoverageSnapshot) CoverageSnapshot {
	dst.Files += src.Files
	dst.Lines += src.Lines
	return dst
}

// MergeQuality sums files/lines and recomputes percentages and the
// composite quality score against the merged total.
func MergeQuality(snaps ...QualitySnapshot) QualitySnapshot {
	var out QualitySnapshot
	for _, s := range snaps {
		out.TestCoverage = mergeCoverage(out.TestCoverage, s.TestCoverage)
		out.DocCoverage = mergeCoverage(out.DocCoverage, s.DocCoverage)
		out.Total += s.Total
	}
	if out.Total > 0 {
		out.TestCoverage.Percent = 100 * float64(out.TestCoverage.Lines) / float64(out.Total)
		out.DocCoverage.Percent = 100 * float64(out.DocCoverage.Lines) / float64(out.Total)
	}
	out.QualityScore = (out.TestCoverage.Percent + out.DocCoverage.Percent) / 2
	return out
}
