package metrics

import (
	"time"

	"github.com/panbanda/devpulse/internal/classify"
)

const (
	unrealisticCommitLines    = 5000
	unrealisticBurstLines     = 1000
	unrealisticBurstInterval  = 10 * time.Minute
)

// MeaningfulCodeSnapshot is the §4.2.10 snapshot.
type MeaningfulCodeSnapshot struct {
	MeaningfulLines    int `json:"meaningful_lines"`
	SkippedLines       int `json:"skipped_lines"`
	UnrealisticCommits int `json:"unrealistic_commits"`
}

// MeaningfulCode wraps file-kind classification (shared with
// QualityCornerstones) and counts, for non-test/non-doc files, lines that
// pass classify.Meaningful and are not auto-generated. Commits that look
// unrealistic (too large, or suspiciously fast bursts from one author) are
// excluded from the meaningful totals and their lines tallied separately.
type MeaningfulCode struct {
	base
	meaningful, skipped, unrealistic int
	lastCommitByAuthor               map[string]time.Time
}

func NewMeaningfulCode() *MeaningfulCode {
	return &MeaningfulCode{lastCommitByAuthor: make(map[string]time.Time)}
}

func (a *MeaningfulCode) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}

	total := v.Commit.Insertions + v.Commit.Deletions
	author := v.Commit.Author.Email
	when := v.Commit.Author.When

	unrealistic := total > unrealisticCommitLines
	if !unrealistic {
		if last, ok := a.lastCommitByAuthor[author]; ok {
			if when.Sub(last) <= unrealisticBurstInterval && total > unrealisticBurstLines {
				unrealistic = true
			}
		}
	}
	a.lastCommitByAuthor[author] = when

	if unrealistic {
		a.unrealistic++
		a.skipped += total
		return nil
	}

	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		isTest, isDoc := fileKind(path)
		if isTest || isDoc {
			continue
		}
		ext := classify.Ext(path)
		for _, e := range fe.Events {
			if e.Kind != classify.EventAdded {
				continue
			}
			if classify.AutoGenerated(e.Text) {
				continue
			}
			if classify.Meaningful(e.Text, ext) {
				a.meaningful++
			}
		}
	}
	return nil
}

func (a *MeaningfulCode) Snapshot() MeaningfulCodeSnapshot {
	a.markSnapshotted()
	return MeaningfulCodeSnapshot{
		MeaningfulLines:    a.meaningful,
		SkippedLines:       a.skipped,
		UnrealisticCommits: a.unrealistic,
	}
}

// MergeMeaningfulCode sums the three counters. The >5000-line rule does not
// depend on which chunk processed a commit; the burst rule compares a
// commit only with the same author's previous commit in the same chunk, so
// a burst that straddles a chunk boundary is not flagged.
func MergeMeaningfulCode(snaps ...MeaningfulCodeSnapshot) MeaningfulCodeSnapshot {
	var out MeaningfulCodeSnapshot
	for _, s := range snaps {
		out.MeaningfulLines += s.MeaningfulLines
		out.SkippedLines += s.SkippedLines
		out.UnrealisticCommits += s.UnrealisticCommits
	}
	return out
}
