package metrics

import (
	"strings"

	"github.com/panbanda/devpulse/internal/classify"
)

// movedLineMinLen is the §4.2.8 minimum stripped-text length for move
// detection (distinguishes a relocated chunk of logic from a one-token
// coincidence like a closing brace).
const movedLineMinLen = 5

// CodeMovementSnapshot is the §4.2.8 snapshot.
type CodeMovementSnapshot struct {
	MovedLines        int     `json:"moved_lines"`
	CopyPastedLines   int     `json:"copy_pasted_lines"`
	TotalChangedLines int     `json:"total_changed_lines"`
	MovedPercent      float64 `json:"moved_percent"`
	CopyPastedPercent float64 `json:"copy_pasted_percent"`
}

// CodeMovement detects, within each commit, lines that moved between files
// and lines that were copy-pasted (added more than once with no matching
// deletion), generalizing the teacher's pkg/analyzer/temporal cross-file
// pairwise co-change detection to line-text identity instead of file-pair
// co-change.
type CodeMovement struct {
	base
	moved, copyPasted, total int
}

func NewCodeMovement() *CodeMovement { return &CodeMovement{} }

func (a *CodeMovement) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}

	type deletion struct{ file string }
	deletedOrigin := make(map[string]deletion)
	addedCount := make(map[string]int)
	var addedEvents []struct {
		file, text string
	}

	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		a.total += fe.File.AddedLines + fe.File.DeletedLines
		for _, e := range fe.Events {
			stripped := strings.TrimSpace(e.Text)
			if len(stripped) <= movedLineMinLen {
				continue
			}
			switch e.Kind {
			case classify.EventDeleted:
				if _, ok := deletedOrigin[stripped]; !ok {
					deletedOrigin[stripped] = deletion{file: path}
				}
			case classify.EventAdded:
				addedCount[stripped]++
				addedEvents = append(addedEvents, struct{ file, text string }{path, stripped})
			}
		}
	}

	for _, ae := range addedEvents {
		if origin, ok := deletedOrigin[ae.text]; ok && origin.file != ae.file {
			a.moved++
		}
	}
	for text, n := range addedCount {
		if n < 2 {
			continue
		}
		if _, deleted := deletedOrigin[text]; deleted {
			continue
		}
		a.copyPasted += n - 1
	}

	return nil
}

func (a *CodeMovement) Snapshot() CodeMovementSnapshot {
	a.markSnapshotted()
	snap := CodeMovementSnapshot{MovedLines: a.moved, CopyPastedLines: a.copyPasted, TotalChangedLines: a.total}
	if a.total > 0 {
		snap.MovedPercent = 100 * float64(a.moved) / float64(a.total)
		snap.CopyPastedPercent = 100 * float64(a.copyPasted) / float64(a.total)
	}
	return snap
}

// MergeCodeMovement sums raw counts and recomputes percentages.
func MergeCodeMovement(snaps ...CodeMovementSnapshot) CodeMovementSnapshot {
	var out CodeMovementSnapshot
	for _, s := range snaps {
		out.MovedLines += s.MovedLines
		out.CopyPastedLines += s.CopyPastedLines
		out.TotalChangedLines += s.TotalChangedLines
	}
	if out.TotalChangedLines > 0 {
		out.MovedPercent = 100 * float64(out.MovedLines) / float64(out.TotalChangedLines)
		out.CopyPastedPercent = 100 * float64(out.CopyPastedLines) / float64(out.TotalChangedLines)
	}
	return out
}
