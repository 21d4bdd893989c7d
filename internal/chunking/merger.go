package chunking

import (
	"bufio"
	"io"
	"os"

	"github.com/panbanda/devpulse/internal/metrics"
	"github.com/panbanda/devpulse/internal/traversal"
)

// appendChunkFiles concatenates each chunk's `commits_<id>.jsonl` array into
// w as one combined JSON array, inserting a comma between non-empty arrays.
// It keeps no element count; the commit total comes from each chunk's
// Result.Processing (see mergeResults). Each chunk file holds a complete
// `[...]` array (written by traversal.TraverseArray); this strips the
// brackets before rejoining, per spec.md §4.5 step 1.
func appendChunkFiles(paths []string, w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	wroteAny := false
	for _, p := range paths {
		inner, err := chunkFileInner(p)
		if err != nil {
			return err
		}
		if inner == "" {
			continue
		}
		if wroteAny {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, inner); err != nil {
			return err
		}
		wroteAny = true
	}
	_, err := io.WriteString(w, "]")
	return err
}

// chunkFileInner reads a `[...]` array file and returns its contents with
// the outer brackets stripped, or "" for an empty array.
func chunkFileInner(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(data) < 2 {
		return "", nil
	}
	inner := string(data[1 : len(data)-1])
	if inner == "" {
		return "", nil
	}
	return inner, nil
}

// mergeResults combines per-chunk traversal.Results into one, per spec.md
// §4.5 step 2 ("calls each accumulator's static merge with the list of
// chunk snapshots").
func mergeResults(chunks []traversal.Result) traversal.Result {
	overall := make([]metrics.Snapshot, 0, len(chunks))
	weeklyByWeek := make(map[string][]metrics.Snapshot)
	var processing traversal.Processing

	for _, c := range chunks {
		overall = append(overall, c.OverallSnapshot)
		for week, snap := range c.WeeklySnapshots {
			weeklyByWeek[week] = append(weeklyByWeek[week], snap)
		}
		processing.TotalCommits += c.Processing.TotalCommits
		processing.TotalLinesAdded += c.Processing.TotalLinesAdded
		processing.TotalLinesRemoved += c.Processing.TotalLinesRemoved
	}

	weekly := make(map[string]metrics.Snapshot, len(weeklyByWeek))
	for week, snaps := range weeklyByWeek {
		weekly[week] = metrics.MergeSnapshots(snaps...)
	}

	return traversal.Result{
		OverallSnapshot: metrics.MergeSnapshots(overall...),
		WeeklySnapshots: weekly,
		Processing:      processing,
	}
}
