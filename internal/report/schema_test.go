package report

import (
	"encoding/json"
	"testing"

	"github.com/panbanda/devpulse/internal/aggregate"
	"github.com/panbanda/devpulse/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProcessMetrics_MarshalsWeeksAndDeveloperStats(t *testing.T) {
	weekly := map[string]metrics.Snapshot{
		"2024-01-01": {
			ChangeSet: metrics.ChangeSetSnapshot{Max: 3, Avg: 2, Count: 1},
		},
	}
	developers := map[string]aggregate.DeveloperRecord{
		"ada@example.com": {
			Summary: aggregate.DeveloperSummary{TotalLinesAdded: 10, WorkPatternType: "consistent"},
		},
	}

	pm := BuildProcessMetrics(weekly, developers)
	b, err := json.Marshal(pm)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &decoded))

	_, hasWeek := decoded["2024-01-01"]
	assert.True(t, hasWeek)

	var devStats map[string]aggregate.DeveloperRecord
	require.NoError(t, json.Unmarshal(decoded["developer_stats"], &devStats))
	assert.Equal(t, 10, devStats["ada@example.com"].Summary.TotalLinesAdded)
}

func TestWeekMetricsFrom_MapsEveryGroup(t *testing.T) {
	snap := metrics.Snapshot{
		ChangeSet:      metrics.ChangeSetSnapshot{Max: 1},
		CommitsCount:   metrics.CommitsCountSnapshot{"a.go": 2},
		Contributors:   metrics.ContributorsSnapshot{Total: map[string]int{"a.go": 1}, Minor: map[string]int{"a.go": 0}},
		Hunks:          metrics.HunksSnapshot{"a.go": 1.5},
		Lines:          metrics.LinesSnapshot{Added: map[string]metrics.LineSeriesSnapshot{}, Removed: map[string]metrics.LineSeriesSnapshot{}},
		Churn:          metrics.ChurnSnapshot{Added: 3},
		Bugs:           metrics.BugsSnapshot{TotalBugLines: 1},
		Movement:       metrics.CodeMovementSnapshot{MovedLines: 1},
		Quality:        metrics.QualitySnapshot{QualityScore: 50},
		Meaningful:     metrics.MeaningfulCodeSnapshot{MeaningfulLines: 4},
		DiffDelta:      map[string]metrics.DiffDeltaSnapshot{"ada": {TotalDiffDelta: 5}},
		Provenance:     metrics.CodeProvenanceSnapshot{},
		DeveloperHours: map[string]metrics.DeveloperHoursSnapshot{"ada": {TotalSessions: 2}},
		Domain:         map[string]metrics.CodeDomainSnapshot{"ada": {Totals: map[metrics.Domain]int{metrics.DomainBackend: 4}}},
		TimeAnalysis:   map[string]metrics.TimeAnalysisSnapshot{},
	}

	wm := weekMetricsFrom(snap)
	assert.Equal(t, 1, wm.Productivity.ChangeSet.Max)
	assert.Equal(t, 2, wm.Productivity.CommitsCount["a.go"])
	assert.Equal(t, 3, wm.Quality.CodeChurn.Added)
	assert.Equal(t, 1, wm.Quality.Bugs.TotalBugLines)
	assert.Equal(t, 5.0, wm.Timings.DiffDelta["ada"].TotalDiffDelta)
	assert.Equal(t, 2, wm.Timings.DeveloperHours["ada"].TotalSessions)
}
