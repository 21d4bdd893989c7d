// Package report implements spec.md §6's per-repo output document: the
// JSON object a mining run produces, and the streaming writer that appends
// its trailing fields after internal/traversal or internal/chunking have
// already streamed the header and commits array.
//
// Grounded on the teacher's internal/output.Formatter (render-dispatch by
// format, JSON/table/markdown), generalized here from "render one
// Renderable value" to "stream a growing commit array plus a bounded
// trailing object" — the part of the document this package owns never
// needs table/markdown rendering, only JSON, since it is the machine-
// readable artifact downstream tooling consumes.
package report

import (
	"encoding/json"

	"github.com/panbanda/devpulse/internal/aggregate"
	"github.com/panbanda/devpulse/internal/metrics"
)

// MetricsType is spec.md §6's "metrics_type": "weekly" | "overall".
type MetricsType string

const (
	MetricsTypeWeekly  MetricsType = "weekly"
	MetricsTypeOverall MetricsType = "overall"
)

// ProductivityJSON is spec.md §6's per-week "productivity" group.
type ProductivityJSON struct {
	ChangeSet              metrics.ChangeSetSnapshot    `json:"change_set"`
	CommitsCount           metrics.CommitsCountSnapshot `json:"commits_count"`
	ContributorsCount      map[string]int               `json:"contributors_count"`
	ContributorsExperience map[string]int               `json:"contributors_experience"`
	HunksCount             metrics.HunksSnapshot        `json:"hunks_count"`
	LinesCount             metrics.LinesSnapshot        `json:"lines_count"`
}

// QualityJSON is spec.md §6's per-week "quality" group.
type QualityJSON struct {
	CodeChurn    metrics.ChurnSnapshot         `json:"code_churn"`
	Bugs         metrics.BugsSnapshot          `json:"bugs"`
	CodeMovement metrics.CodeMovementSnapshot  `json:"code_movement"`
	TestDocPct   metrics.QualitySnapshot       `json:"test_doc_pct"`
	MeaningfulCode metrics.MeaningfulCodeSnapshot `json:"meaningful_code"`
}

// TimingsJSON is spec.md §6's per-week "timings" group.
type TimingsJSON struct {
	DiffDelta                 map[string]metrics.DiffDeltaSnapshot      `json:"diff_delta"`
	CodeProvenance             metrics.CodeProvenanceSnapshot           `json:"code_provenance"`
	DeveloperHours             map[string]metrics.DeveloperHoursSnapshot `json:"developer_hours"`
	CodeDomain                 map[string]metrics.CodeDomainSnapshot    `json:"code_domain"`
	ComprehensiveTimeAnalysis  map[string]metrics.TimeAnalysisSnapshot  `json:"comprehensive_time_analysis"`
}

// WeekMetrics is one entry of spec.md §6's process_metrics object — either
// a week bucket (keyed by its Monday date) or the overall bucket, both
// built from the same metrics.Snapshot shape.
type WeekMetrics struct {
	Productivity ProductivityJSON `json:"productivity"`
	Quality      QualityJSON      `json:"quality"`
	Timings      TimingsJSON      `json:"timings"`
}

// weekMetricsFrom converts one registry snapshot into its JSON form.
func weekMetricsFrom(snap metrics.Snapshot) WeekMetrics {
	return WeekMetrics{
		Productivity: ProductivityJSON{
			ChangeSet:              snap.ChangeSet,
			CommitsCount:           snap.CommitsCount,
			ContributorsCount:      snap.Contributors.Total,
			ContributorsExperience: snap.Contributors.Minor,
			HunksCount:             snap.Hunks,
			LinesCount:             snap.Lines,
		},
		Quality: QualityJSON{
			CodeChurn:      snap.Churn,
			Bugs:           snap.Bugs,
			CodeMovement:   snap.Movement,
			TestDocPct:     snap.Quality,
			MeaningfulCode: snap.Meaningful,
		},
		Timings: TimingsJSON{
			DiffDelta:                snap.DiffDelta,
			CodeProvenance:           snap.Provenance,
			DeveloperHours:           snap.DeveloperHours,
			CodeDomain:               snap.Domain,
			ComprehensiveTimeAnalysis: snap.TimeAnalysis,
		},
	}
}

// ProcessMetrics is spec.md §6's "process_metrics" object: a flat JSON
// object mixing week-date keys with one literal "developer_stats" key.
// Custom-marshaled (rather than a plain struct) because Go's json package
// has no way to interleave a map's dynamic keys with one fixed key inside
// a single object.
type ProcessMetrics struct {
	Weeks          map[string]WeekMetrics
	DeveloperStats map[string]aggregate.DeveloperRecord
}

// BuildProcessMetrics assembles the process_metrics object from a
// traversal result's weekly snapshots (or, for an overall-only run, just
// the overall bucket) and the aggregator's developer_stats table.
func BuildProcessMetrics(weeklySnapshots map[string]metrics.Snapshot, developers map[string]aggregate.DeveloperRecord) ProcessMetrics {
	weeks := make(map[string]WeekMetrics, len(weeklySnapshots))
	for week, snap := range weeklySnapshots {
		weeks[week] = weekMetricsFrom(snap)
	}
	return ProcessMetrics{Weeks: weeks, DeveloperStats: developers}
}

func (p ProcessMetrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Weeks)+1)
	for week, wm := range p.Weeks {
		out[week] = wm
	}
	out["developer_stats"] = p.DeveloperStats
	return json.Marshal(out)
}
