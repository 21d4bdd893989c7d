package aggregate

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

const weekLayout = "2006-01-02"

// DeveloperTrends is spec.md §4.7's per-developer "trends" object.
type DeveloperTrends struct {
	VelocityTrendPercent float64 `json:"velocity_trend_percent"`
	VelocityConsistency  float64 `json:"velocity_consistency"`
	ActivityRatePercent  float64 `json:"activity_rate_percent"`
}

// trendsFor derives velocity trend/consistency/activity-rate from a
// developer's chronologically-sorted weekly records, the way the
// teacher's pkg/analyzer/score.ComputeTrendStats turns a slice of
// TrendPoint into regression statistics with gonum.org/v1/gonum/stat —
// generalized here from a linear-regression fit to the mean/stdev ratios
// spec.md §4.7 asks for.
func trendsFor(weekly []DeveloperWeekRecord) DeveloperTrends {
	return DeveloperTrends{
		VelocityTrendPercent: velocityTrend(weekly),
		VelocityConsistency:  velocityConsistency(weekly),
		ActivityRatePercent:  activityRate(weekly),
	}
}

// velocityTrend is the % change between the mean DiffDelta of the last 4
// weeks and the mean of the 4 weeks before that, 0 if the older window is
// empty, per spec.md §4.7.
func velocityTrend(weekly []DeveloperWeekRecord) float64 {
	n := len(weekly)
	if n == 0 {
		return 0
	}
	recent := lastNOf(weekly, 4)
	olderEnd := n - len(recent)
	older := lastNOf(weekly[:olderEnd], 4)
	if len(older) == 0 {
		return 0
	}

	meanRecent := stat.Mean(velocities(recent), nil)
	meanOlder := stat.Mean(velocities(older), nil)
	if meanOlder == 0 {
		return 0
	}
	return 100 * (meanRecent - meanOlder) / meanOlder
}

// velocityConsistency is max(0, 100 - (stdev/mean * 100)) of DiffDelta
// over the last 8 weeks, per spec.md §4.7.
func velocityConsistency(weekly []DeveloperWeekRecord) float64 {
	window := lastNOf(weekly, 8)
	if len(window) < 2 {
		return 0
	}
	vs := velocities(window)
	mean := stat.Mean(vs, nil)
	if mean == 0 {
		return 0
	}
	sd := stat.StdDev(vs, nil)
	consistency := 100 - (sd/mean)*100
	if consistency < 0 {
		return 0
	}
	return consistency
}

// activityRate is 100 * active_weeks / total_weeks, where total_weeks is
// the calendar span (inclusive) between the developer's first and last
// active week, per spec.md §4.7.
func activityRate(weekly []DeveloperWeekRecord) float64 {
	if len(weekly) == 0 {
		return 0
	}
	first, err1 := time.Parse(weekLayout, weekly[0].Week)
	last, err2 := time.Parse(weekLayout, weekly[len(weekly)-1].Week)
	if err1 != nil || err2 != nil {
		return 0
	}
	totalWeeks := int(last.Sub(first).Hours()/(24*7)) + 1
	if totalWeeks <= 0 {
		return 0
	}
	return 100 * float64(len(weekly)) / float64(totalWeeks)
}

func velocities(records []DeveloperWeekRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.DiffDelta
	}
	return out
}

func lastNOf(records []DeveloperWeekRecord, n int) []DeveloperWeekRecord {
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
