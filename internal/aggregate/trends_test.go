package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func weeks(vals ...float64) []DeveloperWeekRecord {
	base := []string{
		"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22",
		"2024-01-29", "2024-02-05", "2024-02-12", "2024-02-19",
	}
	out := make([]DeveloperWeekRecord, len(vals))
	for i, v := range vals {
		out[i] = DeveloperWeekRecord{Week: base[i], DiffDelta: v}
	}
	return out
}

func TestVelocityTrend_ZeroWithNoOlderWindow(t *testing.T) {
	assert.Equal(t, 0.0, velocityTrend(weeks(10, 20, 30)))
}

func TestVelocityTrend_PositiveWhenRecentHigher(t *testing.T) {
	w := weeks(10, 10, 10, 10, 20, 20, 20, 20)
	got := velocityTrend(w)
	assert.InDelta(t, 100.0, got, 0.001)
}

func TestVelocityConsistency_PerfectlySteadyIsHundred(t *testing.T) {
	w := weeks(10, 10, 10, 10, 10, 10, 10, 10)
	assert.InDelta(t, 100.0, velocityConsistency(w), 0.001)
}

func TestVelocityConsistency_FloorsAtZero(t *testing.T) {
	w := weeks(1, 1000, 1, 1000, 1, 1000, 1, 1000)
	got := velocityConsistency(w)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestActivityRate_FullyActiveSpan(t *testing.T) {
	w := weeks(1, 1, 1, 1)
	assert.InDelta(t, 100.0, activityRate(w), 0.001)
}

func TestActivityRate_GapsLowerTheRate(t *testing.T) {
	w := []DeveloperWeekRecord{
		{Week: "2024-01-01", DiffDelta: 1},
		{Week: "2024-01-29", DiffDelta: 1},
	}
	// 5 calendar weeks span, 2 active -> 40%.
	assert.InDelta(t, 40.0, activityRate(w), 0.001)
}
