// Package weekly computes the WeekKey spec.md §3 defines (the Monday of a
// commit's week, as a YYYY-MM-DD string) and filters commits into a
// [since, to] range.
package weekly

import "time"

// MondayKey returns the Monday of t's week, formatted YYYY-MM-DD (UTC),
// per spec.md §3's WeekKey definition. All weekly buckets are keyed by
// this string so a commit never contributes to two weekly buckets (I5).
func MondayKey(t time.Time) string {
	t = t.UTC()
	// time.Weekday: Sunday=0 ... Saturday=6. Days since Monday: 0 for
	// Monday, 6 for Sunday.
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysSinceMonday)
	return monday.Format("2006-01-02")
}

// InRange reports whether t falls within [since, to], treating a nil bound
// as unbounded on that side.
func InRange(t time.Time, since, to *time.Time) bool {
	if since != nil && t.Before(*since) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
