// Package schedule contains the time-range arithmetic used when placing
// screenings into rooms.  A screening occupies the half-open interval
// [starts_at, ends_at) where the end is always derived from the film runtime
// plus a fixed cleanup buffer; rooms are considered free again exactly at
// ends_at, so back-to-back screenings may touch without conflicting.
package schedule

import "time"

// CleanupMinutes is the fixed buffer appended after a film's runtime before
// the room is considered free again.
const CleanupMinutes = 30

// ComputeEnd derives a screening's end time from its start, the film runtime
// and a buffer, all in minutes.  It has no side effects.
func ComputeEnd(start time.Time, durationMinutes, bufferMinutes int) time.Time {
	return start.Add(time.Duration(durationMinutes+bufferMinutes) * time.Minute)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.  Adjacent intervals (aEnd == bStart) do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
