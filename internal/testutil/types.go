package testutil

import "time"

// ExecutionRecord holds the start and end times for a single command's
// execution. Overlapping records prove two cells really ran concurrently.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two execution windows intersect.
func (r ExecutionRecord) Overlaps(other ExecutionRecord) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}
