package ingest

import "time"

// TaskRecord is a single task as supplied by a metadata source.
type TaskRecord struct {
	ID    string
	Name  string
	Type  string
	Start time.Time
	End   time.Time

	// Duration is the observed execution cost. HasDuration is false when
	// the source knows the task but has no timing for it (e.g. a model in
	// the manifest that was skipped in the run).
	Duration    time.Duration
	HasDuration bool
}

// DepRecord is a single dependency edge: Downstream cannot start before
// Upstream finishes.
type DepRecord struct {
	Upstream   string
	Downstream string
}

// LatestEnd returns the latest end timestamp among records that carry one,
// i.e. the end of the most recently completed run. ok is false when no
// record has an end time.
func LatestEnd(tasks []TaskRecord) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, t := range tasks {
		if t.HasDuration && t.End.After(latest) {
			latest = t.End
			found = true
		}
	}
	return latest, found
}
