package cpm

import (
	"time"

	"github.com/borjavb/slatraker/internal/lineage"
)

// Window is the computed execution window of a single task.
type Window struct {
	Start time.Time
	End   time.Time
}

// ScheduledGraph is a lineage graph annotated with execution windows for
// every ancestor of the target (inclusive), anchored so that the target
// ends exactly at Anchor. Tasks outside that ancestor set carry no window.
type ScheduledGraph struct {
	Graph  *lineage.Graph
	Target string
	Anchor time.Time
	Times  map[string]Window
}

// Scheduled reports whether the task received a window, i.e. whether it is
// the target or one of its ancestors.
func (sg *ScheduledGraph) Scheduled(id string) bool {
	_, ok := sg.Times[id]
	return ok
}

// Step is one entry of the critical chain, in chronological order.
type Step struct {
	ID       string
	Name     string
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Span returns the total wall-clock span of a chain: the last entry's end
// minus the first entry's start. Zero for an empty chain.
func Span(chain []Step) time.Duration {
	if len(chain) == 0 {
		return 0
	}
	return chain[len(chain)-1].End.Sub(chain[0].Start)
}
