package lineage

import "time"

// Task is a single node in the lineage graph. Start/End are the observed
// times from the source run and are carried for display only; scheduling
// uses Duration.
type Task struct {
	ID       string
	Name     string
	Type     string
	Start    time.Time
	End      time.Time
	Duration time.Duration

	// HasDuration is false for tasks that appear in the dependency source
	// but never ran (e.g. a manifest model missing from run_results).
	HasDuration bool
}

// Graph is a directed acyclic graph of tasks. Edges point from an upstream
// task to the tasks that consume it.
type Graph struct {
	Tasks  map[string]*Task
	Adj    map[string][]string // task -> downstream tasks
	RevAdj map[string][]string // task -> upstream tasks
	Roots  []string            // tasks with no upstreams
	Leaves []string            // tasks with no downstreams
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.Tasks)
}
