package cpm

import (
	"time"

	"github.com/borjavb/slatraker/internal/lineage"
)

// OptimizedStep is a critical chain entry annotated with what-if data: the
// total span saved if this task were free, and the chain that would become
// critical in that case.
type OptimizedStep struct {
	Step
	Saving   time.Duration
	NextPath []string
}

// Optimize runs the schedule/extract analysis, then re-runs it once per
// chain entry with that task's duration forced to zero. The difference
// between the original span and the re-computed span is how much total
// runtime an optimisation of that single task could buy; the re-computed
// chain is what would constrain the target next.
func Optimize(g *lineage.Graph, target string, anchor time.Time) ([]OptimizedStep, error) {
	sg, err := Schedule(g, target, anchor)
	if err != nil {
		return nil, err
	}
	chain, err := Extract(sg)
	if err != nil {
		return nil, err
	}
	baseSpan := Span(chain)

	out := make([]OptimizedStep, 0, len(chain))
	for _, step := range chain {
		zeroed := withZeroDuration(g, step.ID)
		zsg, err := Schedule(zeroed, target, anchor)
		if err != nil {
			return nil, err
		}
		zchain, err := Extract(zsg)
		if err != nil {
			return nil, err
		}

		next := make([]string, len(zchain))
		for i, zs := range zchain {
			next[i] = zs.ID
		}
		out = append(out, OptimizedStep{
			Step:     step,
			Saving:   baseSpan - Span(zchain),
			NextPath: next,
		})
	}
	return out, nil
}

// withZeroDuration returns a copy of the graph in which the given task costs
// nothing. Adjacency and untouched tasks are shared: the schedulers never
// mutate them.
func withZeroDuration(g *lineage.Graph, id string) *lineage.Graph {
	tasks := make(map[string]*lineage.Task, len(g.Tasks))
	for tid, t := range g.Tasks {
		tasks[tid] = t
	}
	free := *g.Tasks[id]
	free.Duration = 0
	tasks[id] = &free

	return &lineage.Graph{
		Tasks:  tasks,
		Adj:    g.Adj,
		RevAdj: g.RevAdj,
		Roots:  g.Roots,
		Leaves: g.Leaves,
	}
}
