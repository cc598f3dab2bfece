// Package cpm schedules the ancestors of a target task and extracts the
// critical path ending at it. The whole analysis is a narrowed Critical Path
// Method: only the subgraph that can reach the target is scheduled, and only
// the single chain ending at the target is extracted.
package cpm

import (
	"fmt"
	"sort"
	"time"

	"github.com/borjavb/slatraker/internal/lineage"
)

// Schedule computes an execution window for the target and every task with a
// path to it, anchored so that the target's end lands exactly on anchor.
//
// The pass works on relative offsets first: roots of the ancestor subgraph
// start at zero, every other task starts when its slowest upstream finishes,
// and a task's end is its start plus its duration. The offsets are then
// shifted onto the wall clock so that target.End == anchor. Tasks outside
// the ancestor set are never visited and receive no window.
//
// The input graph is not mutated.
func Schedule(g *lineage.Graph, target string, anchor time.Time) (*ScheduledGraph, error) {
	if _, ok := g.Tasks[target]; !ok {
		return nil, fmt.Errorf("%w: %s", lineage.ErrUnknownTask, target)
	}

	anc := ancestorsOf(g, target)

	// Every scheduled task needs a real duration. Assuming zero here would
	// silently shrink the critical path, so fail instead. Report the
	// lexicographically first offender for stable messages.
	var missing []string
	for id := range anc {
		if !g.Tasks[id].HasDuration {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", lineage.ErrMissingDuration, missing[0])
	}

	order, err := topoOrder(g, anc)
	if err != nil {
		return nil, err
	}

	// Forward pass over relative offsets.
	start := make(map[string]time.Duration, len(anc))
	end := make(map[string]time.Duration, len(anc))
	for _, id := range order {
		var es time.Duration
		for _, up := range g.RevAdj[id] {
			if !anc[up] {
				continue
			}
			if end[up] > es {
				es = end[up]
			}
		}
		start[id] = es
		end[id] = es + g.Tasks[id].Duration
	}

	// Shift everything so the target finishes at the anchor.
	base := anchor.Add(-end[target])
	times := make(map[string]Window, len(anc))
	for id := range anc {
		times[id] = Window{
			Start: base.Add(start[id]),
			End:   base.Add(end[id]),
		}
	}

	return &ScheduledGraph{
		Graph:  g,
		Target: target,
		Anchor: anchor,
		Times:  times,
	}, nil
}

// ancestorsOf returns the target plus every task with a directed path to it,
// via a reverse reachability walk.
func ancestorsOf(g *lineage.Graph, target string) map[string]bool {
	anc := map[string]bool{target: true}
	queue := []string{target}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, up := range g.RevAdj[node] {
			if !anc[up] {
				anc[up] = true
				queue = append(queue, up)
			}
		}
	}
	return anc
}

// topoOrder performs Kahn's algorithm restricted to the given task set,
// with sorted queues for determinism. Build already rejects cyclic graphs;
// the length check here guards against a graph constructed by other means.
func topoOrder(g *lineage.Graph, within map[string]bool) ([]string, error) {
	inDegree := make(map[string]int, len(within))
	for id := range within {
		deg := 0
		for _, up := range g.RevAdj[id] {
			if within[up] {
				deg++
			}
		}
		inDegree[id] = deg
	}

	var queue []string
	for id := range within {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, down := range g.Adj[node] {
			if !within[down] {
				continue
			}
			inDegree[down]--
			if inDegree[down] == 0 {
				newReady = append(newReady, down)
			}
		}
		sort.Strings(newReady)
		queue = append(queue, newReady...)
	}

	if len(order) != len(within) {
		return nil, fmt.Errorf("%w: %d of %d tasks sorted", lineage.ErrCycle, len(order), len(within))
	}

	return order, nil
}
