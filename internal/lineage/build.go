// Package lineage builds the dependency DAG that the critical path analysis
// runs over. Construction validates its inputs eagerly: duplicate ids,
// dependencies naming unknown tasks, and cycles are all fatal here rather
// than surfacing mid-schedule.
package lineage

import (
	"fmt"
	"sort"

	"github.com/borjavb/slatraker/internal/ingest"
)

// Build constructs a Graph from task and dependency records. It does not
// mutate its inputs, and on any validation failure returns a nil graph.
func Build(tasks []ingest.TaskRecord, deps []ingest.DepRecord) (*Graph, error) {
	g := &Graph{
		Tasks:  make(map[string]*Task),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
	}

	for i := range tasks {
		tr := &tasks[i]
		if _, exists := g.Tasks[tr.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, tr.ID)
		}
		g.Tasks[tr.ID] = &Task{
			ID:          tr.ID,
			Name:        tr.Name,
			Type:        tr.Type,
			Start:       tr.Start,
			End:         tr.End,
			Duration:    tr.Duration,
			HasDuration: tr.HasDuration,
		}
	}

	// Dedupe edges; artifact sources routinely repeat them.
	edgeSet := make(map[[2]string]bool)
	for _, d := range deps {
		if _, ok := g.Tasks[d.Upstream]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrDanglingReference, d.Upstream)
		}
		if _, ok := g.Tasks[d.Downstream]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrDanglingReference, d.Downstream)
		}
		key := [2]string{d.Upstream, d.Downstream}
		if edgeSet[key] {
			continue
		}
		edgeSet[key] = true
		g.Adj[d.Upstream] = append(g.Adj[d.Upstream], d.Downstream)
		g.RevAdj[d.Downstream] = append(g.RevAdj[d.Downstream], d.Upstream)
	}

	// Sort adjacency lists for deterministic ordering
	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}

	for id := range g.Tasks {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}
	sort.Strings(g.Roots)
	sort.Strings(g.Leaves)

	if cycle := g.detectCycle(); cycle != nil {
		return nil, &CycleError{Nodes: cycle}
	}

	return g, nil
}

// detectCycle returns the cycle path if one exists, or nil if the graph is
// acyclic. Uses DFS with coloring: white (unvisited), gray (in progress),
// black (done).
func (g *Graph) detectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				// Found a cycle, reconstruct it
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				// Reverse to get forward order
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	// Sort keys for deterministic detection
	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
