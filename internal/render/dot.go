// Package render emits graphviz DOT text for a scheduled lineage graph.
// Two layouts: a plain dependency view with the critical chain highlighted,
// and a timeline (gantt-like) view that ranks every scheduled task against
// a clock axis. Rendering the DOT into an image is the caller's business.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/borjavb/slatraker/internal/cpm"
)

// DOT returns a left-to-right dependency graph. Chain nodes and the edges
// between consecutive chain entries are drawn bold red; tasks that were
// never scheduled (not upstream of the target) are dimmed.
func DOT(sg *cpm.ScheduledGraph, chain []cpm.Step) string {
	onChain := make(map[string]bool, len(chain))
	for _, step := range chain {
		onChain[step.ID] = true
	}
	chainEdge := make(map[[2]string]bool, len(chain))
	for i := 1; i < len(chain); i++ {
		chainEdge[[2]string{chain[i-1].ID, chain[i].ID}] = true
	}

	var b strings.Builder
	b.WriteString("digraph slatraker {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n\n")

	for _, id := range sortedTaskIDs(sg) {
		task := sg.Graph.Tasks[id]
		label := id
		if task.Name != "" && task.Name != id {
			label = fmt.Sprintf("%s\\n%s", id, task.Name)
		}
		attrs := fmt.Sprintf("label=%q", label)
		switch {
		case onChain[id]:
			attrs += `, style="rounded,bold", color=red`
		case !sg.Scheduled(id):
			attrs += `, color=gray, fontcolor=gray`
		}
		fmt.Fprintf(&b, "  %q [%s];\n", id, attrs)
	}

	b.WriteString("\n")

	for _, from := range sortedTaskIDs(sg) {
		for _, to := range sg.Graph.Adj[from] {
			style := ""
			if chainEdge[[2]string{from, to}] {
				style = " [color=red, penwidth=2]"
			} else if !sg.Scheduled(from) || !sg.Scheduled(to) {
				style = " [color=gray]"
			}
			fmt.Fprintf(&b, "  %q -> %q%s;\n", from, to, style)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func sortedTaskIDs(sg *cpm.ScheduledGraph) []string {
	ids := make([]string, 0, len(sg.Graph.Tasks))
	for id := range sg.Graph.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
