package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/borjavb/slatraker/internal/cpm"
)

// Graphviz color-scheme fills for the timeline clusters.
const (
	chainFill   = "/set39/8"
	defaultFill = "/spectral3/3"
)

// Timeline returns a gantt-like DOT document: a chain of interval tick nodes
// forms the clock axis, and each scheduled task becomes a cluster whose
// start and end nodes are rank-pinned to the ticks matching its window.
// Clusters on the critical chain get the highlight fill. Tasks without a
// window (not upstream of the target) cannot be placed on the axis and are
// left out.
//
// The end alignment is pulled back one tick so that a task ending exactly
// where its consumer starts does not stack both on the same tick column.
func Timeline(sg *cpm.ScheduledGraph, chain []cpm.Step, interval time.Duration) string {
	if interval <= 0 {
		interval = time.Second
	}

	onChain := make(map[string]bool, len(chain))
	for _, step := range chain {
		onChain[step.ID] = true
	}

	var scheduled []string
	for id := range sg.Graph.Tasks {
		if sg.Scheduled(id) {
			scheduled = append(scheduled, id)
		}
	}
	sort.Strings(scheduled)
	if len(scheduled) == 0 {
		return "digraph G {\n}\n"
	}

	axisStart := sg.Times[scheduled[0]].Start
	axisEnd := sg.Times[scheduled[0]].End
	for _, id := range scheduled[1:] {
		w := sg.Times[id]
		if w.Start.Before(axisStart) {
			axisStart = w.Start
		}
		if w.End.After(axisEnd) {
			axisEnd = w.End
		}
	}

	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  newrank=true;\n")
	b.WriteString("  compound=true;\n")
	b.WriteString("  overlap=false;\n")
	b.WriteString("  pad=0.5;\n")
	b.WriteString("  ranksep=equally;\n")
	b.WriteString("  nodesep=0.5;\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=plaintext];\n\n")

	// Clock axis: one tick node per interval, chained left to right.
	ticks := 0
	for t := axisStart; t.Before(axisEnd); t = t.Add(interval) {
		fmt.Fprintf(&b, "  %q [label=%q, fontsize=\"50pt\"];\n",
			tickName(ticks), t.Add(interval).Format("15:04:05"))
		if t.Add(interval).Before(axisEnd) {
			fmt.Fprintf(&b, "  %q -> %q;\n", tickName(ticks), tickName(ticks+1))
			ticks++
		}
	}
	b.WriteString("\n")

	align := func(t time.Time) int {
		return int(t.Sub(axisStart) / interval)
	}

	for _, id := range scheduled {
		w := sg.Times[id]
		startAlign := align(w.Start)
		endAlign := align(w.End) - 1
		if endAlign < startAlign {
			endAlign = startAlign
		}

		fill := defaultFill
		if onChain[id] {
			fill = chainFill
		}

		nodeStart := id + "_start"
		nodeEnd := id
		fmt.Fprintf(&b, "  subgraph %q {\n", "cluster_"+id)
		b.WriteString("    style=\"rounded,filled\";\n")
		fmt.Fprintf(&b, "    fillcolor=%q;\n", fill)
		if startAlign == endAlign {
			// Single-tick task: one node, no invisible spacer.
			nodeStart = nodeEnd
		} else {
			fmt.Fprintf(&b, "    %q [style=invis];\n", nodeEnd)
		}
		fmt.Fprintf(&b, "    %q [fontsize=24, label=%q];\n", nodeStart, id)
		b.WriteString("  }\n")

		// Ranks pin the cluster's nodes onto the axis ticks.
		fmt.Fprintf(&b, "  { rank=same; %q; %q; }\n", tickName(startAlign), nodeStart)
		if nodeStart != nodeEnd {
			fmt.Fprintf(&b, "  { rank=same; %q; %q; }\n", tickName(endAlign), nodeEnd)
		}

		for _, up := range sg.Graph.RevAdj[id] {
			if !sg.Scheduled(up) {
				continue
			}
			fmt.Fprintf(&b, "  %q -> %q [ltail=%q, lhead=%q];\n",
				up, nodeStart, "cluster_"+up, "cluster_"+id)
		}
		b.WriteString("\n")
	}

	b.WriteString("}\n")
	return b.String()
}

func tickName(i int) string {
	return fmt.Sprintf("t%d", i)
}
