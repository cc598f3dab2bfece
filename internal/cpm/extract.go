package cpm

import (
	"fmt"

	"github.com/borjavb/slatraker/internal/lineage"
)

// Extract walks the scheduled graph backward from the target, at each step
// moving to the scheduled predecessor whose end is latest, the one the
// current task actually waited for. Ties on the end instant are broken by
// the lexicographically smallest identifier so repeated runs always produce
// the same chain. The walk stops at a task with no scheduled predecessors
// and the result is reversed into chronological order.
//
// The scheduled graph is not mutated.
func Extract(sg *ScheduledGraph) ([]Step, error) {
	if !sg.Scheduled(sg.Target) {
		return nil, fmt.Errorf("%w: %s", lineage.ErrUnknownTask, sg.Target)
	}

	var reversed []string
	current := sg.Target
	for {
		reversed = append(reversed, current)

		next := ""
		for _, up := range sg.Graph.RevAdj[current] {
			if !sg.Scheduled(up) {
				continue
			}
			if next == "" {
				next = up
				continue
			}
			upEnd, nextEnd := sg.Times[up].End, sg.Times[next].End
			if upEnd.After(nextEnd) || (upEnd.Equal(nextEnd) && up < next) {
				next = up
			}
		}
		if next == "" {
			break
		}
		current = next
	}

	chain := make([]Step, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		id := reversed[i]
		task := sg.Graph.Tasks[id]
		w := sg.Times[id]
		chain = append(chain, Step{
			ID:       id,
			Name:     task.Name,
			Start:    w.Start,
			End:      w.End,
			Duration: task.Duration,
		})
	}
	return chain, nil
}
