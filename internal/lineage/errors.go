package lineage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateTask is returned when two task records share an identifier.
var ErrDuplicateTask = errors.New("duplicate task")

// ErrDanglingReference is returned when a dependency names a task that has
// no task record.
var ErrDanglingReference = errors.New("dangling reference")

// ErrCycle is returned when the dependency edges do not form a DAG.
var ErrCycle = errors.New("cycle detected")

// ErrUnknownTask is returned when a lookup names a task absent from the graph.
var ErrUnknownTask = errors.New("unknown task")

// ErrMissingDuration is returned when a task on the path to the target has
// no recorded duration.
var ErrMissingDuration = errors.New("missing duration")

// CycleError carries the offending cycle so callers can report it.
// It unwraps to ErrCycle.
type CycleError struct {
	Nodes []string // forward order, first node repeated at the end
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Nodes, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }
