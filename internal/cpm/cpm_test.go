package cpm

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/borjavb/slatraker/internal/ingest"
	"github.com/borjavb/slatraker/internal/lineage"
)

var anchor = time.Date(2023, 4, 1, 6, 0, 0, 0, time.UTC)

func buildTestGraph(t *testing.T, tasks []ingest.TaskRecord, deps []ingest.DepRecord) *lineage.Graph {
	t.Helper()
	g, err := lineage.Build(tasks, deps)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func task(id string, seconds int) ingest.TaskRecord {
	return ingest.TaskRecord{
		ID:          id,
		Name:        id,
		Duration:    time.Duration(seconds) * time.Second,
		HasDuration: true,
	}
}

func dep(up, down string) ingest.DepRecord {
	return ingest.DepRecord{Upstream: up, Downstream: down}
}

func assertWindow(t *testing.T, sg *ScheduledGraph, id string, startOffset, endOffset int) {
	t.Helper()
	w, ok := sg.Times[id]
	if !ok {
		t.Fatalf("task %s: no window assigned", id)
	}
	wantStart := anchor.Add(time.Duration(startOffset) * time.Second)
	wantEnd := anchor.Add(time.Duration(endOffset) * time.Second)
	if !w.Start.Equal(wantStart) {
		t.Errorf("task %s: expected start T%+d, got T%+d", id, startOffset, int(w.Start.Sub(anchor).Seconds()))
	}
	if !w.End.Equal(wantEnd) {
		t.Errorf("task %s: expected end T%+d, got T%+d", id, endOffset, int(w.End.Sub(anchor).Seconds()))
	}
}

func chainIDs(chain []Step) []string {
	ids := make([]string, len(chain))
	for i, s := range chain {
		ids[i] = s.ID
	}
	return ids
}

// assertContiguous checks the chain invariant: no gaps, no overlaps, and the
// total span equals target end minus root start.
func assertContiguous(t *testing.T, chain []Step) {
	t.Helper()
	var total time.Duration
	for i, s := range chain {
		total += s.Duration
		if i == 0 {
			continue
		}
		if !chain[i-1].End.Equal(s.Start) {
			t.Errorf("gap between %s (end %v) and %s (start %v)",
				chain[i-1].ID, chain[i-1].End, s.ID, s.Start)
		}
	}
	if span := Span(chain); span != total {
		t.Errorf("expected span %v to equal chain duration sum %v", span, total)
	}
}

func TestSchedule_LinearChain(t *testing.T) {
	// a(3) -> b(3) -> c(4), target c, anchored at T.
	tasks := []ingest.TaskRecord{task("a", 3), task("b", 3), task("c", 4)}
	deps := []ingest.DepRecord{dep("a", "b"), dep("b", "c")}
	g := buildTestGraph(t, tasks, deps)

	sg, err := Schedule(g, "c", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertWindow(t, sg, "a", -10, -7)
	assertWindow(t, sg, "b", -7, -4)
	assertWindow(t, sg, "c", -4, 0)

	chain, err := Extract(sg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := chainIDs(chain); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected chain [a b c], got %v", got)
	}
	assertContiguous(t, chain)
	if Span(chain) != 10*time.Second {
		t.Errorf("expected total span 10s, got %v", Span(chain))
	}
}

func TestSchedule_UnknownTarget(t *testing.T) {
	g := buildTestGraph(t, []ingest.TaskRecord{task("a", 1)}, nil)

	_, err := Schedule(g, "ghost", anchor)
	if !errors.Is(err, lineage.ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
}

func TestSchedule_OnlyAncestorsScheduled(t *testing.T) {
	// a -> b (target), plus b -> down and an unrelated island.
	tasks := []ingest.TaskRecord{task("a", 1), task("b", 1), task("down", 1), task("island", 1)}
	deps := []ingest.DepRecord{dep("a", "b"), dep("b", "down")}
	g := buildTestGraph(t, tasks, deps)

	sg, err := Schedule(g, "b", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range []string{"a", "b"} {
		if !sg.Scheduled(id) {
			t.Errorf("expected %s to be scheduled", id)
		}
	}
	for _, id := range []string{"down", "island"} {
		if sg.Scheduled(id) {
			t.Errorf("expected %s to have no window", id)
		}
	}
}

func TestSchedule_MissingDuration(t *testing.T) {
	tasks := []ingest.TaskRecord{
		{ID: "a", Name: "a"}, // never ran
		task("b", 2),
	}
	deps := []ingest.DepRecord{dep("a", "b")}
	g := buildTestGraph(t, tasks, deps)

	_, err := Schedule(g, "b", anchor)
	if !errors.Is(err, lineage.ErrMissingDuration) {
		t.Fatalf("expected ErrMissingDuration, got %v", err)
	}

	// The same graph with the duration supplied as zero succeeds and
	// collapses the window.
	tasks[0] = task("a", 0)
	g = buildTestGraph(t, tasks, deps)
	sg, err := Schedule(g, "b", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertWindow(t, sg, "a", -2, -2)
	assertWindow(t, sg, "b", -2, 0)
}

func TestSchedule_MissingDurationOutsideAncestorsIgnored(t *testing.T) {
	// The unscheduled side of the graph may lack durations freely.
	tasks := []ingest.TaskRecord{
		task("a", 1),
		task("b", 1),
		{ID: "island", Name: "island"},
	}
	deps := []ingest.DepRecord{dep("a", "b")}
	g := buildTestGraph(t, tasks, deps)

	if _, err := Schedule(g, "b", anchor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtract_DiamondPicksCumulativeLongestBranch(t *testing.T) {
	// a(2) -> b(5) -> f(1)
	// a(2) -> d(1) -> e(9) -> f(1)
	// The a->d->e branch wins because 1+9 > 5, even though d alone is short.
	tasks := []ingest.TaskRecord{task("a", 2), task("b", 5), task("d", 1), task("e", 9), task("f", 1)}
	deps := []ingest.DepRecord{dep("a", "b"), dep("b", "f"), dep("a", "d"), dep("d", "e"), dep("e", "f")}
	g := buildTestGraph(t, tasks, deps)

	sg, err := Schedule(g, "f", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain, err := Extract(sg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := chainIDs(chain); !reflect.DeepEqual(got, []string{"a", "d", "e", "f"}) {
		t.Fatalf("expected chain [a d e f], got %v", got)
	}
	assertContiguous(t, chain)
	if Span(chain) != 13*time.Second {
		t.Errorf("expected span 13s, got %v", Span(chain))
	}

	// The anchored target ends exactly at the anchor.
	if last := chain[len(chain)-1]; !last.End.Equal(anchor) {
		t.Errorf("expected target end %v, got %v", anchor, last.End)
	}
}

func TestExtract_TieBreaksLexicographically(t *testing.T) {
	// x and y both end at the same instant before t; x wins the tie.
	tasks := []ingest.TaskRecord{task("x", 5), task("y", 5), task("t", 1)}
	deps := []ingest.DepRecord{dep("x", "t"), dep("y", "t")}
	g := buildTestGraph(t, tasks, deps)

	sg, err := Schedule(g, "t", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain, err := Extract(sg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := chainIDs(chain); !reflect.DeepEqual(got, []string{"x", "t"}) {
		t.Fatalf("expected chain [x t], got %v", got)
	}
}

func TestScheduleExtract_Deterministic(t *testing.T) {
	tasks := []ingest.TaskRecord{task("a", 2), task("b", 5), task("d", 1), task("e", 9), task("f", 1)}
	deps := []ingest.DepRecord{dep("a", "b"), dep("b", "f"), dep("a", "d"), dep("d", "e"), dep("e", "f")}
	g := buildTestGraph(t, tasks, deps)

	first, err := Schedule(g, "f", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Schedule(g, "f", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Times, second.Times) {
		t.Error("expected identical windows across runs")
	}

	chain1, err := Extract(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain2, err := Extract(second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(chain1, chain2) {
		t.Error("expected identical chains across runs")
	}
}

func TestSchedule_ZeroDurationTarget(t *testing.T) {
	tasks := []ingest.TaskRecord{task("a", 4), task("t", 0)}
	deps := []ingest.DepRecord{dep("a", "t")}
	g := buildTestGraph(t, tasks, deps)

	sg, err := Schedule(g, "t", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertWindow(t, sg, "t", 0, 0)
	assertWindow(t, sg, "a", -4, 0)
}

func TestOptimize_LinearChain(t *testing.T) {
	tasks := []ingest.TaskRecord{task("a", 3), task("b", 3), task("c", 4)}
	deps := []ingest.DepRecord{dep("a", "b"), dep("b", "c")}
	g := buildTestGraph(t, tasks, deps)

	chain, err := Optimize(g, "c", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("expected 3 annotated steps, got %d", len(chain))
	}

	// On a single chain, zeroing any task saves exactly its own duration.
	for _, step := range chain {
		if step.Saving != step.Duration {
			t.Errorf("task %s: expected saving %v, got %v", step.ID, step.Duration, step.Saving)
		}
	}
}

func TestOptimize_DiamondRevealsNextPath(t *testing.T) {
	tasks := []ingest.TaskRecord{task("a", 2), task("b", 5), task("d", 1), task("e", 9), task("f", 1)}
	deps := []ingest.DepRecord{dep("a", "b"), dep("b", "f"), dep("a", "d"), dep("d", "e"), dep("e", "f")}
	g := buildTestGraph(t, tasks, deps)

	chain, err := Optimize(g, "f", anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := make(map[string]OptimizedStep, len(chain))
	for _, step := range chain {
		byID[step.ID] = step
	}

	// Zeroing e: the b branch takes over. Old span 13, new span a+b+f = 8.
	e, ok := byID["e"]
	if !ok {
		t.Fatalf("expected e on the chain, got %v", chainIDs(stepsOf(chain)))
	}
	if e.Saving != 5*time.Second {
		t.Errorf("expected saving 5s for e, got %v", e.Saving)
	}
	if !reflect.DeepEqual(e.NextPath, []string{"a", "b", "f"}) {
		t.Errorf("expected next path [a b f] for e, got %v", e.NextPath)
	}

	// Zeroing d: still constrained by b. Old 13, new a->e->f... e starts
	// when d(0) ends at a's end: 2+9+1 = 12.
	d := byID["d"]
	if d.Saving != time.Second {
		t.Errorf("expected saving 1s for d, got %v", d.Saving)
	}

	// Zeroing a delays nothing else: every path shrinks by 2.
	a := byID["a"]
	if a.Saving != 2*time.Second {
		t.Errorf("expected saving 2s for a, got %v", a.Saving)
	}
}

func stepsOf(chain []OptimizedStep) []Step {
	steps := make([]Step, len(chain))
	for i, s := range chain {
		steps[i] = s.Step
	}
	return steps
}
