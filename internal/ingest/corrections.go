package ingest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ApplyCorrections overlays a corrections document onto the ingested records
// and returns fresh slices; the inputs are never modified. The document is a
// JSON object with any of the arrays:
//
//	nodes_delete: [{"task_id": ...}]
//	nodes_upsert: [{"task_id": ..., "task_start_ts": ..., "task_end_ts": ...}]
//	edges_delete: [{"source": ..., "target": ...}]
//	edges_add:    [{"source": ..., "target": ...}]
//
// Deleting a task also drops every edge touching it. Upserted timestamps use
// the same layout as the CSV runtimes file; the duration is recomputed from
// them. "nodes_upster" is accepted as an alias for nodes_upsert.
func ApplyCorrections(tasks []TaskRecord, deps []DepRecord, doc []byte) ([]TaskRecord, []DepRecord, error) {
	if !gjson.ValidBytes(doc) {
		return nil, nil, fmt.Errorf("corrections: not valid JSON")
	}

	deleted := make(map[string]bool)
	gjson.GetBytes(doc, "nodes_delete").ForEach(func(_, n gjson.Result) bool {
		deleted[n.Get("task_id").String()] = true
		return true
	})

	outTasks := make([]TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		if !deleted[t.ID] {
			outTasks = append(outTasks, t)
		}
	}

	upserts := gjson.GetBytes(doc, "nodes_upsert")
	if !upserts.Exists() {
		upserts = gjson.GetBytes(doc, "nodes_upster")
	}
	var upsertErr error
	upserts.ForEach(func(_, n gjson.Result) bool {
		id := n.Get("task_id").String()
		start, err := time.Parse(csvTimeLayout, strings.TrimSpace(n.Get("task_start_ts").String()))
		if err != nil {
			upsertErr = fmt.Errorf("corrections: upsert %s: %w", id, err)
			return false
		}
		end, err := time.Parse(csvTimeLayout, strings.TrimSpace(n.Get("task_end_ts").String()))
		if err != nil {
			upsertErr = fmt.Errorf("corrections: upsert %s: %w", id, err)
			return false
		}
		rec := TaskRecord{
			ID:          id,
			Name:        id,
			Start:       start,
			End:         end,
			Duration:    end.Sub(start),
			HasDuration: true,
		}
		for i := range outTasks {
			if outTasks[i].ID == id {
				rec.Name = outTasks[i].Name
				rec.Type = outTasks[i].Type
				outTasks[i] = rec
				return true
			}
		}
		outTasks = append(outTasks, rec)
		return true
	})
	if upsertErr != nil {
		return nil, nil, upsertErr
	}

	removedEdges := make(map[[2]string]bool)
	gjson.GetBytes(doc, "edges_delete").ForEach(func(_, e gjson.Result) bool {
		src, dst := e.Get("source").String(), e.Get("target").String()
		if src != "" && dst != "" {
			removedEdges[[2]string{src, dst}] = true
		}
		return true
	})

	outDeps := make([]DepRecord, 0, len(deps))
	for _, d := range deps {
		if deleted[d.Upstream] || deleted[d.Downstream] {
			continue
		}
		if removedEdges[[2]string{d.Upstream, d.Downstream}] {
			continue
		}
		outDeps = append(outDeps, d)
	}

	gjson.GetBytes(doc, "edges_add").ForEach(func(_, e gjson.Result) bool {
		src, dst := e.Get("source").String(), e.Get("target").String()
		if src != "" && dst != "" {
			outDeps = append(outDeps, DepRecord{Upstream: src, Downstream: dst})
		}
		return true
	})

	return outTasks, outDeps, nil
}

// LoadCorrections reads and applies a corrections file.
func LoadCorrections(tasks []TaskRecord, deps []DepRecord, path string) ([]TaskRecord, []DepRecord, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read corrections: %w", err)
	}
	return ApplyCorrections(tasks, deps, doc)
}
