// Package ingest reads pipeline run metadata into the flat task and
// dependency records the lineage builder consumes. Sources: dbt artifacts
// (manifest.json + run_results.json), CSV pairs, and a corrections overlay
// applied on top of either.
package ingest

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/tidwall/gjson"
)

// dbt resource types that participate in the lineage graph. Tests are
// deliberately excluded: they hang off models and would double-count time.
var dbtResourceTypes = map[string]bool{
	"model":  true,
	"seed":   true,
	"source": true,
}

// ReadDbt joins a dbt manifest with its run_results: the manifest supplies
// the node list and dependency edges, the run results supply per-node
// execute timings. Manifest nodes with no execute timing are kept as tasks
// without a duration; the scheduler rejects them only if they sit upstream
// of the requested target.
func ReadDbt(manifestPath, runResultsPath string) ([]TaskRecord, []DepRecord, error) {
	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}
	runResults, err := os.ReadFile(runResultsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read run results: %w", err)
	}
	if !gjson.ValidBytes(manifest) {
		return nil, nil, fmt.Errorf("parse manifest %s: not valid JSON", manifestPath)
	}
	if !gjson.ValidBytes(runResults) {
		return nil, nil, fmt.Errorf("parse run results %s: not valid JSON", runResultsPath)
	}

	// unique_id -> execute timing window
	type timing struct {
		start, end time.Time
	}
	timings := make(map[string]timing)
	var timingErr error
	gjson.GetBytes(runResults, "results").ForEach(func(_, res gjson.Result) bool {
		id := res.Get("unique_id").String()
		execute := res.Get(`timing.#(name=="execute")`)
		if !execute.Exists() {
			return true
		}
		start, err := parseDbtTime(execute.Get("started_at").String())
		if err != nil {
			timingErr = fmt.Errorf("result %s: %w", id, err)
			return false
		}
		end, err := parseDbtTime(execute.Get("completed_at").String())
		if err != nil {
			timingErr = fmt.Errorf("result %s: %w", id, err)
			return false
		}
		timings[id] = timing{start: start, end: end}
		return true
	})
	if timingErr != nil {
		return nil, nil, timingErr
	}

	var tasks []TaskRecord
	kept := make(map[string]bool)
	nodes := gjson.GetBytes(manifest, "nodes")
	nodes.ForEach(func(key, node gjson.Result) bool {
		resourceType := node.Get("resource_type").String()
		if !dbtResourceTypes[resourceType] {
			return true
		}
		id := node.Get("unique_id").String()
		if id == "" {
			id = key.String()
		}
		kept[id] = true

		tr := TaskRecord{
			ID:   id,
			Name: node.Get("name").String(),
			Type: resourceType,
		}
		if tm, ok := timings[id]; ok {
			tr.Start = tm.start
			tr.End = tm.end
			tr.Duration = tm.end.Sub(tm.start)
			tr.HasDuration = true
		}
		tasks = append(tasks, tr)
		return true
	})

	var deps []DepRecord
	nodes.ForEach(func(key, node gjson.Result) bool {
		id := node.Get("unique_id").String()
		if id == "" {
			id = key.String()
		}
		if !kept[id] {
			return true
		}
		node.Get("depends_on.nodes").ForEach(func(_, up gjson.Result) bool {
			if kept[up.String()] {
				deps = append(deps, DepRecord{Upstream: up.String(), Downstream: id})
			}
			return true
		})
		return true
	})

	// gjson iterates maps in document order; sort so output is stable
	// regardless of how the manifest was serialized.
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Upstream != deps[j].Upstream {
			return deps[i].Upstream < deps[j].Upstream
		}
		return deps[i].Downstream < deps[j].Downstream
	})

	return tasks, deps, nil
}

func parseDbtTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	// Older artifacts omit the zone entirely.
	t, err = time.Parse("2006-01-02T15:04:05.999999", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
