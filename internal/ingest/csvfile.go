package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"
)

// csvTimeLayout matches the runtimes/corrections timestamp format.
const csvTimeLayout = "2006-01-02T15:04:05"

// ReadCSV reads a dependency graph from an edges file and a runtimes file.
//
// edges.csv:     header row, then "upstream,downstream" rows.
// runtimes.csv:  header row, then "id,start,end" rows; duration is end-start.
//
// Every id referenced by an edge must appear in the runtimes file; the
// builder turns a missing one into a dangling-reference failure.
func ReadCSV(edgesPath, runtimesPath string) ([]TaskRecord, []DepRecord, error) {
	deps, err := readEdges(edgesPath)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := readRuntimes(runtimesPath)
	if err != nil {
		return nil, nil, err
	}
	return tasks, deps, nil
}

func readEdges(path string) ([]DepRecord, error) {
	rows, err := readCSVRows(path, 2)
	if err != nil {
		return nil, err
	}
	deps := make([]DepRecord, 0, len(rows))
	for _, row := range rows {
		deps = append(deps, DepRecord{
			Upstream:   strings.TrimSpace(row[0]),
			Downstream: strings.TrimSpace(row[1]),
		})
	}
	return deps, nil
}

func readRuntimes(path string) ([]TaskRecord, error) {
	rows, err := readCSVRows(path, 3)
	if err != nil {
		return nil, err
	}
	tasks := make([]TaskRecord, 0, len(rows))
	for i, row := range rows {
		id := strings.TrimSpace(row[0])
		start, err := time.Parse(csvTimeLayout, strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		end, err := time.Parse(csvTimeLayout, strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		tasks = append(tasks, TaskRecord{
			ID:          id,
			Name:        id,
			Start:       start,
			End:         end,
			Duration:    end.Sub(start),
			HasDuration: true,
		})
	}
	return tasks, nil
}

// readCSVRows reads a CSV file, skips the header row, and checks every row
// has at least wantFields fields.
func readCSVRows(path string, wantFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	for i, row := range rows[1:] {
		if len(row) < wantFields {
			return nil, fmt.Errorf("%s row %d: want %d fields, got %d", path, i+2, wantFields, len(row))
		}
	}
	return rows[1:], nil
}
