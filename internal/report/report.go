// Package report renders a critical chain for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/borjavb/slatraker/internal/cpm"
	"github.com/borjavb/slatraker/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

// Table writes the chain as an aligned table, chronological order, with the
// target row (the last one) highlighted.
func Table(w io.Writer, chain []cpm.Step) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		ui.Bold("ENTITY"), ui.Bold("START"), ui.Bold("END"), ui.Bold("DURATION"))

	for i, step := range chain {
		entity := ui.BoldMagenta(step.ID)
		if i == len(chain)-1 {
			entity = ui.BoldYellow(step.ID + " ⚡")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			entity,
			step.Start.Format(timeLayout),
			step.End.Format(timeLayout),
			formatDuration(step.Duration))
	}
	tw.Flush()

	fmt.Fprintf(w, "\nTotal span: %s (%d tasks)\n",
		ui.Bold(formatDuration(cpm.Span(chain))), len(chain))
}

// OptimizeTable writes the chain with the what-if columns: the span saved if
// each task were free, and the chain that would become critical instead.
func OptimizeTable(w io.Writer, chain []cpm.OptimizedStep) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		ui.Bold("ENTITY"), ui.Bold("START"), ui.Bold("END"),
		ui.Bold("DURATION"), ui.Bold("SAVING"), ui.Bold("NEXT PATH"))

	steps := make([]cpm.Step, len(chain))
	for i, step := range chain {
		steps[i] = step.Step
		saving := ui.Dim(formatDuration(step.Saving))
		if step.Saving > 0 {
			saving = ui.Green(formatDuration(step.Saving))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ui.BoldMagenta(step.ID),
			step.Start.Format(timeLayout),
			step.End.Format(timeLayout),
			formatDuration(step.Duration),
			saving,
			ui.Dim(strings.Join(step.NextPath, " → ")))
	}
	tw.Flush()

	fmt.Fprintf(w, "\nTotal span: %s (%d tasks)\n",
		ui.Bold(formatDuration(cpm.Span(steps))), len(chain))
}

// chainEntry is the machine-readable shape of one chain step.
type chainEntry struct {
	Entity          string  `json:"entity"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationSeconds float64 `json:"duration_seconds"`

	// Populated only by OptimizeJSON.
	SavingSeconds *float64 `json:"saving_seconds,omitempty"`
	NextPath      []string `json:"next_path,omitempty"`
}

// JSON returns the chain in the machine-readable output contract.
func JSON(chain []cpm.Step) ([]byte, error) {
	out := make([]chainEntry, len(chain))
	for i, step := range chain {
		out[i] = chainEntry{
			Entity:          step.ID,
			StartTime:       step.Start.Format(time.RFC3339),
			EndTime:         step.End.Format(time.RFC3339),
			DurationSeconds: step.Duration.Seconds(),
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// OptimizeJSON returns the annotated chain in machine-readable form.
func OptimizeJSON(chain []cpm.OptimizedStep) ([]byte, error) {
	out := make([]chainEntry, len(chain))
	for i, step := range chain {
		saving := step.Saving.Seconds()
		out[i] = chainEntry{
			Entity:          step.ID,
			StartTime:       step.Start.Format(time.RFC3339),
			EndTime:         step.End.Format(time.RFC3339),
			DurationSeconds: step.Duration.Seconds(),
			SavingSeconds:   &saving,
			NextPath:        step.NextPath,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// formatDuration trims sub-second noise for round values but keeps exact
// fractional durations intact.
func formatDuration(d time.Duration) string {
	if d == d.Truncate(time.Second) {
		return d.Truncate(time.Second).String()
	}
	return d.String()
}
