package main

import (
	"fmt"
	"os"
	"time"

	"github.com/borjavb/slatraker/internal/config"
	"github.com/borjavb/slatraker/internal/cpm"
	"github.com/borjavb/slatraker/internal/ingest"
	"github.com/borjavb/slatraker/internal/lineage"
	"github.com/borjavb/slatraker/internal/render"
	"github.com/borjavb/slatraker/internal/report"
	"github.com/borjavb/slatraker/internal/ui"
	"github.com/spf13/cobra"
)

var (
	flagConfig      string
	flagManifest    string
	flagRunResults  string
	flagEdges       string
	flagRuntimes    string
	flagCorrections string
	flagModel       string
	flagAnchor      string
	flagJSON        bool
	flagNoColor     bool
	flagFormat      string
	flagInterval    time.Duration
	flagOutput      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "slatraker",
		Short: "Find the critical path to a model in a data pipeline run",
		Long: `Slatraker reads run metadata from dbt artifacts (manifest.json +
run_results.json) or a CSV pair (edges.csv + runtimes.csv), builds the
duration-weighted dependency DAG, and reports the critical path ending at a
chosen model: the chain of upstream tasks that actually determined when it
finished.`,
		SilenceUsage: true,
	}

	cobra.OnInitialize(func() {
		config.Init(flagConfig)
		if flagNoColor || config.Load().NoColor {
			ui.NoColor(true)
		}
	})

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default .slatraker.toml)")
	rootCmd.PersistentFlags().StringVar(&flagManifest, "manifest", "", "dbt manifest.json path")
	rootCmd.PersistentFlags().StringVar(&flagRunResults, "run-results", "", "dbt run_results.json path")
	rootCmd.PersistentFlags().StringVar(&flagEdges, "edges", "", "edges.csv path")
	rootCmd.PersistentFlags().StringVar(&flagRuntimes, "runtimes", "", "runtimes.csv path")
	rootCmd.PersistentFlags().StringVar(&flagCorrections, "corrections", "", "corrections.json overlay path")
	rootCmd.PersistentFlags().StringVar(&flagAnchor, "anchor", "", "Reference end instant, RFC 3339 (default: end of latest run)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(optimizeCmd())
	rootCmd.AddCommand(vizCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRecords resolves the input source (flags over config), reads it, and
// applies the corrections overlay if one was given.
func loadRecords() ([]ingest.TaskRecord, []ingest.DepRecord, error) {
	cfg := config.Load()
	manifest := firstOf(flagManifest, cfg.Manifest)
	runResults := firstOf(flagRunResults, cfg.RunResults)
	edges := firstOf(flagEdges, cfg.Edges)
	runtimes := firstOf(flagRuntimes, cfg.Runtimes)

	var (
		tasks []ingest.TaskRecord
		deps  []ingest.DepRecord
		err   error
	)
	switch {
	case manifest != "" && runResults != "":
		if edges != "" || runtimes != "" {
			return nil, nil, fmt.Errorf("dbt artifacts and CSV inputs are mutually exclusive")
		}
		tasks, deps, err = ingest.ReadDbt(manifest, runResults)
	case edges != "" && runtimes != "":
		tasks, deps, err = ingest.ReadCSV(edges, runtimes)
	case manifest != "" || runResults != "":
		return nil, nil, fmt.Errorf("dbt input needs both --manifest and --run-results")
	case edges != "" || runtimes != "":
		return nil, nil, fmt.Errorf("CSV input needs both --edges and --runtimes")
	default:
		return nil, nil, fmt.Errorf("no input: pass --manifest/--run-results or --edges/--runtimes")
	}
	if err != nil {
		return nil, nil, err
	}

	if flagCorrections != "" {
		tasks, deps, err = ingest.LoadCorrections(tasks, deps, flagCorrections)
		if err != nil {
			return nil, nil, err
		}
	}
	return tasks, deps, nil
}

// buildScheduled is shared by all subcommands: ingest, build the graph,
// resolve the anchor, and schedule the target's ancestors.
func buildScheduled() (*cpm.ScheduledGraph, error) {
	if flagModel == "" {
		return nil, fmt.Errorf("--model is required")
	}

	tasks, deps, err := loadRecords()
	if err != nil {
		return nil, err
	}

	g, err := lineage.Build(tasks, deps)
	if err != nil {
		return nil, fmt.Errorf("build lineage graph: %w", err)
	}

	anchor, err := resolveAnchor(tasks)
	if err != nil {
		return nil, err
	}

	sg, err := cpm.Schedule(g, flagModel, anchor)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	return sg, nil
}

// resolveAnchor picks the reference end instant: the --anchor flag if given,
// otherwise the end of the most recently completed run in the records.
func resolveAnchor(tasks []ingest.TaskRecord) (time.Time, error) {
	if flagAnchor != "" {
		anchor, err := time.Parse(time.RFC3339, flagAnchor)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse --anchor: %w", err)
		}
		return anchor, nil
	}
	anchor, ok := ingest.LatestEnd(tasks)
	if !ok {
		return time.Time{}, fmt.Errorf("no run end times in input; pass --anchor")
	}
	return anchor, nil
}

func pathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the critical path ending at a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			sg, err := buildScheduled()
			if err != nil {
				return err
			}
			chain, err := cpm.Extract(sg)
			if err != nil {
				return err
			}

			if flagJSON {
				data, err := report.JSON(chain)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			ui.PrintLogo()
			fmt.Printf("⚡ %s %s\n\n", ui.BoldCyan("Critical path to"), ui.BoldYellow(sg.Target))
			report.Table(os.Stdout, chain)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagModel, "model", "", "Target model id")
	return cmd
}

func optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Show what speeding up each critical task would buy",
		Long: `Re-runs the critical path analysis once per task on the chain with that
task's duration set to zero, reporting the total span saved and the path
that would become critical in its place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sg, err := buildScheduled()
			if err != nil {
				return err
			}
			chain, err := cpm.Optimize(sg.Graph, sg.Target, sg.Anchor)
			if err != nil {
				return err
			}

			if flagJSON {
				data, err := report.OptimizeJSON(chain)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			ui.PrintLogo()
			fmt.Printf("🔍 %s %s\n\n", ui.BoldCyan("Optimisation candidates for"), ui.BoldYellow(sg.Target))
			report.OptimizeTable(os.Stdout, chain)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagModel, "model", "", "Target model id")
	return cmd
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Export the scheduled graph as graphviz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			sg, err := buildScheduled()
			if err != nil {
				return err
			}
			chain, err := cpm.Extract(sg)
			if err != nil {
				return err
			}

			cfg := config.Load()
			format := firstOf(flagFormat, cfg.Format)
			interval := flagInterval
			if interval == 0 {
				interval = cfg.Interval
			}

			var doc string
			switch format {
			case "dot":
				doc = render.DOT(sg, chain)
			case "timeline":
				doc = render.Timeline(sg, chain, interval)
			default:
				return fmt.Errorf("unsupported format %q (use dot or timeline)", format)
			}

			if flagOutput != "" {
				if err := os.WriteFile(flagOutput, []byte(doc), 0644); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "📥 %s %s\n", ui.Green("Lineage delivered to"), ui.Bold(flagOutput))
				return nil
			}
			fmt.Print(doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagModel, "model", "", "Target model id")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (dot, timeline)")
	cmd.Flags().DurationVar(&flagInterval, "interval", 0, "Timeline tick interval (e.g. 1s, 30s)")
	cmd.Flags().StringVar(&flagOutput, "output", "", "Write DOT to file instead of stdout")
	return cmd
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
