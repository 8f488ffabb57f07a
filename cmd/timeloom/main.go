package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/joshharrison/timeloom/internal/calendar"
	"github.com/joshharrison/timeloom/internal/config"
	"github.com/joshharrison/timeloom/internal/cpm"
	"github.com/joshharrison/timeloom/internal/graph"
	"github.com/joshharrison/timeloom/internal/logging"
	"github.com/joshharrison/timeloom/internal/mcp"
	"github.com/joshharrison/timeloom/internal/project"
	"github.com/joshharrison/timeloom/internal/reporter"
	"github.com/joshharrison/timeloom/internal/server"
	"github.com/joshharrison/timeloom/internal/ui"
)

var (
	flagFile     string
	flagCalendar string
	flagJSON     bool
	flagEnv      string
	flagFilter   string
	flagFormat   string

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "timeloom",
		Short: "Critical path scheduling over working calendars",
		Long: `Timeloom reads tasks and dependencies from a YAML or JSON project file,
computes early and late dates, total slack and the critical path, and
answers working-day questions against a configurable calendar.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if flagEnv != "" {
				cfg.Environment = flagEnv
			}
			if flagCalendar == "" {
				flagCalendar = cfg.CalendarPath
			}
			logging.Setup(cfg.Environment)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "timeloom.yaml", "Project file (.yaml, .yml or .json)")
	rootCmd.PersistentFlags().StringVar(&flagCalendar, "calendar", "", "Calendar file for the calendar, serve and mcp commands")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "Environment (overrides TIMELOOM_ENV)")

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(criticalCmd())
	rootCmd.AddCommand(slackCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// analyzeProject is shared logic for the scheduling commands.
func analyzeProject() (*project.Project, *graph.TaskGraph, *cpm.Result, error) {
	p, err := project.Load(flagFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(p.Tasks) == 0 {
		return nil, nil, nil, fmt.Errorf("no tasks found in %s", flagFile)
	}

	g := graph.Build(p.Tasks, p.Dependencies)
	if flagFilter != "" {
		g, err = applyFilter(g, flagFilter)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("apply filter: %w", err)
		}
	}

	result := cpm.AnalyzeGraph(g)
	warnDiagnostics(result)
	return p, g, result, nil
}

func warnDiagnostics(result *cpm.Result) {
	for _, d := range result.SkippedDependencies {
		log.Warn().Str("from", d.From).Str("to", d.To).Msg("dependency references unknown task")
	}
	if len(result.Cycle) > 0 {
		log.Warn().Strs("cycle", result.Cycle).Msg("dependency cycle")
	}
	if !result.Converged {
		log.Warn().
			Int("forward_sweeps", result.ForwardSweeps).
			Int("backward_sweeps", result.BackwardSweeps).
			Msg("schedule did not converge")
	}
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute early/late dates and slack for every task",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, result, err := analyzeProject()
			if err != nil {
				return err
			}
			rpt := reporter.New(g.TaskList(), result)

			if flagJSON {
				return outputJSON(rpt.Report())
			}

			rpt.PrintTable(os.Stdout)
			rpt.PrintSummary(os.Stdout)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks (e.g., type=milestone, parent=epic-1)")
	return cmd
}

func criticalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "critical",
		Short: "List the tasks on the critical path",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, result, err := analyzeProject()
			if err != nil {
				return err
			}
			critical := cpm.CriticalTasks(g.TaskList(), result.Schedules)

			if flagJSON {
				if critical == nil {
					critical = []graph.Task{}
				}
				return outputJSON(critical)
			}

			fmt.Printf("⚡ %s (%d tasks)\n", ui.BoldYellow("Critical path"), len(critical))
			for _, t := range critical {
				s := result.Schedules[t.ID]
				fmt.Printf("  %s %s  %s → %s  %s\n", ui.TaskPrefix(t.ID), t.Name,
					s.EarlyStart.Format("2006-01-02"), s.EarlyFinish.Format("2006-01-02"),
					ui.SlackLabel(s.TotalSlack))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks")
	return cmd
}

func slackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slack <task-id>",
		Short: "Print the total slack of one task in days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, result, err := analyzeProject()
			if err != nil {
				return err
			}
			id := args[0]
			s, ok := result.Schedules[id]
			if !ok {
				return fmt.Errorf("unknown task %q", id)
			}

			if flagJSON {
				return outputJSON(s)
			}
			fmt.Printf("%s slack %s %s\n", ui.TaskPrefix(id),
				ui.SlackLabel(cpm.TaskSlack(id, result.Schedules)), ui.CriticalMark(s.IsCritical))
			return nil
		},
	}
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Print the dependency graph grouped by start date",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, result, err := analyzeProject()
			if err != nil {
				return err
			}
			rpt := reporter.New(g.TaskList(), result)

			switch flagFormat {
			case "dot":
				rpt.PrintDOT(os.Stdout, g.DependencyList())
			case "ascii":
				rpt.PrintWaves(os.Stdout, g.DependencyList())
			default:
				return fmt.Errorf("unsupported format %q (use ascii or dot)", flagFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks")
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		flagPort int
		flagBind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduling and calendar HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagPort != 0 {
				cfg.HTTPPort = flagPort
			}
			if flagBind != "" {
				cfg.HTTPBind = flagBind
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			cal, err := loadCalendar()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !flagJSON {
				ui.PrintLogo(os.Stderr)
			}
			return server.New(cfg, cal, log.Logger).Start(ctx)
		},
	}

	cmd.Flags().IntVar(&flagPort, "port", 0, "HTTP port (overrides TIMELOOM_HTTP_PORT)")
	cmd.Flags().StringVar(&flagBind, "bind", "", "HTTP bind address (overrides TIMELOOM_HTTP_BIND)")
	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scheduling tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := loadCalendar()
			if err != nil {
				return err
			}
			log.Info().Str("calendar", cal.ID).Msg("mcp server on stdio")
			return mcp.Serve(mcp.NewServer(cal, cfg.MaxDays, log.Logger))
		},
	}
}

// loadCalendar reads --calendar (or TIMELOOM_CALENDAR), falling back to the
// Monday to Friday default.
func loadCalendar() (*calendar.WorkingCalendar, error) {
	cal := calendar.Default()
	if flagCalendar != "" {
		var err error
		cal, err = project.LoadCalendar(flagCalendar)
		if err != nil {
			return nil, err
		}
	}
	if cal.SearchLimit == 0 && cfg != nil {
		cal.SearchLimit = cfg.SearchLimitDays
	}
	return cal, nil
}

// applyFilter parses simple filter expressions and returns a filtered graph.
func applyFilter(g *graph.TaskGraph, filter string) (*graph.TaskGraph, error) {
	// Supported formats: "type=X", "parent=X", "id=a,b,c"
	key, value, ok := strings.Cut(filter, "=")
	if !ok || value == "" {
		return nil, fmt.Errorf("unsupported filter: %s (use type=X, parent=X or id=a,b)", filter)
	}
	switch key {
	case "type":
		typ, err := graph.ParseTaskType(value)
		if err != nil {
			return nil, err
		}
		return g.Filter(func(t *graph.Task) bool { return t.Type == typ }), nil
	case "parent":
		return g.Filter(func(t *graph.Task) bool { return t.Parent == value }), nil
	case "id":
		ids := make(map[string]bool)
		for _, id := range strings.Split(value, ",") {
			ids[strings.TrimSpace(id)] = true
		}
		return g.Filter(func(t *graph.Task) bool { return ids[t.ID] }), nil
	}
	return nil, fmt.Errorf("unsupported filter: %s (use type=X, parent=X or id=a,b)", filter)
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
