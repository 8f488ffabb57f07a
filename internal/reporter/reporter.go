package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joshharrison/timeloom/internal/cpm"
	"github.com/joshharrison/timeloom/internal/graph"
	"github.com/joshharrison/timeloom/internal/ui"
)

const dateLayout = "2006-01-02"

// Reporter renders a critical path analysis for terminals, Graphviz and JSON.
type Reporter struct {
	Tasks  []graph.Task
	Result *cpm.Result

	index map[string]*graph.Task
}

// New creates a new Reporter.
func New(tasks []graph.Task, result *cpm.Result) *Reporter {
	r := &Reporter{Tasks: tasks, Result: result, index: make(map[string]*graph.Task, len(tasks))}
	for i := range tasks {
		if _, dup := r.index[tasks[i].ID]; !dup {
			r.index[tasks[i].ID] = &tasks[i]
		}
	}
	return r
}

// Report is the machine-readable form of an analysis.
type Report struct {
	ProjectStart   time.Time                    `json:"project_start"`
	ProjectEnd     time.Time                    `json:"project_end"`
	DurationDays   float64                      `json:"duration_days"`
	CriticalPath   []string                     `json:"critical_path"`
	Schedules      map[string]*cpm.TaskSchedule `json:"schedules"`
	Waves          []cpm.Wave                   `json:"waves"`
	Converged      bool                         `json:"converged"`
	ForwardSweeps  int                          `json:"forward_sweeps"`
	BackwardSweeps int                          `json:"backward_sweeps"`
	Skipped        []graph.Dependency           `json:"skipped"`
	Cycle          []string                     `json:"cycle,omitempty"`
}

// Report builds the machine-readable form.
func (r *Reporter) Report() *Report {
	res := r.Result
	rep := &Report{
		ProjectStart:   res.ProjectStart,
		ProjectEnd:     res.ProjectEnd,
		DurationDays:   res.ProjectEnd.Sub(res.ProjectStart).Hours() / 24,
		CriticalPath:   res.CriticalPath,
		Schedules:      res.Schedules,
		Waves:          res.Waves,
		Converged:      res.Converged,
		ForwardSweeps:  res.ForwardSweeps,
		BackwardSweeps: res.BackwardSweeps,
		Skipped:        res.SkippedDependencies,
		Cycle:          res.Cycle,
	}
	if rep.CriticalPath == nil {
		rep.CriticalPath = []string{}
	}
	if rep.Skipped == nil {
		rep.Skipped = []graph.Dependency{}
	}
	if rep.Schedules == nil {
		rep.Schedules = map[string]*cpm.TaskSchedule{}
	}
	return rep
}

// JSON returns the machine-readable analysis.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Report(), "", "  ")
}

// PrintTable writes one row per task in list order.
func (r *Reporter) PrintTable(w io.Writer) {
	fmt.Fprintf(w, "    %-12s %-30s %-10s %-10s %-10s %-10s %8s\n",
		"ID", "NAME", "ES", "EF", "LS", "LF", "SLACK")
	fmt.Fprintln(w, ui.Dim("    "+strings.Repeat("─", 98)))

	seen := make(map[string]bool, len(r.Tasks))
	for _, t := range r.Tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		s := r.Result.Schedules[t.ID]
		if s == nil {
			continue
		}
		r.printRow(w, &t, s)
	}
}

func (r *Reporter) printRow(w io.Writer, t *graph.Task, s *cpm.TaskSchedule) {
	id := truncate(t.ID, 12, "…")
	name := truncate(t.Name, 30, "...")
	if s.IsCritical {
		id = ui.BoldYellow(fmt.Sprintf("%-12s", id))
	} else {
		id = ui.BoldMagenta(fmt.Sprintf("%-12s", id))
	}

	fmt.Fprintf(w, "  %s %s %-30s %-10s %-10s %-10s %-10s %8s %s\n",
		ui.ProgressIcon(t.Progress), id, name,
		s.EarlyStart.Format(dateLayout), s.EarlyFinish.Format(dateLayout),
		s.LateStart.Format(dateLayout), s.LateFinish.Format(dateLayout),
		ui.SlackLabel(s.TotalSlack), ui.CriticalMark(s.IsCritical))
}

// PrintSummary writes the project horizon, the critical chain and any
// diagnostics.
func (r *Reporter) PrintSummary(w io.Writer) {
	res := r.Result
	fmt.Fprintf(w, "\n🎯 %s\n", ui.BoldCyan("Timeloom Schedule"))
	fmt.Fprintln(w, ui.Cyan("═════════════════"))
	fmt.Fprintf(w, "Tasks:     %s\n", ui.Bold(len(res.Schedules)))
	if len(res.Schedules) > 0 {
		days := res.ProjectEnd.Sub(res.ProjectStart).Hours() / 24
		fmt.Fprintf(w, "Horizon:   %s → %s (%s days)\n",
			res.ProjectStart.Format(dateLayout), res.ProjectEnd.Format(dateLayout),
			ui.Bold(fmt.Sprintf("%.1f", days)))
	}
	fmt.Fprintf(w, "Waves:     %s\n", ui.Bold(len(res.Waves)))
	if len(res.CriticalPath) > 0 {
		fmt.Fprintf(w, "⚡ Critical path: %s (%d tasks)\n",
			ui.BoldYellow(strings.Join(res.CriticalPath, " → ")), len(res.CriticalPath))
	} else {
		fmt.Fprintf(w, "⚡ Critical path: %s\n", ui.Dim("none"))
	}

	if len(res.SkippedDependencies) > 0 {
		fmt.Fprintf(w, "%s %d dependencies reference unknown tasks:\n",
			ui.Yellow("⚠"), len(res.SkippedDependencies))
		for _, d := range res.SkippedDependencies {
			fmt.Fprintf(w, "    %s → %s\n", ui.Magenta(d.From), ui.Magenta(d.To))
		}
	}
	if len(res.Cycle) > 0 {
		fmt.Fprintf(w, "%s dependency cycle: %s\n", ui.BoldRed("✗"), strings.Join(res.Cycle, " → "))
	}
	if !res.Converged {
		fmt.Fprintf(w, "%s schedule did not settle within the sweep bound (forward %d, backward %d)\n",
			ui.Yellow("⚠"), res.ForwardSweeps, res.BackwardSweeps)
	}
}

// PrintWaves writes tasks grouped by early-start date with their outgoing
// dependencies.
func (r *Reporter) PrintWaves(w io.Writer, deps []graph.Dependency) {
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Task Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════"))
	fmt.Fprintln(w)

	succs := make(map[string][]graph.Dependency)
	for _, d := range deps {
		succs[d.From] = append(succs[d.From], d)
	}

	for _, wave := range r.Result.Waves {
		fmt.Fprintf(w, "%s 🌊 Wave %d  %s  %s %s\n", ui.Cyan("──"), wave.Index+1,
			wave.Date.Format(dateLayout), ui.WaveLabel(wave.IsCritical), ui.Cyan("──────────────────"))
		for _, id := range wave.TaskIDs {
			name := id
			if t := r.index[id]; t != nil {
				name = t.Name
			}
			crit := false
			if s := r.Result.Schedules[id]; s != nil {
				crit = s.IsCritical
			}
			fmt.Fprintf(w, "  %s %s %s\n", ui.CriticalMark(crit), ui.TaskPrefix(id), name)
			for _, d := range succs[id] {
				fmt.Fprintf(w, "      %s %s %s\n", ui.Dim("└──→"), ui.Magenta(d.To), ui.Dim(edgeLabel(d)))
			}
		}
		fmt.Fprintln(w)
	}
}

// PrintDOT writes a Graphviz digraph with critical tasks and edges in red.
func (r *Reporter) PrintDOT(w io.Writer, deps []graph.Dependency) {
	fmt.Fprintln(w, "digraph timeloom {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	seen := make(map[string]bool, len(r.Tasks))
	for _, t := range r.Tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		label := fmt.Sprintf("%s\\n%s", escapeDOT(t.ID), escapeDOT(t.Name))
		if s := r.Result.Schedules[t.ID]; s != nil {
			label += fmt.Sprintf("\\nslack %.1fd", s.TotalSlack)
		}
		attrs := fmt.Sprintf(`label="%s"`, label)
		if t.Type == graph.TypeMilestone {
			attrs += ", shape=diamond"
		}
		if r.isCritical(t.ID) {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", t.ID, attrs)
	}

	fmt.Fprintln(w)

	for _, d := range deps {
		if r.index[d.From] == nil || r.index[d.To] == nil {
			continue
		}
		var attrs []string
		if label := edgeLabel(d); label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", label))
		}
		if r.isCritical(d.From) && r.isCritical(d.To) {
			attrs = append(attrs, "color=red", "penwidth=2")
		}
		style := ""
		if len(attrs) > 0 {
			style = " [" + strings.Join(attrs, ", ") + "]"
		}
		fmt.Fprintf(w, "  %q -> %q%s;\n", d.From, d.To, style)
	}

	fmt.Fprintln(w, "}")
}

func (r *Reporter) isCritical(id string) bool {
	s := r.Result.Schedules[id]
	return s != nil && s.IsCritical
}

// edgeLabel is empty for a plain finish-to-start edge.
func edgeLabel(d graph.Dependency) string {
	label := ""
	if d.Type != "" && d.Type != graph.FinishToStart {
		label = d.Type.Short()
	}
	if d.Lag != 0 {
		if label != "" {
			label += " "
		}
		label += fmt.Sprintf("%+gd", d.Lag)
	}
	return label
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// truncate shortens s to at most width runes, ending in tail when cut.
func truncate(s string, width int, tail string) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	cut := []rune(tail)
	if width <= len(cut) {
		return string(cut[:width])
	}
	return string(runes[:width-len(cut)]) + tail
}
