package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/joshharrison/timeloom/internal/cpm"
	"github.com/joshharrison/timeloom/internal/graph"
)

func jan(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func makeProject() ([]graph.Task, []graph.Dependency) {
	tasks := []graph.Task{
		{ID: "a", Name: "Task A", Start: jan(1), End: jan(3), Progress: 100},
		{ID: "b", Name: "Task B", Start: jan(3), End: jan(5)},
		{ID: "c", Name: "Task C", Start: jan(1), End: jan(2), Type: graph.TypeMilestone},
	}
	deps := []graph.Dependency{
		{ID: "d1", From: "a", To: "b", Type: graph.FinishToStart},
		{ID: "d2", From: "c", To: "ghost", Type: graph.FinishToStart},
	}
	return tasks, deps
}

func makeReporter() (*Reporter, []graph.Dependency) {
	tasks, deps := makeProject()
	return New(tasks, cpm.Analyze(tasks, deps)), deps
}

func TestPrintTable(t *testing.T) {
	rpt, _ := makeReporter()

	var buf bytes.Buffer
	rpt.PrintTable(&buf)
	output := buf.String()

	for _, want := range []string{"SLACK", "Task A", "Task B", "Task C", "2024-01-03", "3d"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if !strings.Contains(output, "⚡") {
		t.Error("expected output to contain critical path marker")
	}
	if !strings.Contains(output, "✓") {
		t.Error("expected completed task icon")
	}
}

func TestPrintTable_TruncatesOnRunes(t *testing.T) {
	tasks := []graph.Task{{
		ID:    "αβγδεζηθικλμνξ",
		Name:  "Überprüfung der Lieferantenverträge für Zulieferer",
		Start: jan(1),
		End:   jan(3),
	}}
	rpt := New(tasks, cpm.Analyze(tasks, nil))

	var buf bytes.Buffer
	rpt.PrintTable(&buf)
	out := buf.String()

	if !utf8.ValidString(out) {
		t.Fatalf("expected valid UTF-8 output, got %q", out)
	}
	if !strings.Contains(out, "αβγδεζηθικλ…") {
		t.Errorf("expected id cut to 11 runes plus ellipsis:\n%s", out)
	}
	if !strings.Contains(out, "Überprüfung der Lieferanten...") {
		t.Errorf("expected name cut to 27 runes:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"öööööööööööö", 10, "ööööööö..."},
		{"abc", 2, ".."},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width, "..."); got != tc.want {
			t.Errorf("truncate(%q, %d): expected %q, got %q", tc.in, tc.width, tc.want, got)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	rpt, _ := makeReporter()

	var buf bytes.Buffer
	rpt.PrintSummary(&buf)
	output := buf.String()

	if !strings.Contains(output, "Timeloom Schedule") {
		t.Error("expected header")
	}
	if !strings.Contains(output, "a → b") {
		t.Errorf("expected critical chain a → b, got:\n%s", output)
	}
	if !strings.Contains(output, "2024-01-01") || !strings.Contains(output, "2024-01-05") {
		t.Error("expected project horizon dates")
	}
	if !strings.Contains(output, "c → ghost") && !strings.Contains(output, "ghost") {
		t.Error("expected skipped dependency to be listed")
	}
	if strings.Contains(output, "did not settle") {
		t.Error("did not expect convergence warning for an acyclic project")
	}
}

func TestPrintSummary_Cycle(t *testing.T) {
	tasks := []graph.Task{
		{ID: "x", Name: "X", Start: jan(1), End: jan(2)},
		{ID: "y", Name: "Y", Start: jan(2), End: jan(3)},
	}
	deps := []graph.Dependency{
		{From: "x", To: "y", Type: graph.FinishToStart},
		{From: "y", To: "x", Type: graph.FinishToStart},
	}
	rpt := New(tasks, cpm.Analyze(tasks, deps))

	var buf bytes.Buffer
	rpt.PrintSummary(&buf)
	output := buf.String()

	if !strings.Contains(output, "dependency cycle") {
		t.Error("expected cycle diagnostic")
	}
	if !strings.Contains(output, "did not settle") {
		t.Error("expected convergence warning")
	}
}

func TestPrintWaves(t *testing.T) {
	rpt, deps := makeReporter()

	var buf bytes.Buffer
	rpt.PrintWaves(&buf, deps)
	output := buf.String()

	if !strings.Contains(output, "Wave 1") || !strings.Contains(output, "Wave 2") {
		t.Errorf("expected two waves, got:\n%s", output)
	}
	if !strings.Contains(output, "└──→") {
		t.Error("expected dependency arrows")
	}
}

func TestPrintDOT(t *testing.T) {
	rpt, deps := makeReporter()

	var buf bytes.Buffer
	rpt.PrintDOT(&buf, deps)
	output := buf.String()

	if !strings.HasPrefix(output, "digraph timeloom {") {
		t.Error("expected digraph header")
	}
	if !strings.Contains(output, `"a" -> "b" [color=red, penwidth=2];`) {
		t.Errorf("expected critical edge, got:\n%s", output)
	}
	if !strings.Contains(output, `"a" [label="a\nTask A\nslack 0.0d", style="rounded,bold", color=red];`) {
		t.Errorf("expected critical node, got:\n%s", output)
	}
	if !strings.Contains(output, "shape=diamond") {
		t.Error("expected milestone diamond")
	}
	if strings.Contains(output, "ghost") {
		t.Error("expected edges to unknown tasks to be omitted")
	}
}

func TestJSON(t *testing.T) {
	rpt, _ := makeReporter()

	data, err := rpt.JSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct {
		CriticalPath []string                   `json:"critical_path"`
		Converged    bool                       `json:"converged"`
		DurationDays float64                    `json:"duration_days"`
		Skipped      []graph.Dependency         `json:"skipped"`
		Schedules    map[string]json.RawMessage `json:"schedules"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if strings.Join(out.CriticalPath, ",") != "a,b" {
		t.Errorf("expected critical path a,b, got %v", out.CriticalPath)
	}
	if !out.Converged || out.DurationDays != 4 {
		t.Errorf("unexpected summary fields: %+v", out)
	}
	if len(out.Skipped) != 1 || len(out.Schedules) != 3 {
		t.Errorf("expected 1 skipped and 3 schedules, got %d and %d", len(out.Skipped), len(out.Schedules))
	}
}

func TestReport_EmptyResultHasNonNilSlices(t *testing.T) {
	rep := New(nil, cpm.Analyze(nil, nil)).Report()
	if rep.CriticalPath == nil || rep.Skipped == nil || rep.Schedules == nil {
		t.Errorf("expected empty collections, got %+v", rep)
	}
}

func TestEdgeLabel(t *testing.T) {
	cases := []struct {
		dep  graph.Dependency
		want string
	}{
		{graph.Dependency{Type: graph.FinishToStart}, ""},
		{graph.Dependency{Type: graph.StartToStart, Lag: 2}, "SS +2d"},
		{graph.Dependency{Type: graph.FinishToStart, Lag: -1}, "-1d"},
		{graph.Dependency{Type: graph.FinishToFinish}, "FF"},
	}
	for _, tc := range cases {
		if got := edgeLabel(tc.dep); got != tc.want {
			t.Errorf("edgeLabel(%+v) = %q, want %q", tc.dep, got, tc.want)
		}
	}
}
