package graph

import (
	"fmt"
	"strings"
	"time"
)

// Day is the unit for durations, lags and slack.
const Day = 24 * time.Hour

// TaskType distinguishes plain tasks, zero-length milestones and summary tasks.
// The scheduling math treats them alike.
type TaskType string

const (
	TypeTask      TaskType = "task"
	TypeMilestone TaskType = "milestone"
	TypeProject   TaskType = "project"
)

// ParseTaskType accepts the type tags used by the UI. Empty means TypeTask.
func ParseTaskType(s string) (TaskType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "task":
		return TypeTask, nil
	case "milestone":
		return TypeMilestone, nil
	case "project", "summary":
		return TypeProject, nil
	}
	return "", fmt.Errorf("unknown task type %q", s)
}

// DependencyType is the temporal relationship an edge enforces.
type DependencyType string

const (
	FinishToStart  DependencyType = "finish-to-start"
	StartToStart   DependencyType = "start-to-start"
	FinishToFinish DependencyType = "finish-to-finish"
	StartToFinish  DependencyType = "start-to-finish"
)

// ParseDependencyType accepts long names, camelCase names and the FS/SS/FF/SF
// abbreviations. Empty means FinishToStart.
func ParseDependencyType(s string) (DependencyType, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	switch norm {
	case "", "fs", "finishtostart":
		return FinishToStart, nil
	case "ss", "starttostart":
		return StartToStart, nil
	case "ff", "finishtofinish":
		return FinishToFinish, nil
	case "sf", "starttofinish":
		return StartToFinish, nil
	}
	return "", fmt.Errorf("unknown dependency type %q", s)
}

// Short returns the two-letter abbreviation.
func (t DependencyType) Short() string {
	switch t {
	case StartToStart:
		return "SS"
	case FinishToFinish:
		return "FF"
	case StartToFinish:
		return "SF"
	}
	return "FS"
}

// Task is the scheduling view of a chart row. End must not precede Start.
type Task struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration float64   `json:"duration"` // days, as supplied by the caller
	Type     TaskType  `json:"type"`
	Progress int       `json:"progress,omitempty"`
	Parent   string    `json:"parent,omitempty"`
}

// Span is the declared length End - Start.
func (t *Task) Span() time.Duration {
	return t.End.Sub(t.Start)
}

// Dependency is a directed edge from a predecessor (From) to a successor (To).
// Lag is in days; negative values allow overlap.
type Dependency struct {
	ID   string         `json:"id"`
	From string         `json:"from"`
	To   string         `json:"to"`
	Type DependencyType `json:"type"`
	Lag  float64        `json:"lag,omitempty"`
}

// LagDuration converts Lag to a time.Duration.
func (d *Dependency) LagDuration() time.Duration {
	return time.Duration(d.Lag * float64(Day))
}

// TaskGraph indexes tasks and dependencies for the scheduling passes.
// Tasks keeps the caller's order.
type TaskGraph struct {
	Tasks   []*Task
	Index   map[string]*Task
	Edges   []*Dependency            // edges whose endpoints both exist, in input order
	Preds   map[string][]*Dependency // successor -> incoming edges
	Succs   map[string][]*Dependency // predecessor -> outgoing edges
	Skipped []Dependency             // edges naming a task that is not in the list
	Roots   []string                 // tasks with no predecessors
	Leaves  []string                 // tasks with no successors

	// Duplicates lists IDs that appeared more than once; the first occurrence is kept.
	Duplicates []string
}
