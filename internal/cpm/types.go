package cpm

import (
	"time"

	"github.com/joshharrison/timeloom/internal/graph"
)

// CriticalTolerance is the slack band, in days, inside which a task counts as
// critical. It absorbs date rounding noise.
const CriticalTolerance = 0.5

// Result holds the complete critical path analysis.
type Result struct {
	Schedules    map[string]*TaskSchedule
	CriticalPath []string // critical task IDs ordered by early start
	ProjectStart time.Time
	ProjectEnd   time.Time // latest early finish
	Waves        []Wave    // tasks grouped by early-start date

	ForwardSweeps  int
	BackwardSweeps int
	Converged      bool // false when a pass hit its sweep bound while still changing

	SkippedDependencies []graph.Dependency
	Cycle               []string // first dependency cycle found, if any
}

// TaskSchedule holds the scheduling info for a single task.
// TotalSlack is in days and may be fractional or negative.
type TaskSchedule struct {
	TaskID      string    `json:"task_id"`
	EarlyStart  time.Time `json:"early_start"`
	EarlyFinish time.Time `json:"early_finish"`
	LateStart   time.Time `json:"late_start"`
	LateFinish  time.Time `json:"late_finish"`
	TotalSlack  float64   `json:"total_slack"`
	IsCritical  bool      `json:"is_critical"`
	Wave        int       `json:"wave"`
}

// Wave represents a group of tasks that can start on the same day.
type Wave struct {
	Index      int       `json:"index"`
	Date       time.Time `json:"date"`
	TaskIDs    []string  `json:"task_ids"`
	IsCritical bool      `json:"is_critical"` // true if wave contains critical path tasks
}
