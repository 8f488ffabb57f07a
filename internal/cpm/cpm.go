// Package cpm computes early/late dates, total slack and criticality for a
// task list under finish-to-start, start-to-start, finish-to-finish and
// start-to-finish dependencies.
//
// Both passes relax the whole task list repeatedly instead of walking a
// topological order, so cyclic input still yields a schedule for every task.
// Each pass stops after 2 × len(tasks) sweeps; when that happens the result
// is a best-effort approximation and Result.Converged is false.
//
// Durations come from each task's declared End - Start, not from a working
// calendar.
package cpm

import (
	"math"
	"sort"
	"time"

	"github.com/joshharrison/timeloom/internal/graph"
)

// CalculateCriticalPath returns one schedule per task, keyed by task ID.
// Dependencies naming a missing task are ignored.
func CalculateCriticalPath(tasks []graph.Task, deps []graph.Dependency) map[string]*TaskSchedule {
	return Analyze(tasks, deps).Schedules
}

// Analyze performs critical path analysis and also reports diagnostics:
// sweep counts, convergence, skipped edges, any cycle, and waves.
func Analyze(tasks []graph.Task, deps []graph.Dependency) *Result {
	g := graph.Build(tasks, deps)
	return AnalyzeGraph(g)
}

// AnalyzeGraph runs the analysis on a prebuilt graph.
func AnalyzeGraph(g *graph.TaskGraph) *Result {
	s := newScheduler(g)

	result := &Result{
		Schedules:           s.schedules,
		SkippedDependencies: g.Skipped,
		Cycle:               g.DetectCycle(),
	}
	if g.TaskCount() == 0 {
		result.Converged = true
		return result
	}

	var fwdOK, bwdOK bool
	result.ForwardSweeps, fwdOK = s.forward()
	result.ProjectStart, result.ProjectEnd = s.horizon()
	result.BackwardSweeps, bwdOK = s.backward(result.ProjectEnd)
	result.Converged = fwdOK && bwdOK

	for _, t := range g.Tasks {
		ts := s.schedules[t.ID]
		ts.TotalSlack = ts.LateStart.Sub(ts.EarlyStart).Hours() / 24
		ts.IsCritical = math.Abs(ts.TotalSlack) < CriticalTolerance
	}

	result.CriticalPath = criticalOrder(g, s.schedules)
	result.Waves = computeWaves(g, s.schedules)
	return result
}

// scheduler is the scratch state of one analysis. Nothing in it outlives the call.
type scheduler struct {
	g         *graph.TaskGraph
	schedules map[string]*TaskSchedule
	maxSweeps int
}

func newScheduler(g *graph.TaskGraph) *scheduler {
	s := &scheduler{
		g:         g,
		schedules: make(map[string]*TaskSchedule, g.TaskCount()),
		maxSweeps: 2 * g.TaskCount(),
	}
	for _, t := range g.Tasks {
		s.schedules[t.ID] = &TaskSchedule{
			TaskID:      t.ID,
			EarlyStart:  t.Start,
			EarlyFinish: t.End,
			LateStart:   t.Start,
			LateFinish:  t.End,
		}
	}
	return s
}

// forward computes early dates. Early start only ever moves later.
func (s *scheduler) forward() (sweeps int, converged bool) {
	changed := true
	for ; changed && sweeps < s.maxSweeps; sweeps++ {
		changed = false
		for _, t := range s.g.Tasks {
			ts := s.schedules[t.ID]
			preds := s.g.Preds[t.ID]
			if len(preds) == 0 {
				ts.EarlyStart = t.Start
				ts.EarlyFinish = t.End
				continue
			}

			dur := t.Span()
			var latest time.Time
			found := false
			for _, e := range preds {
				p, ok := s.schedules[e.From]
				if !ok {
					continue
				}
				c := forwardConstraint(e.Type, p, dur).Add(e.LagDuration())
				if !found || c.After(latest) {
					latest = c
					found = true
				}
			}

			if found && latest.After(ts.EarlyStart) {
				ts.EarlyStart = latest
				ts.EarlyFinish = latest.Add(dur)
				changed = true
			}
		}
	}
	return sweeps, !changed
}

// forwardConstraint is the earliest start a predecessor allows, before lag.
func forwardConstraint(kind graph.DependencyType, pred *TaskSchedule, dur time.Duration) time.Time {
	switch kind {
	case graph.StartToStart:
		return pred.EarlyStart
	case graph.FinishToFinish:
		return pred.EarlyFinish.Add(-dur)
	case graph.StartToFinish:
		return pred.EarlyStart.Add(-dur)
	default:
		return pred.EarlyFinish
	}
}

// horizon returns the earliest early start and the latest early finish.
func (s *scheduler) horizon() (start, end time.Time) {
	for i, t := range s.g.Tasks {
		ts := s.schedules[t.ID]
		if i == 0 || ts.EarlyStart.Before(start) {
			start = ts.EarlyStart
		}
		if i == 0 || ts.EarlyFinish.After(end) {
			end = ts.EarlyFinish
		}
	}
	return start, end
}

// backward computes late dates against projectEnd, visiting tasks in
// reverse list order. Late finish only ever moves earlier.
func (s *scheduler) backward(projectEnd time.Time) (sweeps int, converged bool) {
	for _, t := range s.g.Tasks {
		ts := s.schedules[t.ID]
		ts.LateFinish = projectEnd
		ts.LateStart = projectEnd.Add(-t.Span())
	}

	changed := true
	for ; changed && sweeps < s.maxSweeps; sweeps++ {
		changed = false
		for i := len(s.g.Tasks) - 1; i >= 0; i-- {
			t := s.g.Tasks[i]
			succs := s.g.Succs[t.ID]
			if len(succs) == 0 {
				continue
			}

			ts := s.schedules[t.ID]
			dur := t.Span()
			var earliest time.Time
			found := false
			for _, e := range succs {
				succ, ok := s.schedules[e.To]
				if !ok {
					continue
				}
				c := backwardConstraint(e.Type, succ, dur).Add(-e.LagDuration())
				if !found || c.Before(earliest) {
					earliest = c
					found = true
				}
			}

			if found && earliest.Before(ts.LateFinish) {
				ts.LateFinish = earliest
				ts.LateStart = earliest.Add(-dur)
				changed = true
			}
		}
	}
	return sweeps, !changed
}

// backwardConstraint is the latest finish a successor allows, before lag.
// The start-based kinds subtract the task's own duration from the
// successor's date.
func backwardConstraint(kind graph.DependencyType, succ *TaskSchedule, dur time.Duration) time.Time {
	switch kind {
	case graph.StartToStart:
		return succ.LateStart.Add(-dur)
	case graph.FinishToFinish:
		return succ.LateFinish
	case graph.StartToFinish:
		return succ.LateFinish.Add(-dur)
	default:
		return succ.LateStart
	}
}

// CriticalTasks returns the tasks whose schedule is marked critical, in input order.
func CriticalTasks(tasks []graph.Task, schedules map[string]*TaskSchedule) []graph.Task {
	var out []graph.Task
	for _, t := range tasks {
		if ts, ok := schedules[t.ID]; ok && ts.IsCritical {
			out = append(out, t)
		}
	}
	return out
}

// TaskSlack returns the stored total slack for taskID, or 0 when absent.
func TaskSlack(taskID string, schedules map[string]*TaskSchedule) float64 {
	if ts, ok := schedules[taskID]; ok {
		return ts.TotalSlack
	}
	return 0
}

// criticalOrder lists critical task IDs by early start, ties kept in input order.
func criticalOrder(g *graph.TaskGraph, schedules map[string]*TaskSchedule) []string {
	var ids []string
	for _, t := range g.Tasks {
		if schedules[t.ID].IsCritical {
			ids = append(ids, t.ID)
		}
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return schedules[ids[a]].EarlyStart.Before(schedules[ids[b]].EarlyStart)
	})
	return ids
}

// computeWaves groups tasks by the calendar date of their early start.
func computeWaves(g *graph.TaskGraph, schedules map[string]*TaskSchedule) []Wave {
	groups := make(map[time.Time][]string)
	var dates []time.Time
	for _, t := range g.Tasks {
		key := dateOf(schedules[t.ID].EarlyStart)
		if _, ok := groups[key]; !ok {
			dates = append(dates, key)
		}
		groups[key] = append(groups[key], t.ID)
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	waves := make([]Wave, len(dates))
	for i, d := range dates {
		taskIDs := groups[d]

		hasCritical := false
		for _, id := range taskIDs {
			schedules[id].Wave = i
			if schedules[id].IsCritical {
				hasCritical = true
			}
		}

		// Critical tasks first within a wave
		sort.SliceStable(taskIDs, func(a, b int) bool {
			return schedules[taskIDs[a]].IsCritical && !schedules[taskIDs[b]].IsCritical
		})

		waves[i] = Wave{
			Index:      i,
			Date:       d,
			TaskIDs:    taskIDs,
			IsCritical: hasCritical,
		}
	}
	return waves
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
