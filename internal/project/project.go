// Package project loads task lists, dependencies and working calendars from
// YAML or JSON files and normalises them for the scheduler.
package project

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joshharrison/timeloom/internal/calendar"
	"github.com/joshharrison/timeloom/internal/graph"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than .yaml, .yml and .json.
	ErrUnsupportedFormat = errors.New("unsupported project format")
	// ErrInvalidDate is returned when a date field matches none of the accepted layouts.
	ErrInvalidDate = errors.New("invalid date")
)

// Project is a loaded, normalised schedule definition.
type Project struct {
	Name         string
	Calendar     *calendar.WorkingCalendar
	Tasks        []graph.Task
	Dependencies []graph.Dependency
}

// Load reads a project file, choosing the decoder by extension.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	var p *Project
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err = ParseYAML(data)
	case ".json":
		p, err = ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// LoadCalendar reads a standalone calendar file (.yaml, .yml or .json).
func LoadCalendar(path string) (*calendar.WorkingCalendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}

	var cal *calendar.WorkingCalendar
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cal, err = ParseCalendarYAML(data)
	case ".json":
		cal, err = ParseCalendarJSON(string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cal, nil
}

// rawTask is the decoder-neutral form of a task before normalisation.
type rawTask struct {
	ID       string
	Name     string
	Start    time.Time
	End      time.Time
	HasEnd   bool
	Duration float64
	Type     string
	Progress int
	Parent   string
}

type rawDependency struct {
	ID   string
	From string
	To   string
	Type string
	Lag  float64
}

// build validates and normalises decoded rows into a Project.
// A task without an end gets one from its working-day duration; a task
// without a duration gets its declared span in days.
func build(name string, cal *calendar.WorkingCalendar, tasks []rawTask, deps []rawDependency) (*Project, error) {
	if cal == nil {
		cal = calendar.Default()
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	p := &Project{Name: name, Calendar: cal}

	for i, rt := range tasks {
		if rt.ID == "" {
			return nil, fmt.Errorf("task #%d: missing id", i+1)
		}
		typ, err := graph.ParseTaskType(rt.Type)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", rt.ID, err)
		}
		if rt.Start.IsZero() {
			return nil, fmt.Errorf("task %s: missing start", rt.ID)
		}

		t := graph.Task{
			ID:       rt.ID,
			Name:     rt.Name,
			Start:    rt.Start,
			End:      rt.End,
			Duration: rt.Duration,
			Type:     typ,
			Progress: rt.Progress,
			Parent:   rt.Parent,
		}
		if t.Name == "" {
			t.Name = t.ID
		}

		if !rt.HasEnd && typ != graph.TypeMilestone && rt.Duration > 0 {
			if err := calendar.CheckDays(rt.Duration, calendar.MaxSpanDays); err != nil {
				return nil, fmt.Errorf("task %s duration: %w", rt.ID, err)
			}
		}

		switch {
		case rt.HasEnd:
		case typ == graph.TypeMilestone:
			t.End = t.Start
		case rt.Duration > 0:
			last := calendar.EndDate(t.Start, int(math.Ceil(rt.Duration)), cal)
			t.End = endOfDay(last)
		default:
			return nil, fmt.Errorf("task %s: needs an end date or a duration", rt.ID)
		}

		if t.End.Before(t.Start) {
			return nil, fmt.Errorf("task %s: end %s before start %s", rt.ID,
				t.End.Format(time.RFC3339), t.Start.Format(time.RFC3339))
		}
		if typ == graph.TypeMilestone {
			t.Duration = 0
		} else if t.Duration == 0 {
			t.Duration = t.Span().Hours() / 24
		}
		p.Tasks = append(p.Tasks, t)
	}
	if err := graph.CheckUnique(p.Tasks); err != nil {
		return nil, err
	}

	for i, rd := range deps {
		kind, err := graph.ParseDependencyType(rd.Type)
		if err != nil {
			return nil, fmt.Errorf("dependency #%d: %w", i+1, err)
		}
		if rd.From == "" || rd.To == "" {
			return nil, fmt.Errorf("dependency #%d: from and to are required", i+1)
		}
		id := rd.ID
		if id == "" {
			id = uuid.NewString()
		}
		p.Dependencies = append(p.Dependencies, graph.Dependency{
			ID:   id,
			From: rd.From,
			To:   rd.To,
			Type: kind,
			Lag:  rd.Lag,
		})
	}

	return p, nil
}

// endOfDay returns midnight at the end of t's calendar date.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
